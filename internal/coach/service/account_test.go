package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/store"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	t.Run("rejects foreign domain", func(t *testing.T) {
		_, err := h.accounts.Signup(ctx, SignupInput{Email: "a@other.edu", Password: "hunter22", Name: "A"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := h.accounts.Signup(ctx, SignupInput{Email: "a@csun.edu", Password: "short", Name: "A"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := h.accounts.Signup(ctx, SignupInput{Email: "a@csun.edu", Password: "hunter22", Name: "  "})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("normalizes email and stores profile", func(t *testing.T) {
		acct, err := h.accounts.Signup(ctx, SignupInput{
			Email:    "  Mixed@My.CSUN.edu ",
			Password: "hunter22",
			Name:     " Mixed ",
			Profile:  domain.Profile{HeightCM: ptr(170), ExperienceLevel: ptr("Beginner")},
		})
		require.NoError(t, err)
		require.Equal(t, "mixed@my.csun.edu", acct.Email)
		require.Equal(t, "Mixed", acct.Name)
		require.NotEqual(t, "hunter22", acct.PasswordHash)
		require.True(t, strings.HasPrefix(acct.PasswordHash, "$argon2id$"))

		got, err := h.accounts.Get(ctx, acct.ID)
		require.NoError(t, err)
		require.Equal(t, 170, *got.HeightCM)
		require.Equal(t, "Beginner", *got.ExperienceLevel)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := h.accounts.Signup(ctx, SignupInput{Email: "MIXED@my.csun.edu", Password: "hunter22", Name: "B"})
		require.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess := h.signup(t, "login@csun.edu")

	acct, err := h.accounts.Authenticate(ctx, "LOGIN@csun.edu", "hunter22")
	require.NoError(t, err)
	require.Equal(t, sess.Account.ID, acct.ID)

	_, wrongPassword := h.accounts.Authenticate(ctx, "login@csun.edu", "hunter23")
	_, unknownEmail := h.accounts.Authenticate(ctx, "ghost@csun.edu", "hunter22")

	require.ErrorIs(t, wrongPassword, domain.ErrAuthentication)
	require.ErrorIs(t, unknownEmail, domain.ErrAuthentication)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = h.accounts.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess := h.signup(t, "find@csun.edu")

	acct, err := h.accounts.FindByEmail(ctx, " FIND@csun.edu")
	require.NoError(t, err)
	require.Equal(t, sess.Account.ID, acct.ID)

	_, err = h.accounts.FindByEmail(ctx, "nobody@csun.edu")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	sess := h.signup(t, "profile@csun.edu")
	id := sess.Account.ID

	h.clock.Advance(time.Minute)
	acct, err := h.accounts.UpdateProfile(ctx, id, domain.ProfileUpdate{
		WeightKG:    ptr(72.5),
		FitnessGoal: ptr("lose fat"),
	})
	require.NoError(t, err)
	require.Equal(t, "Test User", acct.Name)
	require.InDelta(t, 72.5, *acct.WeightKG, 0.001)
	require.Equal(t, "lose fat", *acct.FitnessGoal)
	require.Equal(t, sess.Account.Email, acct.Email)
	require.Equal(t, sess.Account.PasswordHash, acct.PasswordHash)
	require.True(t, acct.UpdatedAt.After(acct.CreatedAt))

	_, err = h.accounts.UpdateProfile(ctx, id, domain.ProfileUpdate{HeightCM: ptr(20)})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.accounts.UpdateProfile(ctx, id, domain.ProfileUpdate{Name: ptr(" ")})
	require.ErrorIs(t, err, domain.ErrValidation)

	unchanged, err := h.accounts.UpdateProfile(ctx, id, domain.ProfileUpdate{})
	require.NoError(t, err)
	require.Equal(t, acct.UpdatedAt, unchanged.UpdatedAt)

	_, err = h.accounts.UpdateProfile(ctx, "missing", domain.ProfileUpdate{Name: ptr("x")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAvatar(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.signup(t, "avatar@csun.edu").Account.ID

	acct, err := h.accounts.UpdateAvatar(ctx, id, "https://cdn.example.com/me.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/me.png", *acct.AvatarURL)

	acct, err = h.accounts.UpdateAvatar(ctx, id, "data:image/png;base64,iVBORw0KGgo=")
	require.NoError(t, err)
	require.NotNil(t, acct.AvatarURL)

	acct, err = h.accounts.UpdateAvatar(ctx, id, "")
	require.NoError(t, err)
	require.Nil(t, acct.AvatarURL)

	for _, bad := range []string{"javascript:alert(1)", "ftp://x/y.png", "data:text/html,hi", "/relative.png"} {
		_, err := h.accounts.UpdateAvatar(ctx, id, bad)
		require.ErrorIs(t, err, domain.ErrValidation, bad)
	}

	_, err = h.accounts.UpdateAvatar(ctx, id, "data:image/png;base64,"+strings.Repeat("A", MaxAvatarURLLength))
	require.ErrorIs(t, err, domain.ErrValidation)
}
