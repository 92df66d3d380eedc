package coach_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/coach/pkg/coachsdk"
)

// TestSignupLoginProfile walks the main account flow:
// 1. Sign up and read the profile
// 2. Update the profile and avatar
// 3. Log out, then log back in with the same credentials
func TestSignupLoginProfile(t *testing.T) {
	baseURL := setupCoachContainer(t, nil)
	client := coachsdk.NewClient(baseURL)
	email := uniqueEmail()

	session := signup(t, client, email)

	profile, err := session.Profile(t.Context())
	require.NoError(t, err)
	require.Equal(t, email, profile.Email)

	height, goal := 175, "endurance"
	profile, err = session.UpdateProfile(t.Context(), coachsdk.UpdateProfileRequest{
		HeightCM:    &height,
		FitnessGoal: &goal,
	})
	require.NoError(t, err)
	require.Equal(t, 175, *profile.HeightCM)
	require.Equal(t, "endurance", *profile.FitnessGoal)

	profile, err = session.UpdateAvatar(t.Context(), "https://example.com/me.png")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/me.png", *profile.AvatarURL)

	require.NoError(t, session.Logout(t.Context()))
	require.False(t, session.SignedIn())

	_, err = session.Profile(t.Context())
	requireStatus(t, err, http.StatusUnauthorized, "Profile after logout")

	user, err := session.Login(t.Context(), email, testPassword)
	require.NoError(t, err)
	require.Equal(t, profile.ID, user.ID)
}

// TestSignupRejections checks validation and duplicate handling.
func TestSignupRejections(t *testing.T) {
	baseURL := setupCoachContainer(t, nil)
	client := coachsdk.NewClient(baseURL)
	email := uniqueEmail()

	_, err := client.NewSession().Signup(t.Context(), coachsdk.SignupRequest{
		Email: "a@other.edu", Password: testPassword, Name: "A",
	})
	requireStatus(t, err, http.StatusBadRequest, "Non campus email")

	_, err = client.NewSession().Signup(t.Context(), coachsdk.SignupRequest{
		Email: email, Password: "short", Name: "A",
	})
	requireStatus(t, err, http.StatusBadRequest, "Short password")

	signup(t, client, email)

	_, err = client.NewSession().Signup(t.Context(), coachsdk.SignupRequest{
		Email: email, Password: testPassword, Name: "Again",
	})
	requireStatus(t, err, http.StatusConflict, "Duplicate email")
}

// TestLoginDoesNotRevealAccounts checks that wrong passwords and unknown
// emails are indistinguishable.
func TestLoginDoesNotRevealAccounts(t *testing.T) {
	baseURL := setupCoachContainer(t, nil)
	client := coachsdk.NewClient(baseURL)
	email := uniqueEmail()
	signup(t, client, email)

	_, wrongPassword := client.NewSession().Login(t.Context(), email, "not-the-password")
	_, unknownEmail := client.NewSession().Login(t.Context(), "nobody@csun.edu", testPassword)

	requireStatus(t, wrongPassword, http.StatusUnauthorized, "Wrong password")
	requireStatus(t, unknownEmail, http.StatusUnauthorized, "Unknown email")
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

// TestRestoreFromCookie signs in on one session and resumes on another that
// shares the cookie jar, the way a page reload does.
func TestRestoreFromCookie(t *testing.T) {
	baseURL := setupCoachContainer(t, nil)
	client := coachsdk.NewClient(baseURL)
	email := uniqueEmail()

	first := signup(t, client, email)
	firstToken := first.AccessToken()

	second := client.NewSession()
	user, err := second.Restore(t.Context())
	require.NoError(t, err)
	require.Equal(t, email, user.Email)
	require.NotEqual(t, firstToken, second.AccessToken())

	require.NoError(t, second.Logout(t.Context()))
	require.NoError(t, second.Logout(t.Context()), "Logout is idempotent")

	_, err = client.NewSession().Restore(t.Context())
	requireStatus(t, err, http.StatusUnauthorized, "Restore after logout")
}

// TestAnonymousChat checks that chat works without signing in.
func TestAnonymousChat(t *testing.T) {
	baseURL := setupCoachContainer(t, nil)
	client := coachsdk.NewClient(baseURL)

	reply, err := client.NewSession().Chat(t.Context(), "give me a leg workout")
	require.NoError(t, err)
	require.Contains(t, reply, "give me a leg workout")

	session := signup(t, client, uniqueEmail())
	reply, err = session.AnalyzeForm(t.Context(), "https://example.com/squat.jpg", "depth?")
	require.NoError(t, err)
	require.NotEmpty(t, reply)
}
