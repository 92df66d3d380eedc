package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/store"
	"github.com/aussiebroadwan/coach/pkg/cryptox"
	"github.com/aussiebroadwan/coach/pkg/idx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
)

// MaxAvatarURLLength bounds avatar URLs, which may be inline data: URLs.
const MaxAvatarURLLength = 2 << 20

type SignupInput struct {
	Email    string
	Password string
	Name     string
	Profile  domain.Profile
}

// AccountService owns account creation, credential checks and profile edits.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Signup validates in and creates the account.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Signup")
	defer span.End()

	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateName(in.Name); err != nil {
		return domain.Account{}, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return domain.Account{}, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return domain.Account{}, err
	}
	if err := in.Profile.Validate(); err != nil {
		return domain.Account{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.Account{}, err
	}

	now := s.now()
	acct := domain.ProfileUpdate{
		HeightCM:        in.Profile.HeightCM,
		WeightKG:        in.Profile.WeightKG,
		FitnessGoal:     in.Profile.FitnessGoal,
		ExperienceLevel: in.Profile.ExperienceLevel,
	}.Apply(domain.Account{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return domain.Account{}, err
	}

	span.SetAttributes(attribute.String("account.id", acct.ID))
	slogx.FromContext(ctx).Info("account created", slog.String("account_id", acct.ID))
	return acct, nil
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// both yield domain.ErrInvalidCredentials after the same amount of hashing
// work.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Authenticate")
	defer span.End()

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Account{}, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.Hasher.Verify(password, s.Hasher.Decoy())
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Account{}, err
	}

	switch err := s.Hasher.Verify(password, acct.PasswordHash); {
	case errors.Is(err, cryptox.ErrMismatch):
		slogx.FromContext(ctx).Info("login rejected", slog.String("account_id", acct.ID))
		return domain.Account{}, domain.ErrInvalidCredentials
	case err != nil:
		return domain.Account{}, fmt.Errorf("verify password for %s: %w", acct.ID, err)
	}

	span.SetAttributes(attribute.String("account.id", acct.ID))
	return acct, nil
}

// Get loads an account by id. Access token claims are never used in place
// of this lookup.
func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("%w: account not found", domain.ErrNotFound)
	}
	return acct, err
}

// FindByEmail is a case insensitive lookup. It returns store.ErrNotFound
// unchanged when no account matches.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.Store.Accounts().GetAccountByEmail(ctx, domain.NormalizeEmail(email))
}

// UpdateProfile applies the non-nil fields of u. Email and password are
// never touched.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, u domain.ProfileUpdate) (domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountService.UpdateProfile")
	defer span.End()

	if err := u.Validate(); err != nil {
		return domain.Account{}, err
	}
	if u.IsEmpty() {
		return s.Get(ctx, id)
	}

	err := s.Store.Accounts().UpdateProfile(ctx, id, u, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("%w: account not found", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Account{}, err
	}
	return s.Get(ctx, id)
}

// UpdateAvatar sets the avatar to rawURL, or clears it when rawURL is empty.
func (s *AccountService) UpdateAvatar(ctx context.Context, id, rawURL string) (domain.Account, error) {
	rawURL = strings.TrimSpace(rawURL)

	var avatar *string
	if rawURL != "" {
		if err := ValidateImageURL(rawURL, MaxAvatarURLLength); err != nil {
			return domain.Account{}, err
		}
		avatar = &rawURL
	}

	err := s.Store.Accounts().UpdateAvatar(ctx, id, avatar, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("%w: account not found", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Account{}, err
	}
	return s.Get(ctx, id)
}

// ValidateImageURL accepts http(s) URLs and inline data:image/ URLs no
// longer than maxLen.
func ValidateImageURL(raw string, maxLen int) error {
	if len(raw) > maxLen {
		return fmt.Errorf("%w: image must be at most %d bytes", domain.ErrValidation, maxLen)
	}
	if strings.HasPrefix(raw, "data:image/") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: image must be an http(s) or data:image/ URL", domain.ErrValidation)
	}
	return nil
}
