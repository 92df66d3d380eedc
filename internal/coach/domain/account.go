package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Account is a registered user. Email is the login handle and never changes
// after signup.
type Account struct {
	ID              string
	Email           string
	PasswordHash    string // argon2id PHC string
	Name            string
	HeightCM        *int
	WeightKG        *float64
	FitnessGoal     *string
	ExperienceLevel *string
	AvatarURL       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile holds the optional attributes collected at signup.
type Profile struct {
	HeightCM        *int
	WeightKG        *float64
	FitnessGoal     *string
	ExperienceLevel *string
}

// ProfileUpdate is a partial update: nil fields are left alone. An empty
// string clears FitnessGoal or ExperienceLevel.
type ProfileUpdate struct {
	Name            *string
	HeightCM        *int
	WeightKG        *float64
	FitnessGoal     *string
	ExperienceLevel *string
}

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
	maxNameLength     = 100
	maxLabelLength    = 64
)

// AllowedEmailSuffixes are the institutional domains accepted at signup.
var AllowedEmailSuffixes = []string{"@csun.edu", "@my.csun.edu"}

// ExperienceLevels lists the accepted experience labels.
var ExperienceLevels = []string{"Beginner", "Intermediate", "Advanced"}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already normalized email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", ErrValidation)
	}
	for _, suffix := range AllowedEmailSuffixes {
		if strings.HasSuffix(email, suffix) && len(email) > len(suffix) {
			return nil
		}
	}
	return fmt.Errorf("%w: email must end with %s", ErrValidation, strings.Join(AllowedEmailSuffixes, " or "))
}

// ValidatePassword enforces the length policy. Passwords are otherwise free form.
func ValidatePassword(password string) error {
	switch n := len([]rune(password)); {
	case n < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	case n > MaxPasswordLength:
		return fmt.Errorf("%w: password must be at most %d characters", ErrValidation, MaxPasswordLength)
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len([]rune(name)) > maxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrValidation, maxNameLength)
	}
	return nil
}

// Validate checks the optional signup attributes.
func (p Profile) Validate() error {
	return ProfileUpdate{
		HeightCM:        p.HeightCM,
		WeightKG:        p.WeightKG,
		FitnessGoal:     p.FitnessGoal,
		ExperienceLevel: p.ExperienceLevel,
	}.Validate()
}

// Validate checks every supplied field.
func (u ProfileUpdate) Validate() error {
	if u.Name != nil {
		if err := ValidateName(*u.Name); err != nil {
			return err
		}
	}
	if u.HeightCM != nil && (*u.HeightCM < 50 || *u.HeightCM > 300) {
		return fmt.Errorf("%w: height_cm must be between 50 and 300", ErrValidation)
	}
	if u.WeightKG != nil && (*u.WeightKG < 20 || *u.WeightKG > 500) {
		return fmt.Errorf("%w: weight_kg must be between 20 and 500", ErrValidation)
	}
	if u.FitnessGoal != nil && len([]rune(*u.FitnessGoal)) > maxLabelLength {
		return fmt.Errorf("%w: fitness_goal must be at most %d characters", ErrValidation, maxLabelLength)
	}
	if u.ExperienceLevel != nil && *u.ExperienceLevel != "" && !isExperienceLevel(*u.ExperienceLevel) {
		return fmt.Errorf("%w: experience_level must be one of %s", ErrValidation, strings.Join(ExperienceLevels, ", "))
	}
	return nil
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.HeightCM == nil && u.WeightKG == nil &&
		u.FitnessGoal == nil && u.ExperienceLevel == nil
}

// Apply returns a copy of a with the supplied fields overwritten.
func (u ProfileUpdate) Apply(a Account) Account {
	if u.Name != nil {
		a.Name = strings.TrimSpace(*u.Name)
	}
	if u.HeightCM != nil {
		a.HeightCM = u.HeightCM
	}
	if u.WeightKG != nil {
		a.WeightKG = u.WeightKG
	}
	if u.FitnessGoal != nil {
		a.FitnessGoal = emptyToNil(*u.FitnessGoal)
	}
	if u.ExperienceLevel != nil {
		a.ExperienceLevel = emptyToNil(*u.ExperienceLevel)
	}
	return a
}

func isExperienceLevel(s string) bool {
	for _, l := range ExperienceLevels {
		if strings.EqualFold(l, s) {
			return true
		}
	}
	return false
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
