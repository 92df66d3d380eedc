package http

import (
	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/pkg/coachsdk"
)

// toUser is the only way an account leaves the service. It drops the
// password hash.
func toUser(a domain.Account) coachsdk.User {
	return coachsdk.User{
		ID:              a.ID,
		Email:           a.Email,
		Name:            a.Name,
		HeightCM:        a.HeightCM,
		WeightKG:        a.WeightKG,
		FitnessGoal:     a.FitnessGoal,
		ExperienceLevel: a.ExperienceLevel,
		AvatarURL:       a.AvatarURL,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
