// Package llm talks to the text completion service behind the coach.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Persona is the profile context attached to prompts from signed-in users.
type Persona struct {
	Name            string
	FitnessGoal     string
	ExperienceLevel string
}

// Line renders the persona as one instruction for the model.
func (p Persona) Line() string {
	parts := []string{"The user's name is " + p.Name + "."}
	if p.FitnessGoal != "" {
		parts = append(parts, "Their fitness goal is "+p.FitnessGoal+".")
	}
	if p.ExperienceLevel != "" {
		parts = append(parts, fmt.Sprintf("Their experience level is %s; adjust intensity accordingly.", strings.ToLower(p.ExperienceLevel)))
	}
	return strings.Join(parts, " ")
}

type Prompt struct {
	Message string
	Persona *Persona // nil for anonymous users
}

// FormImage asks for feedback on exercise form shown in an image.
type FormImage struct {
	ImageURL string // http(s) or data:image/ URL
	Prompt   string
	Persona  *Persona
}

type Provider interface {
	Reply(ctx context.Context, p Prompt) (string, error)
	AnalyzeForm(ctx context.Context, img FormImage) (string, error)
	Name() string
}

const systemPrompt = `You are a friendly, safe fitness coach.
Return concise, actionable workout guidance including warm-up, main sets, cooldown, and form cues.
Adjust intensity to user's experience if mentioned.
If medical concerns arise, recommend consulting a professional.`

const formPrompt = `You are a fitness coach reviewing a photo of someone exercising.
Identify the exercise, point out form issues, and give up to three concrete cues to fix them.
If the image does not show an exercise, say so briefly.`
