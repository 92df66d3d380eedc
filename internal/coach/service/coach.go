package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/aussiebroadwan/coach/internal/coach/llm"
	"github.com/aussiebroadwan/coach/pkg/slogx"
	"go.opentelemetry.io/otel/attribute"
)

const (
	MaxMessageLength   = 4000
	MaxFormImageLength = 8 << 20
)

// CoachService forwards chat messages and form photos to the provider,
// personalizing the prompt when the caller is signed in.
type CoachService struct {
	Provider llm.Provider
	Accounts *AccountService
}

// Chat answers message. accountID is empty for anonymous callers.
func (s *CoachService) Chat(ctx context.Context, accountID, message string) (string, error) {
	ctx, span := tracer.Start(ctx, "CoachService.Chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", s.Provider.Name()),
		attribute.Bool("account.anonymous", accountID == ""),
	)

	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return "", fmt.Errorf("%w: message must be at most %d characters", domain.ErrValidation, MaxMessageLength)
	}

	persona, err := s.persona(ctx, accountID)
	if err != nil {
		return "", err
	}

	reply, err := s.Provider.Reply(ctx, llm.Prompt{Message: message, Persona: persona})
	if err != nil {
		slogx.FromContext(ctx).Error("coach reply failed", slog.String("provider", s.Provider.Name()), slog.Any("error", err))
		return "", err
	}
	return reply, nil
}

// AnalyzeForm asks the provider for feedback on the exercise in image.
func (s *CoachService) AnalyzeForm(ctx context.Context, accountID, image, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "CoachService.AnalyzeForm")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", s.Provider.Name()))

	image = strings.TrimSpace(image)
	if image == "" {
		return "", fmt.Errorf("%w: image is required", domain.ErrValidation)
	}
	if err := ValidateImageURL(image, MaxFormImageLength); err != nil {
		return "", err
	}
	if utf8.RuneCountInString(prompt) > MaxMessageLength {
		return "", fmt.Errorf("%w: prompt must be at most %d characters", domain.ErrValidation, MaxMessageLength)
	}

	persona, err := s.persona(ctx, accountID)
	if err != nil {
		return "", err
	}

	reply, err := s.Provider.AnalyzeForm(ctx, llm.FormImage{ImageURL: image, Prompt: prompt, Persona: persona})
	if err != nil {
		slogx.FromContext(ctx).Error("form analysis failed", slog.String("provider", s.Provider.Name()), slog.Any("error", err))
		return "", err
	}
	return reply, nil
}

// persona loads the caller's profile. A signed-in caller whose account has
// vanished is answered anonymously.
func (s *CoachService) persona(ctx context.Context, accountID string) (*llm.Persona, error) {
	if accountID == "" || s.Accounts == nil {
		return nil, nil
	}

	acct, err := s.Accounts.Get(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p := &llm.Persona{Name: acct.Name}
	if acct.FitnessGoal != nil {
		p.FitnessGoal = *acct.FitnessGoal
	}
	if acct.ExperienceLevel != nil {
		p.ExperienceLevel = *acct.ExperienceLevel
	}
	return p, nil
}
