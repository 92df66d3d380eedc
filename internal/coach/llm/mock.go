package llm

import (
	"context"
	"strings"
)

// Mock answers every prompt with a fixed workout and makes no network calls.
type Mock struct{}

func (Mock) Name() string { return "mock" }

func (Mock) Reply(_ context.Context, p Prompt) (string, error) {
	return mockWorkout(p.Message), nil
}

func (Mock) AnalyzeForm(_ context.Context, img FormImage) (string, error) {
	lines := []string{
		"Mock Coach (no billing):",
		"",
		"Form check",
		"- Keep a neutral spine and brace your core",
		"- Track knees over toes, hips back on the descent",
		"- Control the lowering phase, then drive up",
	}
	if q := strings.TrimSpace(img.Prompt); q != "" {
		lines = append(lines, "", "Prompt: “"+q+"”")
	}
	return strings.Join(lines, "\n"), nil
}

func mockWorkout(question string) string {
	q := strings.TrimSpace(question)
	lines := []string{
		"Mock Coach (no billing):",
		"",
		"Warm-up (5 min)",
		"- 2 min brisk walk or easy cycle",
		"- Dynamic stretches: leg swings, arm circles",
		"",
		"Main (20 min), 3 rounds",
		"1) Squats × 12  •  2) Push-ups × 10  •  3) Bent-over rows × 12",
		"4) Plank 30–45s •  Rest 60s between rounds",
		"",
		"Cooldown (5 min)",
		"- Slow walk + light quad/hamstring/calf stretches",
		"",
		"Form cues",
		"- Neutral spine, core braced, controlled reps, full range of motion",
		"",
	}
	if q != "" {
		lines = append(lines, "Prompt: “"+q+"”")
	} else {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
