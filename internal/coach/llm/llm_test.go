package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/coach/internal/coach/domain"
	"github.com/stretchr/testify/require"
)

func TestMockEchoesPrompt(t *testing.T) {
	reply, err := Mock{}.Reply(context.Background(), Prompt{Message: "  leg day  "})
	require.NoError(t, err)
	require.Contains(t, reply, "Warm-up (5 min)")
	require.Contains(t, reply, "Prompt: “leg day”")

	reply, err = Mock{}.Reply(context.Background(), Prompt{})
	require.NoError(t, err)
	require.NotContains(t, reply, "Prompt:")
}

func TestPersonaLine(t *testing.T) {
	line := Persona{Name: "Ana", FitnessGoal: "run a 10k", ExperienceLevel: "Beginner"}.Line()
	require.Contains(t, line, "Ana")
	require.Contains(t, line, "run a 10k")
	require.Contains(t, line, "beginner")

	require.Equal(t, "The user's name is Ana.", Persona{Name: "Ana"}.Line())
}

func TestOpenAIReply(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"do squats"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", "", srv.URL)
	reply, err := o.Reply(context.Background(), Prompt{
		Message: "plan",
		Persona: &Persona{Name: "Ana"},
	})
	require.NoError(t, err)
	require.Equal(t, "do squats", reply)

	require.Equal(t, DefaultOpenAIModel, got.Model)
	require.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 3)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Equal(t, "The user's name is Ana.", got.Messages[1].Content)
	require.Equal(t, "plan", got.Messages[2].Content)
}

func TestOpenAIUpstreamErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		},
		"no choices": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"bad json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewOpenAI("k", "m", srv.URL).Reply(context.Background(), Prompt{Message: "x"})
			require.ErrorIs(t, err, domain.ErrUpstream)
		})
	}
}

func TestOpenAIAnalyzeFormSendsImage(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"knees out"}}]}`))
	}))
	defer srv.Close()

	reply, err := NewOpenAI("k", "", srv.URL).AnalyzeForm(context.Background(), FormImage{
		ImageURL: "data:image/png;base64,AAAA",
	})
	require.NoError(t, err)
	require.Equal(t, "knees out", reply)

	msgs := raw["messages"].([]any)
	user := msgs[len(msgs)-1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	require.Equal(t, "How is my form?", parts[0].(map[string]any)["text"])
	require.Equal(t, "data:image/png;base64,AAAA",
		parts[1].(map[string]any)["image_url"].(map[string]any)["url"])
}
