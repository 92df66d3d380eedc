package coachsdk

import (
	"context"
	"net/http"
)

func (s *Session) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := s.client.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := s.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// Profile fetches the signed-in account.
func (s *Session) Profile(ctx context.Context) (*User, error) {
	var out UserResponse
	if err := s.doJSON(ctx, http.MethodGet, "/api/user/profile", nil, &out); err != nil {
		return nil, err
	}
	s.setUser(out.User)
	return &out.User, nil
}

// UpdateProfile applies a partial profile update.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var out UserResponse
	if err := s.doJSON(ctx, http.MethodPut, "/api/user/profile", req, &out); err != nil {
		return nil, err
	}
	s.setUser(out.User)
	return &out.User, nil
}

// UpdateAvatar sets the avatar URL; an empty URL clears it.
func (s *Session) UpdateAvatar(ctx context.Context, avatarURL string) (*User, error) {
	var out UserResponse
	if err := s.doJSON(ctx, http.MethodPost, "/api/user/avatar", AvatarRequest{AvatarURL: avatarURL}, &out); err != nil {
		return nil, err
	}
	s.setUser(out.User)
	return &out.User, nil
}

// Chat sends a message to the coach. It works signed out too; signed-in
// replies are personalized.
func (s *Session) Chat(ctx context.Context, message string) (string, error) {
	var out ReplyResponse
	if err := s.doJSON(ctx, http.MethodPost, "/api/chat", ChatRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// AnalyzeForm asks the coach to review an exercise photo given as an
// http(s) or data:image/ URL.
func (s *Session) AnalyzeForm(ctx context.Context, image, prompt string) (string, error) {
	var out ReplyResponse
	req := AnalyzeFormRequest{Image: image, Prompt: prompt}
	if err := s.doJSON(ctx, http.MethodPost, "/api/analyze-form", req, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (s *Session) setUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.user = &u
	}
}
