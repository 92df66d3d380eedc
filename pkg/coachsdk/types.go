package coachsdk

import "time"

// ============================================================================
// Accounts
// ============================================================================

// User is the public view of an account. It never carries credentials.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	HeightCM        *int      `json:"height_cm,omitempty"`
	WeightKG        *float64  `json:"weight_kg,omitempty"`
	FitnessGoal     *string   `json:"fitness_goal,omitempty"`
	ExperienceLevel *string   `json:"experience_level,omitempty"`
	AvatarURL       *string   `json:"avatar_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Name            string   `json:"name"`
	HeightCM        *int     `json:"height_cm,omitempty"`
	WeightKG        *float64 `json:"weight_kg,omitempty"`
	FitnessGoal     *string  `json:"fitness_goal,omitempty"`
	ExperienceLevel *string  `json:"experience_level,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup, login and refresh. The refresh token
// travels separately in an HttpOnly cookie.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User User `json:"user"`
}

// UpdateProfileRequest is a partial update; omitted fields are unchanged and
// an empty string clears fitness_goal or experience_level.
type UpdateProfileRequest struct {
	Name            *string  `json:"name,omitempty"`
	HeightCM        *int     `json:"height_cm,omitempty"`
	WeightKG        *float64 `json:"weight_kg,omitempty"`
	FitnessGoal     *string  `json:"fitness_goal,omitempty"`
	ExperienceLevel *string  `json:"experience_level,omitempty"`
}

// AvatarRequest sets (or, when empty, clears) the avatar.
type AvatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}

// ============================================================================
// Coach
// ============================================================================

// ChatRequest is the body of POST /api/chat. Prompt is accepted as an alias
// of Message.
type ChatRequest struct {
	Message string `json:"message"`
	Prompt  string `json:"prompt,omitempty"`
}

// AnalyzeFormRequest is the body of POST /api/analyze-form.
type AnalyzeFormRequest struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt,omitempty"`
}

// TrainerRequest is the body of POST /api/trainer. The first message's
// content is used when Prompt is empty.
type TrainerRequest struct {
	Prompt   string           `json:"prompt,omitempty"`
	Messages []TrainerMessage `json:"messages,omitempty"`
}

type TrainerMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

type ReplyResponse struct {
	Reply string `json:"reply"`
}

// ============================================================================
// System
// ============================================================================

// OKResponse is returned by endpoints with nothing else to say.
type OKResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	OK   bool `json:"ok"`
	Mock bool `json:"mock"`
}

// DiagResponse is returned by GET /api/diag.
type DiagResponse struct {
	OK    bool   `json:"ok"`
	Mock  bool   `json:"mock"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// ProbeResponse is returned by /livez and /readyz.
type ProbeResponse struct {
	Status  string       `json:"status"`
	Uptime  string       `json:"uptime"`
	Version string       `json:"version"`
	Checks  *ProbeChecks `json:"checks,omitempty"`
}

type ProbeChecks struct {
	Database string `json:"database"`
	Ledger   string `json:"ledger"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
