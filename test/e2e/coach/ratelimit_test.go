package coach_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/coach/pkg/coachsdk"
)

// TestRateLimitLogin verifies the strict limit (5 req/min per address and
// email) on the login endpoint.
func TestRateLimitLogin(t *testing.T) {
	baseURL := setupCoachContainerWithDefaultRateLimits(t)
	client := coachsdk.NewClient(baseURL)

	for i := range 5 {
		_, err := client.NewSession().Login(t.Context(), "target@csun.edu", "wrong-password")
		requireStatus(t, err, http.StatusUnauthorized, "Attempt before the limit")
		require.NotContains(t, err.Error(), "429", "Should not be rate limited yet (request %d)", i+1)
	}

	_, err := client.NewSession().Login(t.Context(), "target@csun.edu", "wrong-password")
	requireStatus(t, err, http.StatusTooManyRequests, "Sixth attempt")

	// Another email from the same address is counted separately.
	_, err = client.NewSession().Login(t.Context(), "other@csun.edu", "wrong-password")
	requireStatus(t, err, http.StatusUnauthorized, "Different email")
}
