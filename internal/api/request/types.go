package request

import (
	"net/http"
	"strconv"

	"github.com/mcoot/wordduel/internal/api/apierr"
)

// MaxLimit caps the limit query parameter
const MaxLimit = 1000

// Limit parses the optional limit query parameter. Zero means the server default.
func Limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxLimit {
		return 0, apierr.NewInvalidRequestError("limit must be an integer between 1 and 1000")
	}
	return n, nil
}
