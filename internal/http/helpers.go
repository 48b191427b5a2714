package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrInvalidID
	}
	return id, nil
}

// queryInt returns the integer value of a query parameter, or 0 when it is
// missing or not a number.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return v
}
