package http

import (
	"net/http"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

var sampleCourses = core.SampleCourses()

// handleCourses pages through the fixed sample catalog. It answers with the
// bare page object, without the success envelope.
func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	page := core.PaginateCourses(sampleCourses, queryInt(r, "per_page"), queryInt(r, "page"))
	writeJSON(w, http.StatusOK, page)
}
