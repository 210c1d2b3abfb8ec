package http

import (
	"fmt"
	"net/http"
)

// NotFoundHandler answers unmatched routes with the standard JSON error
// envelope, naming the route so misdialled clients see what they asked for.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound,
			fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
}
