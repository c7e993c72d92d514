package server

import (
	"net/http"
	"strings"
)

// routedMethods is every verb the API mux registers; preflight responses
// advertise exactly this set.
var routedMethods = strings.Join([]string{
	http.MethodGet,
	http.MethodPost,
	http.MethodDelete,
	http.MethodOptions,
}, ", ")

// withCORS stamps allow headers for origins on the allow list and answers
// preflight requests itself, so OPTIONS never reaches the mux. Requests from
// unlisted origins pass through without allow headers (the browser enforces
// the block); their preflights are refused outright.
func withCORS(origins map[string]struct{}, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		_, allowed := origins[origin]

		if origin != "" {
			w.Header().Add("Vary", "Origin")
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", routedMethods)
				h.Set("Access-Control-Allow-Headers", "Content-Type")
			}
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !allowed {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
