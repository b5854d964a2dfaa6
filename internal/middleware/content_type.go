package middleware

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/rummage/items/internal/models"
)

// RequireJSON rejects request bodies declared as anything but application/json.
// Requests without a Content-Type header are let through.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			json.NewEncoder(w).Encode(models.NewErrorResponse("Content-Type must be application/json"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
