package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authtoken"
)

const maxLoginBody = 1 << 16

type loginRequest struct {
	Auth struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	} `json:"auth"`
}

// TokenHandler exchanges {"auth":{"identifier":..,"password":..}} for a token.
// It answers 201 with {"jwt":..} on success, 404 for unknown identifiers and
// wrong passwords, 429 for throttled identifiers and 400 for unreadable
// bodies.
func TokenHandler[E any](auth *authtoken.Authenticator[E]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req loginRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
		if err := dec.Decode(&req); err != nil || req.Auth.Identifier == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		tok, _, err := auth.Login(r.Context(), req.Auth.Identifier, req.Auth.Password)
		if err != nil {
			switch {
			case errors.Is(err, authtoken.ErrInvalidCredentials):
				http.Error(w, "not found", http.StatusNotFound)
				return
			case errors.Is(err, authtoken.ErrLoginThrottled):
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(tok)
	})
}
