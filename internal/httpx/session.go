package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const sessionCookie = "sid"

type ctxKey struct{}

// withSession makes sure every request carries a session id, issuing a cookie on first contact.
// secure marks the cookie HTTPS-only.
func withSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return sessionHandler(next, secure)
	}
}

func sessionHandler(next http.Handler, secure bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
