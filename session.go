package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aquilax/eightd/problem"
)

const mockUserHeader = "X-Mock-User-Id"

// Session is what a handler knows about the caller.
type Session struct {
	ln     *Language
	userID problem.UserID
}

type sessionKey struct{}

func NewSession(ln *Language, userID problem.UserID) *Session {
	return &Session{ln: ln, userID: userID}
}

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// sessionFrom never returns nil so handlers outside the middleware still work.
func sessionFrom(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return NewSession(nil, 0)
}

// sessionMiddleware picks the language from Accept-Language and the user
// from the mock user header, falling back to the configured user.
func (l *EightD) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := NewSession(l.tp.Negotiate(r.Header.Get("Accept-Language")), l.config.MockUserID)
		if v := r.Header.Get(mockUserHeader); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id < 1 {
				appHandler(func(w http.ResponseWriter, r *http.Request) error {
					return &HTTPError{Code: http.StatusBadRequest, Message: "Invalid " + mockUserHeader, Err: err}
				}).ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
				return
			}
			s.userID = id
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
	})
}

func (s *Session) Lang(text string) string {
	return s.ln.Lang(text)
}

func (s *Session) UserID() problem.UserID {
	return s.userID
}

func (s *Session) render(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
