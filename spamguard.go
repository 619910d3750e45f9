package main

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// SpamGuard lets a client post once per duration. A zero duration disables it.
type SpamGuard struct {
	duration time.Duration
	posts    map[string]time.Time
	mutex    sync.Mutex
	now      func() time.Time
}

func NewSpamGuard(duration time.Duration) *SpamGuard {
	return &SpamGuard{
		duration: duration,
		posts:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (sg *SpamGuard) CanPost(id string) bool {
	if sg.duration <= 0 {
		return true
	}
	now := sg.now()
	sg.mutex.Lock()
	defer sg.mutex.Unlock()
	sg.clean(now)
	if expires, found := sg.posts[id]; found && expires.After(now) {
		return false
	}
	sg.posts[id] = now.Add(sg.duration)
	return true
}

func (sg *SpamGuard) clean(now time.Time) {
	for key, expires := range sg.posts {
		if !expires.After(now) {
			delete(sg.posts, key)
		}
	}
}

// Middleware rejects POST requests from clients that posted too recently.
func (sg *SpamGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !sg.CanPost(remoteHost(r)) {
			appHandler(func(w http.ResponseWriter, r *http.Request) error {
				return &HTTPError{Code: http.StatusTooManyRequests, Message: "Please wait before posting again"}
			}).ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
