package mockserver

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// tokenIssuer hands out opaque access and refresh tokens and remembers which
// email each belongs to.
type tokenIssuer struct {
	mu      sync.Mutex
	users   map[string]string
	access  map[string]string
	refresh map[string]string
}

func newTokenIssuer(users map[string]string) *tokenIssuer {
	return &tokenIssuer{
		users:   users,
		access:  make(map[string]string),
		refresh: make(map[string]string),
	}
}

// login checks the password when a user table is configured; otherwise any
// non-empty credentials are accepted.
func (t *tokenIssuer) login(email, password string) (access, refresh string, ok bool) {
	if email == "" || password == "" {
		return "", "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.users != nil {
		if want, exists := t.users[email]; !exists || want != password {
			return "", "", false
		}
	}
	access, refresh = t.issueLocked(email)
	return access, refresh, true
}

func (t *tokenIssuer) rotate(refreshToken string) (access, refresh, email string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	email, ok = t.refresh[refreshToken]
	if !ok {
		return "", "", "", false
	}
	delete(t.refresh, refreshToken)
	access, refresh = t.issueLocked(email)
	return access, refresh, email, true
}

func (t *tokenIssuer) issueLocked(email string) (string, string) {
	access := "at_" + uuid.NewString()
	refresh := "rt_" + uuid.NewString()
	t.access[access] = email
	t.refresh[refresh] = email
	return access, refresh
}

func (t *tokenIssuer) revoke(access string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.access, access)
}

// expireAccess invalidates every access token while keeping refresh tokens.
func (t *tokenIssuer) expireAccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.access = make(map[string]string)
}

func (t *tokenIssuer) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	email, ok := t.access[token]
	return email, ok
}

func bearerToken(r *http.Request) string {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token
}
