package auth

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"
)

// Session sources.
const (
	SourcePassword = "password"
	SourceGitHub   = "github"
)

const (
	sessionCookie = "civicassist_session"
	sessionTTL    = 24 * time.Hour
)

// Session is one logged-in portal user.
type Session struct {
	Username  string
	Source    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager authenticates portal users and tracks their sessions.
// Password logins check the configured admin account; citizen logins
// arrive through the GitHub flow in github.go.
type Manager struct {
	adminUser string
	adminPass string
	github    *githubOAuth

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager for the given admin account.
func NewManager(adminUser, adminPass string) *Manager {
	m := &Manager{
		adminUser: adminUser,
		adminPass: adminPass,
		sessions:  make(map[string]*Session),
	}

	go m.cleanupExpiredSessions()

	return m
}

// Authenticate checks admin credentials. An unset admin password
// locks password login out entirely.
func (m *Manager) Authenticate(username, password string) bool {
	if m.adminPass == "" {
		return false
	}
	return username == m.adminUser && password == m.adminPass
}

// SetSession creates a session and hands the token to the browser.
func (m *Manager) SetSession(w http.ResponseWriter, username, source string) {
	token := generateToken()

	session := &Session{
		Username:  username,
		Source:    source,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(sessionTTL),
	}

	m.mu.Lock()
	m.sessions[token] = session
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearSession drops the session server-side and expires the cookie.
func (m *Manager) ClearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		m.mu.Lock()
		delete(m.sessions, cookie.Value)
		m.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSession returns the live session for the request, or nil.
func (m *Manager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}

	m.mu.RLock()
	session, exists := m.sessions[cookie.Value]
	m.mu.RUnlock()

	if !exists {
		return nil
	}

	if time.Now().After(session.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, cookie.Value)
		m.mu.Unlock()
		return nil
	}

	return session
}

// IsAuthenticated checks if the request carries a valid session.
func (m *Manager) IsAuthenticated(r *http.Request) bool {
	return m.GetSession(r) != nil
}

// GetUsername returns the session username, or "".
func (m *Manager) GetUsername(r *http.Request) string {
	if session := m.GetSession(r); session != nil {
		return session.Username
	}
	return ""
}

// IsAdmin reports whether the request's session belongs to the
// configured admin account.
func (m *Manager) IsAdmin(r *http.Request) bool {
	session := m.GetSession(r)
	return session != nil && session.Source == SourcePassword && session.Username == m.adminUser
}

func generateToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// cleanupExpiredSessions removes old sessions periodically.
func (m *Manager) cleanupExpiredSessions() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for token, session := range m.sessions {
			if now.After(session.ExpiresAt) {
				delete(m.sessions, token)
			}
		}
		m.mu.Unlock()
	}
}
