package client

import (
	"encoding/json"
	"sync"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
)

// Profile is the signed-in user as the client sees it.
type Profile struct {
	Sub       string `json:"sub"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// SessionStore holds the authenticated session and persists it, so a
// restart restores the signed-in state without another login.
type SessionStore struct {
	mu         sync.RWMutex
	store      Storage
	token      string
	user       *Profile
	persistErr error
	subs       []func()
}

func NewSessionStore(store Storage) *SessionStore {
	return &SessionStore{store: store}
}

// Restore loads persisted credentials. Partial or corrupt state wipes
// both keys and leaves the session unauthenticated; it never errors.
func (s *SessionStore) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, okT := s.store.Get(StorageKeyToken)
	raw, okU := s.store.Get(StorageKeyUser)
	if !okT || !okU || token == "" {
		s.clearLocked()
		return
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Email == "" {
		s.clearLocked()
		return
	}
	if !models.ValidRole(p.Role) {
		p.Role = models.RoleCustomer
	}
	s.token = token
	s.user = &p
}

// Login stores the profile and token. A missing or unknown role
// defaults to CUSTOMER; a missing last name stays empty rather than
// blocking sign-in.
func (s *SessionStore) Login(p Profile, token string) {
	if !models.ValidRole(p.Role) {
		p.Role = models.RoleCustomer
	}
	s.mu.Lock()
	s.token = token
	s.user = &p
	s.persistErr = s.store.Set(StorageKeyToken, token)
	if raw, err := json.Marshal(p); err == nil {
		if werr := s.store.Set(StorageKeyUser, string(raw)); werr != nil && s.persistErr == nil {
			s.persistErr = werr
		}
	}
	s.mu.Unlock()
	s.notify()
}

// PersistenceErr reports whether the last login or logout failed to
// reach the backing store. The in-memory session is valid either way;
// a read-only state file just means it will not survive a restart.
func (s *SessionStore) PersistenceErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistErr
}

// Logout clears memory and persisted credentials.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) clearLocked() {
	s.token = ""
	s.user = nil
	s.persistErr = s.store.Delete(StorageKeyToken)
	if derr := s.store.Delete(StorageKeyUser); derr != nil && s.persistErr == nil {
		s.persistErr = derr
	}
}

// ExpireTo ends the session and routes to the login view. Every HTTP
// 401 funnels here, whatever surface saw it.
func (s *SessionStore) ExpireTo(nav Navigator) {
	s.Logout()
	if nav != nil {
		nav.NavigateTo(ViewLogin)
	}
}

func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// User returns a copy of the profile, nil when signed out.
func (s *SessionStore) User() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// CurrentRole is CUSTOMER whenever no better answer exists.
func (s *SessionStore) CurrentRole() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || !models.ValidRole(s.user.Role) {
		return models.RoleCustomer
	}
	return s.user.Role
}

// Theme is cosmetic state that survives logout.
func (s *SessionStore) Theme() string {
	v, _ := s.store.Get(StorageKeyTheme)
	return v
}

func (s *SessionStore) SetTheme(theme string) {
	s.store.Set(StorageKeyTheme, theme)
}

// Subscribe registers a callback fired after every login or logout.
func (s *SessionStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *SessionStore) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}
