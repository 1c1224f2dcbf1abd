package store

import (
	"sync"

	"github.com/mithrel/gitnotes/pkg/api"
)

// Session is the authentication slice.
type Session struct {
	mu            sync.RWMutex
	authenticated bool
	token         string
	user          api.User
}

func (s *Session) set(token string, user api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.token = token
	s.user = user
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.token = ""
	s.user = api.User{}
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) User() api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Selection is the selected-repository slice.
type Selection struct {
	mu  sync.RWMutex
	ref api.RepoRef
}

func (s *Selection) Get() api.RepoRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ref
}

func (s *Selection) set(ref api.RepoRef) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.ref != ref
	s.ref = ref
	return changed
}

// Prefs holds UI preferences that survive restarts.
type Prefs struct {
	mu          sync.RWMutex
	theme       string
	sidebarOpen bool
}

func (p *Prefs) Theme() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

func (p *Prefs) SidebarOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sidebarOpen
}
