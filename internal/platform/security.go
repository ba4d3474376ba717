package platform

import "sync"

// SecurityEnv is set to "1" for platform tool runs inside a disabled security scope.
const SecurityEnv = "SITECORE_SECURITY_DISABLED"

// Switcher tracks scopes in which platform security checks are disabled.
// Scopes nest; security is enforced again once every scope is released.
type Switcher struct {
	mu    sync.Mutex
	depth int
}

// Disable opens a scope with security checks disabled. The returned function
// closes it; calling it more than once has no further effect.
func (s *Switcher) Disable() (restore func()) {
	s.mu.Lock()
	s.depth++
	s.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.depth--
			s.mu.Unlock()
		})
	}
}

// Disabled reports whether a disabled scope is open.
func (s *Switcher) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.depth > 0
}
