package logging

import (
	"slices"
	"sync"
)

// Settings is the debug-logging state shared between an instance's Logger and
// the SetDebugLogging handler. Changes are visible to every holder at once.
type Settings struct {
	categories []string
	mu         sync.RWMutex
	debug      bool
}

// NewSettings creates settings with debug logging on or off and no category
// filter.
func NewSettings(debug bool) *Settings {
	return &Settings{debug: debug}
}

// Set replaces the debug flag and the category filter in one step.
// An empty categories list removes the filter.
func (s *Settings) Set(debug bool, categories []string) {
	filter := slices.Clone(categories)
	s.mu.Lock()
	s.debug = debug
	s.categories = filter
	s.mu.Unlock()
}

// DebugEnabled reports whether debug logging is on.
func (s *Settings) DebugEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

// Categories returns a copy of the active category filter.
func (s *Settings) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Allows reports whether messages of the given category pass the filter.
func (s *Settings) Allows(category string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories) == 0 || slices.Contains(s.categories, category)
}
