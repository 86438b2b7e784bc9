package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedLanguage is returned when no profile is registered for a
// language name.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// UnsupportedLanguageError carries the requested name and the names that
// would have resolved.
type UnsupportedLanguageError struct {
	Language  string
	Supported []string
}

func (e *UnsupportedLanguageError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("unsupported language: %q", e.Language)
	}
	return fmt.Sprintf("unsupported language: %q (supported: %s)", e.Language, strings.Join(e.Supported, ", "))
}

// Unwrap lets errors.Is match ErrUnsupportedLanguage.
func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// Registry maps language names to profiles. It is immutable once built
// and safe for concurrent use without locking.
type Registry struct {
	byName map[string]*Profile
	names  []string
}

// NewRegistry builds a registry from profiles. A later profile with the
// same name replaces an earlier one but keeps its original position in
// Names(), so sources can be layered (built-ins, then overrides).
func NewRegistry(profiles ...*Profile) *Registry {
	r := &Registry{
		byName: make(map[string]*Profile, len(profiles)),
	}
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if _, exists := r.byName[p.name]; !exists {
			r.names = append(r.names, p.name)
		}
		r.byName[p.name] = p
	}
	return r
}

// Resolve returns the profile for a language. Lookup is exact and
// case-sensitive.
func (r *Registry) Resolve(language string) (*Profile, error) {
	if p, ok := r.byName[language]; ok {
		return p, nil
	}
	return nil, &UnsupportedLanguageError{Language: language, Supported: r.Names()}
}

// Reverse returns a copy of the code -> pattern table for a language.
func (r *Registry) Reverse(language string) (map[string]string, error) {
	p, err := r.Resolve(language)
	if err != nil {
		return nil, err
	}
	return p.Reverse(), nil
}

// Has reports whether a profile is registered for language.
func (r *Registry) Has(language string) bool {
	_, ok := r.byName[language]
	return ok
}

// Names returns the registered language names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Profiles returns the registered profiles in registration order.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.names)
}
