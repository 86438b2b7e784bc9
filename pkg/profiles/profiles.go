// Package profiles collects the built-in language profiles.
package profiles

import (
	"github.com/leapstack-labs/leaptoken/pkg/profile"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/cpp"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/golang"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/javascript"
	"github.com/leapstack-labs/leaptoken/pkg/profiles/python"
)

// DefaultLanguage is used when a record or command does not name one.
const DefaultLanguage = python.Name

// Builtin returns the built-in profiles in a stable order.
func Builtin() []*profile.Profile {
	return []*profile.Profile{
		python.Python,
		javascript.JavaScript,
		golang.Go,
		cpp.CPP,
	}
}

// Registry returns a registry containing only the built-in profiles.
func Registry() *profile.Registry {
	return profile.NewRegistry(Builtin()...)
}
