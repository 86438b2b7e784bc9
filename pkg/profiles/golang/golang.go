// Package golang provides the built-in Go keyword profile.
package golang

import "github.com/leapstack-labs/leaptoken/pkg/profile"

// Name is the registry key of the Go profile.
const Name = "Go"

// Go is the built-in Go profile.
var Go = profile.NewProfile(Name).
	Extension("go").
	Comment("//").
	Keyword("package", "I001").
	Keyword("func", "F001").
	Keyword("fmt.Println", "IO001").
	Keyword("for", "L001").
	Keyword("if", "C001").
	Keyword("else", "C003").
	Keyword("return", "RT001").
	Keyword("defer", "R001").
	Keyword("import", "I002").
	Keyword("struct", "O001").
	Keyword("var", "V001").
	Keyword("const", "V002").
	MustBuild()
