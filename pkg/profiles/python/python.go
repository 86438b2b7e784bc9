// Package python provides the built-in Python keyword profile.
package python

import "github.com/leapstack-labs/leaptoken/pkg/profile"

// Name is the registry key of the Python profile.
const Name = "Python"

// Python is the built-in Python profile.
var Python = profile.NewProfile(Name).
	Extension("py").
	Comment("#").
	// Imports and definitions
	Keyword("import", "I001").
	Keyword("def", "F001").
	// Loops
	Keyword("for", "L001").
	Keyword("while", "L002").
	// Conditionals
	Keyword("if", "C001").
	Keyword("elif", "C002").
	Keyword("else", "C003").
	Keyword("print", "IO001").
	Keyword("return", "RT001").
	// Exceptions
	Keyword("try", "E001").
	Keyword("except", "E002").
	Keyword("raise", "E003").
	// Objects
	Keyword("class", "O001").
	Keyword("self", "O002").
	Keyword("with", "R001").
	// File system
	Keyword("open", "FS001").
	Keyword("read", "FS002").
	Keyword("write", "FS003").
	Keyword("append", "FS004").
	// Data types
	Keyword("int", "DT001").
	Keyword("float", "DT002").
	Keyword("str", "DT003").
	Keyword("list", "DT004").
	Keyword("dict", "DT005").
	MustBuild()
