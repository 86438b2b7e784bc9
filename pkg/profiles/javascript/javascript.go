// Package javascript provides the built-in JavaScript keyword profile.
package javascript

import "github.com/leapstack-labs/leaptoken/pkg/profile"

// Name is the registry key of the JavaScript profile.
const Name = "JavaScript"

// JavaScript is the built-in JavaScript profile.
var JavaScript = profile.NewProfile(Name).
	Extension("js").
	Comment("//").
	Keyword("function", "F001").
	Keyword("console.log", "IO001").
	Keyword("if", "C001").
	Keyword("else", "C003").
	Keyword("for", "L001").
	Keyword("while", "L002").
	Keyword("return", "RT001").
	Keyword("try", "E001").
	Keyword("catch", "E002").
	Keyword("throw", "E003").
	Keyword("class", "O001").
	Keyword("this", "O002").
	// Declarations
	Keyword("let", "V001").
	Keyword("const", "V002").
	Keyword("var", "V003").
	MustBuild()
