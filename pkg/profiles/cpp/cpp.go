// Package cpp provides the built-in C++ keyword profile.
package cpp

import "github.com/leapstack-labs/leaptoken/pkg/profile"

// Name is the registry key of the C++ profile.
const Name = "C++"

// CPP is the built-in C++ profile.
//
// "int main()" is declared before "int" so the entry point wins over the
// data type.
var CPP = profile.NewProfile(Name).
	Extension("cpp").
	Comment("//").
	Keyword("#include", "I001").
	Keyword("int main()", "F001").
	Keyword("std::cout", "IO001").
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
	// Data types
	Keyword("int", "DT001").
	Keyword("float", "DT002").
	Keyword("string", "DT003").
	Keyword("vector", "DT004").
	Keyword("map", "DT005").
	MustBuild()
