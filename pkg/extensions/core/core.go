// Package core provides the built-in model extension: section indexes,
// profiles, enumerations, classes and associations.
// Importing the package registers the extension with the compiler.
package core

import (
	"github.com/leapstack-labs/leapgraph/pkg/compiler"
)

func init() {
	compiler.RegisterExtension(Core)
}

// Name of the extension.
const Name = "core"

// Group places core processors before every other extension.
var Group = []string{"Core"}

// Core is the built-in extension.
var Core = compiler.NewExtension(Name, Group,
	SectionIndex.Processor(),
	Profile.Processor(),
	Enumeration.Processor(),
	Class.Processor(),
	Association.Processor(),
)
