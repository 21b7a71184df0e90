package graph

import "github.com/leapstack-labs/leapgraph/pkg/source"

// Section is a block of elements sharing a parser and a set of imports.
type Section struct {
	Parser   string
	Imports  []string
	Elements []string
}

// SectionIndex records how the elements of one source were grouped.
type SectionIndex struct {
	node
	path     string
	Sections []Section
}

// NewSectionIndex creates a section index.
func NewSectionIndex(path string, loc *source.Info, sections []Section) *SectionIndex {
	return &SectionIndex{node: newNode(loc), path: path, Sections: sections}
}

func (s *SectionIndex) Path() string { return s.path }
func (s *SectionIndex) Kind() string { return "sectionIndex" }
