// Package source describes where a protocol construct came from.
package source

import (
	"fmt"
	"strconv"
	"strings"
)

// Info is a span in a named source. It is a comparable value so it can be
// used directly as a map key; two spans are the same location when every
// field matches.
type Info struct {
	SourceID    string `yaml:"sourceId" json:"sourceId" msgpack:"sourceId"`
	StartLine   int    `yaml:"startLine" json:"startLine" msgpack:"startLine"`
	StartColumn int    `yaml:"startColumn" json:"startColumn" msgpack:"startColumn"`
	EndLine     int    `yaml:"endLine" json:"endLine" msgpack:"endLine"`
	EndColumn   int    `yaml:"endColumn" json:"endColumn" msgpack:"endColumn"`
}

// Unknown is the sentinel for constructs without a meaningful origin.
var Unknown = Info{}

// New builds a span.
func New(sourceID string, startLine, startColumn, endLine, endColumn int) Info {
	return Info{
		SourceID:    sourceID,
		StartLine:   startLine,
		StartColumn: startColumn,
		EndLine:     endLine,
		EndColumn:   endColumn,
	}
}

// IsKnown reports whether the span points somewhere.
func (i Info) IsKnown() bool {
	return i != Unknown
}

// IsKnownPtr reports whether p is non-nil and not the Unknown sentinel.
func IsKnownPtr(p *Info) bool {
	return p != nil && p.IsKnown()
}

// String renders the span compactly: [4:29] for a point, [6:34-42] for a
// single line range and [5:1-7:1] otherwise, prefixed by the source id when
// one is set.
func (i Info) String() string {
	var b strings.Builder
	if i.SourceID != "" {
		b.WriteString(i.SourceID)
		b.WriteByte(':')
	}
	b.WriteByte('[')
	b.WriteString(strconv.Itoa(i.StartLine))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(i.StartColumn))
	switch {
	case i.StartLine == i.EndLine && i.StartColumn == i.EndColumn:
	case i.StartLine == i.EndLine:
		fmt.Fprintf(&b, "-%d", i.EndColumn)
	default:
		fmt.Fprintf(&b, "-%d:%d", i.EndLine, i.EndColumn)
	}
	b.WriteByte(']')
	return b.String()
}

// Compare orders spans by source, then start, then end.
func Compare(a, b Info) int {
	if c := strings.Compare(a.SourceID, b.SourceID); c != 0 {
		return c
	}
	for _, d := range [...]int{
		a.StartLine - b.StartLine,
		a.StartColumn - b.StartColumn,
		a.EndLine - b.EndLine,
		a.EndColumn - b.EndColumn,
	} {
		if d != 0 {
			if d < 0 {
				return -1
			}
			return 1
		}
	}
	return 0
}
