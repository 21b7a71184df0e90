package diag

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Prefix opens every rendered compiler diagnostic.
const Prefix = "COMPILATION error"

// Format renders "COMPILATION error[ at <location>][: <message>]". The location
// clause is dropped when loc is nil or unknown, the message clause when msg is
// empty.
func Format(loc *source.Info, msg string) string {
	var b strings.Builder
	b.WriteString(Prefix)
	if source.IsKnownPtr(loc) {
		b.WriteString(" at ")
		b.WriteString(loc.String())
	}
	if msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Warning is an advisory diagnostic. Warnings never abort compilation.
type Warning struct {
	Location *source.Info `json:"location,omitempty" msgpack:"location,omitempty"`
	Message  string       `json:"message" msgpack:"message"`
	Severity Severity     `json:"severity" msgpack:"severity"`
}

// NewWarning creates a warning at loc. A nil loc is allowed.
func NewWarning(loc *source.Info, msg string) Warning {
	return Warning{Location: loc, Message: msg, Severity: SeverityWarning}
}

func (w Warning) String() string {
	return Format(w.Location, w.Message)
}

// SortWarnings orders ws by location, then message. Warnings without a
// known location sort last. The sort is stable.
func SortWarnings(ws []Warning) {
	slices.SortStableFunc(ws, func(a, b Warning) int {
		ak, bk := source.IsKnownPtr(a.Location), source.IsKnownPtr(b.Location)
		switch {
		case ak && bk:
			if c := source.Compare(*a.Location, *b.Location); c != 0 {
				return c
			}
		case ak:
			return -1
		case bk:
			return 1
		}
		return strings.Compare(a.Message, b.Message)
	})
}
