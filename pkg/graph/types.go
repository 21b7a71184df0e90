package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Built-in primitive type names.
const (
	String     = "String"
	Integer    = "Integer"
	Float      = "Float"
	Decimal    = "Decimal"
	Number     = "Number"
	Boolean    = "Boolean"
	Date       = "Date"
	StrictDate = "StrictDate"
	DateTime   = "DateTime"
	Binary     = "Binary"
)

// PrimitiveNames lists the primitive types every model starts with.
var PrimitiveNames = []string{String, Integer, Float, Decimal, Number, Boolean, Date, StrictDate, DateTime, Binary}

// PrimitiveType is a built-in scalar type.
type PrimitiveType struct {
	node
	name string
}

func newPrimitive(name string) *PrimitiveType {
	return &PrimitiveType{node: newNode(nil), name: name}
}

func (p *PrimitiveType) Path() string { return p.name }
func (p *PrimitiveType) Kind() string { return "primitive" }
func (p *PrimitiveType) isType()      {}

// GenericType is a raw type applied to ordered type arguments.
// Instances are synthetic and have no location.
type GenericType struct {
	node
	RawType       Type
	TypeArguments []*GenericType
}

// NewGenericType wraps raw with a copy of args. Argument order is positional
// and is never validated against the raw type's parameters here.
func NewGenericType(raw Type, args ...*GenericType) *GenericType {
	return &GenericType{
		node:          newNode(nil),
		RawType:       raw,
		TypeArguments: slices.Clone(args),
	}
}

// String renders the type path with its arguments, e.g. List<String>.
func (g *GenericType) String() string {
	if g == nil || g.RawType == nil {
		return "<nil>"
	}
	if len(g.TypeArguments) == 0 {
		return g.RawType.Path()
	}
	args := make([]string, len(g.TypeArguments))
	for i, a := range g.TypeArguments {
		args[i] = a.String()
	}
	return g.RawType.Path() + "<" + strings.Join(args, ", ") + ">"
}

// Multiplicity is an occurrence range. A nil Upper means unbounded.
type Multiplicity struct {
	Lower int64
	Upper *int64
}

// Common multiplicities.
var (
	PureOne  = Bounded(1, 1)
	ZeroOne  = Bounded(0, 1)
	ZeroMany = Unbounded(0)
	OneMany  = Unbounded(1)
)

// Bounded returns [lower..upper] without validation.
func Bounded(lower, upper int64) Multiplicity {
	return Multiplicity{Lower: lower, Upper: &upper}
}

// Unbounded returns [lower..*].
func Unbounded(lower int64) Multiplicity {
	return Multiplicity{Lower: lower}
}

// NewMultiplicity validates 0 <= lower <= upper. loc is only used to locate
// the error.
func NewMultiplicity(lower int64, upper *int64, loc *source.Info) (Multiplicity, error) {
	if lower < 0 || (upper != nil && lower > *upper) {
		return Multiplicity{}, &diag.InvalidMultiplicityError{Lower: lower, Upper: upper, Location: loc}
	}
	m := Multiplicity{Lower: lower}
	if upper != nil {
		u := *upper
		m.Upper = &u
	}
	return m, nil
}

// UpperBound returns the upper bound and whether one is set.
func (m Multiplicity) UpperBound() (int64, bool) {
	if m.Upper == nil {
		return 0, false
	}
	return *m.Upper, true
}

// IsUnbounded reports whether there is no upper bound.
func (m Multiplicity) IsUnbounded() bool { return m.Upper == nil }

// IsToOne reports whether the range is [0..1] or [1].
func (m Multiplicity) IsToOne() bool { return m.Upper != nil && *m.Upper == 1 }

// Equal compares bounds by value.
func (m Multiplicity) Equal(o Multiplicity) bool {
	if m.Lower != o.Lower || (m.Upper == nil) != (o.Upper == nil) {
		return false
	}
	return m.Upper == nil || *m.Upper == *o.Upper
}

func (m Multiplicity) String() string {
	switch {
	case m.Upper == nil && m.Lower == 0:
		return "[*]"
	case m.Upper == nil:
		return fmt.Sprintf("[%d..*]", m.Lower)
	case *m.Upper == m.Lower:
		return fmt.Sprintf("[%d]", m.Lower)
	default:
		return fmt.Sprintf("[%d..%d]", m.Lower, *m.Upper)
	}
}
