package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Sentinel errors, matched with errors.Is against the typed errors below.
var (
	// ErrUnresolved indicates a pointer whose target does not exist.
	ErrUnresolved = errors.New("unresolved reference")
	// ErrAmbiguous indicates an unqualified path matching more than one element.
	ErrAmbiguous = errors.New("ambiguous reference")
	// ErrDuplicateProcessor indicates two extensions claiming one element kind.
	ErrDuplicateProcessor = errors.New("duplicate processor")
	// ErrIllegalState indicates an operation invalid for the receiver's mode.
	ErrIllegalState = errors.New("illegal state")
	// ErrOrdering indicates processors that cannot be put in a consistent order.
	ErrOrdering = errors.New("processor ordering")
	// ErrUnsupportedElement indicates an element kind with no processor.
	ErrUnsupportedElement = errors.New("unsupported element")
	// ErrInvalidMultiplicity indicates bounds that violate lower <= upper.
	ErrInvalidMultiplicity = errors.New("invalid multiplicity")
	// ErrCompilation is the catch-all for located compile failures.
	ErrCompilation = errors.New("compilation failed")
)

// Located is implemented by errors that point into the source.
type Located interface {
	error
	SourceLocation() *source.Info
}

// LocationOf returns the location carried by err or anything it wraps.
func LocationOf(err error) (*source.Info, bool) {
	var l Located
	if errors.As(err, &l) {
		if loc := l.SourceLocation(); source.IsKnownPtr(loc) {
			return loc, true
		}
	}
	return nil, false
}

// UnresolvedReferenceError is returned when a path or value cannot be found.
type UnresolvedReferenceError struct {
	Kind      string // class, profile, tag, stereotype, type, ...
	Path      string // offending path or value
	Owner     string // owning element, if any
	OwnerKind string // profile when empty
	Location  *source.Info
}

// NewUnresolvedReferenceError creates an UnresolvedReferenceError.
func NewUnresolvedReferenceError(kind, path string, loc *source.Info) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Kind: kind, Path: path, Location: loc}
}

// Message returns the error text without the location prefix.
func (e *UnresolvedReferenceError) Message() string {
	switch {
	case e.Owner != "":
		ownerKind := e.OwnerKind
		if ownerKind == "" {
			ownerKind = "profile"
		}
		return fmt.Sprintf("Can't find %s '%s' in %s '%s'", e.Kind, e.Path, ownerKind, e.Owner)
	case e.Kind == "profile":
		return fmt.Sprintf("Can't find the profile '%s'", e.Path)
	case e.Kind == "":
		return fmt.Sprintf("Can't find the packageable element '%s'", e.Path)
	default:
		return fmt.Sprintf("Can't find %s '%s'", e.Kind, e.Path)
	}
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	return Format(e.Location, e.Message())
}

// SourceLocation implements Located.
func (e *UnresolvedReferenceError) SourceLocation() *source.Info { return e.Location }

// Is reports whether the target matches ErrUnresolved.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolved
}

// AmbiguousReferenceError is returned when imports make a path match several elements.
type AmbiguousReferenceError struct {
	Path     string
	Matches  []string
	Location *source.Info
}

// Error implements the error interface.
func (e *AmbiguousReferenceError) Error() string {
	return Format(e.Location, fmt.Sprintf("Can't resolve element with path '%s' - multiple matches found [%s]",
		e.Path, strings.Join(e.Matches, ", ")))
}

// SourceLocation implements Located.
func (e *AmbiguousReferenceError) SourceLocation() *source.Info { return e.Location }

// Is reports whether the target matches ErrAmbiguous.
func (e *AmbiguousReferenceError) Is(target error) bool {
	return target == ErrAmbiguous
}

// DuplicateProcessorError is returned at registry build time when two
// extensions contribute a processor for the same element kind.
type DuplicateProcessorError struct {
	Kind   string
	First  string // extension that registered the kind first
	Second string
}

// Error implements the error interface.
func (e *DuplicateProcessorError) Error() string {
	return fmt.Sprintf("conflicting processors for element kind %q: extensions %q and %q", e.Kind, e.First, e.Second)
}

// Is reports whether the target matches ErrDuplicateProcessor.
func (e *DuplicateProcessorError) Is(target error) bool {
	return target == ErrDuplicateProcessor
}

// IllegalStateError is returned when an operation is invalid for the
// receiver's current mode, e.g. reading a disabled reference ledger.
type IllegalStateError struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *IllegalStateError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("illegal state: %s", e.Op)
	}
	return fmt.Sprintf("illegal state: %s: %s", e.Op, e.Reason)
}

// Is reports whether the target matches ErrIllegalState.
func (e *IllegalStateError) Is(target error) bool {
	return target == ErrIllegalState
}

// OrderingError is returned when processor prerequisites cannot be satisfied.
type OrderingError struct {
	Kinds  []string
	Reason string
}

// Error implements the error interface.
func (e *OrderingError) Error() string {
	return fmt.Sprintf("could not consistently order processors [%s]: %s", strings.Join(e.Kinds, ", "), e.Reason)
}

// Is reports whether the target matches ErrOrdering.
func (e *OrderingError) Is(target error) bool {
	return target == ErrOrdering
}

// UnsupportedElementError is returned when no processor handles an element kind.
type UnsupportedElementError struct {
	Kind     string
	Path     string
	Location *source.Info
}

// Error implements the error interface.
func (e *UnsupportedElementError) Error() string {
	return Format(e.Location, fmt.Sprintf("No processor registered for element '%s' of kind '%s'", e.Path, e.Kind))
}

// SourceLocation implements Located.
func (e *UnsupportedElementError) SourceLocation() *source.Info { return e.Location }

// Is reports whether the target matches ErrUnsupportedElement.
func (e *UnsupportedElementError) Is(target error) bool {
	return target == ErrUnsupportedElement
}

// InvalidMultiplicityError is returned for bounds with lower > upper or lower < 0.
type InvalidMultiplicityError struct {
	Lower    int64
	Upper    *int64
	Location *source.Info
}

// Error implements the error interface.
func (e *InvalidMultiplicityError) Error() string {
	upper := "*"
	if e.Upper != nil {
		upper = fmt.Sprint(*e.Upper)
	}
	return Format(e.Location, fmt.Sprintf("Invalid multiplicity [%d..%s]", e.Lower, upper))
}

// SourceLocation implements Located.
func (e *InvalidMultiplicityError) SourceLocation() *source.Info { return e.Location }

// Is reports whether the target matches ErrInvalidMultiplicity.
func (e *InvalidMultiplicityError) Is(target error) bool {
	return target == ErrInvalidMultiplicity
}

// CompilationError is a located failure raised by an element processor.
type CompilationError struct {
	Location *source.Info
	Message  string
	Cause    error
}

// Errorf creates a CompilationError with a formatted message.
func Errorf(loc *source.Info, format string, args ...any) *CompilationError {
	return &CompilationError{Location: loc, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *CompilationError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg += ": " + e.Cause.Error()
		}
	}
	return Format(e.Location, msg)
}

// Unwrap returns the underlying error.
func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// SourceLocation implements Located.
func (e *CompilationError) SourceLocation() *source.Info { return e.Location }

// Is reports whether the target matches ErrCompilation.
func (e *CompilationError) Is(target error) bool {
	return target == ErrCompilation
}
