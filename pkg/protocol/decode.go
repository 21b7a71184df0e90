package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Factory creates an empty element for a kind.
type Factory interface {
	New(kind Kind) (Element, bool)
}

// Kinds is a Factory backed by a map of constructors.
type Kinds map[Kind]func() Element

// New implements Factory.
func (k Kinds) New(kind Kind) (Element, bool) {
	f, ok := k[kind]
	if !ok {
		return nil, false
	}
	return f(), true
}

// UnknownKindError is returned when a document names a kind no factory knows.
type UnknownKindError struct {
	Kind Kind
	Line int
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("line %d: unknown element type %q", e.Line, e.Kind)
}

type document struct {
	Elements []yaml.Node `yaml:"elements"`
}

type header struct {
	Type Kind `yaml:"_type"`
}

// Decode reads every YAML (or JSON) document from r. Each document has an
// "elements" list whose entries are dispatched on their "_type" field.
func Decode(r io.Reader, f Factory) ([]Element, error) {
	dec := yaml.NewDecoder(r)

	var out []Element
	for {
		var doc document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		for i := range doc.Elements {
			el, err := decodeElement(&doc.Elements[i], f)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
		}
	}
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string, f Factory) ([]Element, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	els, err := Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return els, nil
}

func decodeElement(n *yaml.Node, f Factory) (Element, error) {
	var h header
	if err := n.Decode(&h); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	if h.Type == "" {
		return nil, fmt.Errorf("line %d: element is missing _type", n.Line)
	}

	el, ok := f.New(h.Type)
	if !ok {
		return nil, &UnknownKindError{Kind: h.Type, Line: n.Line}
	}
	if err := n.Decode(el); err != nil {
		return nil, fmt.Errorf("line %d: decoding %s: %w", n.Line, h.Type, err)
	}
	return el, nil
}
