package compiler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgraph/internal/testutil"
	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

func newTestCompiler(t *testing.T, cfg Config, exts ...Extension) *Compiler {
	t.Helper()
	if len(exts) == 0 {
		exts = []Extension{testExtension()}
	}
	reg, err := NewRegistry(exts)
	require.NoError(t, err)
	cfg.Logger = testutil.NewTestLogger(t)
	return New(reg, cfg)
}

func personModel() []protocol.Element {
	person := class("example", "Person", at(5, 1, 40))
	person.Properties = []protocol.Property{
		stringProperty("name", 1, intPtr(1), at(6, 3, 20)),
		stringProperty("nicknames", 0, nil, at(7, 3, 25)),
	}
	person.TaggedValues = []protocol.TaggedValue{{
		Tag:   protocol.TagPtr{Profile: "example::Profile", Value: "doc", SourceInformation: at(5, 30, 35), ProfileSourceInformation: at(5, 10, 28)},
		Value: "a person",
	}}
	firm := class("example", "Firm", at(9, 1, 30))
	firm.SuperTypes = []protocol.ElementPointer{{Type: "CLASS", Path: "example::Person", SourceInformation: at(9, 20, 34)}}

	// class listed before the profile it depends on
	return []protocol.Element{person, firm, profile("example", "Profile", at(1, 1, 20), "doc")}
}

func TestCompile(t *testing.T) {
	c := newTestCompiler(t, Config{CollectReferences: true})

	res, err := c.Compile(context.Background(), personModel())
	require.NoError(t, err)

	person, ok := res.Model.Class("example::Person")
	require.True(t, ok)
	require.Len(t, person.Properties, 2)
	assert.Equal(t, "name", person.Properties[0].Name)
	assert.True(t, person.Properties[0].Multiplicity.Equal(graph.PureOne))
	assert.True(t, person.Properties[1].Multiplicity.Equal(graph.ZeroMany))
	require.Len(t, person.TaggedValues, 1)
	assert.Equal(t, "a person", person.TaggedValues[0].Value)

	firm, ok := res.Model.Class("example::Firm")
	require.True(t, ok)
	require.Len(t, firm.SuperTypes, 1)
	assert.Same(t, person, firm.SuperTypes[0].RawType)

	assert.Same(t, person, res.Nodes["example::Person"])
	assert.True(t, res.Model.Contains("meta::pure::profiles::doc"), "builtin profiles are always present")

	refs, err := res.References()
	require.NoError(t, err)
	assert.Len(t, refs[person], 1, "Firm's supertype pointer")
	p, _ := res.Model.Profile("example::Profile")
	assert.Len(t, refs[p], 1)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
}

func TestCompile_ReferencesDisabled(t *testing.T) {
	c := newTestCompiler(t, Config{})

	res, err := c.Compile(context.Background(), personModel())
	require.NoError(t, err)

	_, err = res.References()
	var ise *diag.IllegalStateError
	require.ErrorAs(t, err, &ise)
}

func TestCompile_UnresolvedTagAborts(t *testing.T) {
	c := newTestCompiler(t, Config{CollectReferences: true})

	elements := personModel()
	person := elements[0].(*protocol.Class)
	person.TaggedValues[0].Tag.Value = "missing"

	res, err := c.Compile(context.Background(), elements)
	assert.Nil(t, res)
	var ure *diag.UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "Can't find tag 'missing' in profile 'example::Profile'", ure.Message())
	assert.Equal(t, at(5, 30, 35), ure.Location)
}

func TestCompile_UnsupportedElement(t *testing.T) {
	c := newTestCompiler(t, Config{})

	db := &protocol.Database{Packageable: protocol.Packageable{Package: "store", Name: "DB", SourceInformation: at(1, 1, 5)}}
	_, err := c.Compile(context.Background(), []protocol.Element{db})

	var ue *diag.UnsupportedElementError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "store::DB", ue.Path)
	assert.ErrorIs(t, err, diag.ErrUnsupportedElement)
}

func TestCompile_DuplicateElement(t *testing.T) {
	c := newTestCompiler(t, Config{})

	_, err := c.Compile(context.Background(), []protocol.Element{
		class("example", "Person", at(1, 1, 10)),
		class("example", "Person", at(2, 1, 10)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicated element 'example::Person'")
}

func TestCompile_BuiltinCollision(t *testing.T) {
	c := newTestCompiler(t, Config{})

	_, err := c.Compile(context.Background(), []protocol.Element{profile("meta::pure::profiles", "doc", nil)})
	assert.ErrorIs(t, err, diag.ErrCompilation)
}

func TestCompile_PhaseOrder(t *testing.T) {
	const n = 20
	var (
		built     atomic.Int64
		violation atomic.Bool
	)
	ext := NewExtension("order", []string{"Core"},
		&Processor{
			Kind: "early",
			Build: func(protocol.Element, *Context) (graph.Node, error) {
				built.Add(1)
				return nil, nil
			},
		},
		&Processor{
			Kind:          "late",
			Prerequisites: []protocol.Kind{"early"},
			Build: func(protocol.Element, *Context) (graph.Node, error) {
				if built.Load() != n {
					violation.Store(true)
				}
				return nil, nil
			},
		},
	)
	c := newTestCompiler(t, Config{Workers: 8}, ext)

	var elements []protocol.Element
	for i := range n {
		elements = append(elements,
			&fakeElement{kind: "late", path: fmt.Sprintf("late::E%d", i)},
			&fakeElement{kind: "early", path: fmt.Sprintf("early::E%d", i)},
		)
	}
	_, err := c.Compile(context.Background(), elements)
	require.NoError(t, err)
	assert.False(t, violation.Load(), "every early element is built before any late one")
}

func TestCompile_ParallelMatchesSequential(t *testing.T) {
	elements := func() []protocol.Element {
		out := []protocol.Element{profile("example", "Profile", at(1, 1, 20), "doc")}
		for i := range 50 {
			c := class("example", fmt.Sprintf("C%d", i), at(10+i, 1, 20))
			if i%3 != 0 {
				c.Properties = []protocol.Property{stringProperty("p", 0, intPtr(1), at(10+i, 5, 9))}
			}
			if i > 0 {
				c.SuperTypes = []protocol.ElementPointer{{Path: fmt.Sprintf("example::C%d", i-1), SourceInformation: at(10+i, 10, 15)}}
			}
			out = append(out, c)
		}
		return out
	}

	seqRes, err := newTestCompiler(t, Config{Workers: 1, CollectReferences: true}).Compile(context.Background(), elements())
	require.NoError(t, err)
	parRes, err := newTestCompiler(t, Config{Workers: 16, CollectReferences: true}).Compile(context.Background(), elements())
	require.NoError(t, err)

	assert.Equal(t, seqRes.Model.Paths(), parRes.Model.Paths())

	seqRefs, _ := seqRes.References()
	parRefs, _ := parRes.References()
	require.Len(t, parRefs, len(seqRefs))
	for _, path := range seqRes.Model.Paths() {
		a, _ := seqRes.Model.Element(path)
		b, _ := parRes.Model.Element(path)
		assert.Equal(t, seqRefs[a], parRefs[b], path)
	}

	require.Len(t, seqRes.Warnings, 17)
	assert.Equal(t, seqRes.Warnings, parRes.Warnings)
	assert.Equal(t, "Class 'example::C0' has no properties", parRes.Warnings[0].Message)
	for range 5 {
		again, err := newTestCompiler(t, Config{Workers: 16}).Compile(context.Background(), elements())
		require.NoError(t, err)
		assert.Equal(t, parRes.Warnings, again.Warnings, "warning order is stable across runs")
	}
}

func TestCompile_Canceled(t *testing.T) {
	c := newTestCompiler(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.Compile(ctx, personModel())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompile_Timeout(t *testing.T) {
	slow := &Processor{
		Kind: "slow",
		Build: func(protocol.Element, *Context) (graph.Node, error) {
			time.Sleep(50 * time.Millisecond)
			return nil, nil
		},
	}
	c := newTestCompiler(t, Config{Workers: 1, Timeout: 10 * time.Millisecond}, NewExtension("slow", []string{"Core"}, slow))

	var elements []protocol.Element
	for i := range 5 {
		elements = append(elements, &fakeElement{kind: "slow", path: fmt.Sprintf("s::E%d", i)})
	}
	_, err := c.Compile(context.Background(), elements)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompile_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	failing := &Processor{
		Kind: "fail",
		Build: func(protocol.Element, *Context) (graph.Node, error) {
			return nil, boom
		},
	}
	c := newTestCompiler(t, Config{Workers: 4}, NewExtension("fail", []string{"Core"}, failing))

	var elements []protocol.Element
	for i := range 10 {
		elements = append(elements, &fakeElement{kind: "fail", path: fmt.Sprintf("f::E%d", i)})
	}
	_, err := c.Compile(context.Background(), elements)
	assert.Same(t, boom, err, "processor errors propagate unchanged")
}

func TestCompile_Warnings(t *testing.T) {
	warn := &Processor{
		Kind: "warn",
		Build: func(protocol.Element, *Context) (graph.Node, error) {
			return nil, nil
		},
		Validate: func(el protocol.Element, ctx *Context, _ graph.Node) error {
			ctx.Warn(el.Location(), "element '%s' is empty", el.Path())
			return nil
		},
	}
	c := newTestCompiler(t, Config{}, NewExtension("warn", []string{"Core"}, warn))

	res, err := c.Compile(context.Background(), []protocol.Element{&fakeElement{kind: "warn", path: "w::A"}})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "element 'w::A' is empty", res.Warnings[0].Message)
}

func TestCompile_TypedHandlerNilNode(t *testing.T) {
	var linked atomic.Bool
	empty := Handler[*fakeElement, *graph.Class]{
		Kind: "empty",
		Build: func(*fakeElement, *Context) (*graph.Class, error) {
			return nil, nil
		},
		Link: func(_ *fakeElement, _ *Context, c *graph.Class) error {
			linked.Store(true)
			assert.Nil(t, c)
			return nil
		},
	}.Processor()
	c := newTestCompiler(t, Config{Workers: 4}, NewExtension("empty", []string{"Core"}, empty))

	res, err := c.Compile(context.Background(), []protocol.Element{
		&fakeElement{kind: "empty", path: "e::A"},
		&fakeElement{kind: "empty", path: "e::B"},
	})
	require.NoError(t, err)
	assert.True(t, linked.Load())
	assert.Nil(t, res.Nodes["e::A"])
	_, ok := res.Model.Element("e::A")
	assert.False(t, ok, "nil nodes are not added to the model")
}

type fakeElement struct {
	kind protocol.Kind
	path string
}

func (f *fakeElement) Kind() protocol.Kind    { return f.kind }
func (f *fakeElement) Path() string           { return f.path }
func (f *fakeElement) Location() *source.Info { return nil }
