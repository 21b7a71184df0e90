// Package compiler turns a protocol element tree into a resolved model graph.
//
// Elements are dispatched by kind to the processors of the registered
// extensions. Compilation runs three passes (build, link, validate), each
// walking the registry's phases in order; elements of one phase are
// processed in parallel and the first failure aborts the whole compilation.
package compiler

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/ledger"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Config holds compiler settings.
type Config struct {
	// Workers bounds per-phase parallelism. Zero means GOMAXPROCS.
	Workers int
	// CollectReferences enables the reference ledger.
	CollectReferences bool
	// Timeout aborts compilation when positive.
	Timeout time.Duration
	// Logger receives progress records. Nil discards.
	Logger *slog.Logger
}

// Compiler runs compile passes against one registry.
type Compiler struct {
	registry *Registry
	workers  int
	collect  bool
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a compiler.
func New(reg *Registry, cfg Config) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Compiler{
		registry: reg,
		workers:  workers,
		collect:  cfg.CollectReferences,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Registry returns the compiler's dispatch table.
func (c *Compiler) Registry() *Registry { return c.registry }

// Result is a successfully compiled graph.
type Result struct {
	Model    *graph.Model
	Ledger   ledger.Ledger
	Warnings []diag.Warning
	// Nodes maps each input element's path to the node built for it.
	Nodes    map[string]graph.Node
	Duration time.Duration
}

// References returns the ledger snapshot. It fails with
// *diag.IllegalStateError when collection was disabled.
func (r *Result) References() (map[graph.Node][]source.Info, error) {
	return ledger.References(r.Ledger)
}

type item struct {
	index int
	el    protocol.Element
	proc  *Processor
}

// Compile builds a graph from elements. Either every element compiles and a
// Result is returned, or the first error is returned and nothing else.
func (c *Compiler) Compile(ctx context.Context, elements []protocol.Element) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.Info("graph start", "elements", len(elements), "workers", c.workers, "collect_references", c.collect)

	res, err := c.compile(ctx, elements)
	if err != nil {
		c.logger.Error("graph error", "error", err, "duration", time.Since(start))
		return nil, err
	}
	res.Duration = time.Since(start)
	c.logger.Info("graph stop", "elements", res.Model.Count(), "warnings", len(res.Warnings), "duration", res.Duration)
	return res, nil
}

func (c *Compiler) compile(ctx context.Context, elements []protocol.Element) (*Result, error) {
	model := graph.NewModel()
	for _, p := range graph.BuiltinProfiles() {
		model.Add(p)
	}
	l := ledger.New(c.collect)
	root := NewContext(model, l, c.logger)

	byKind := make(map[protocol.Kind][]item)
	for i, el := range elements {
		proc, ok := c.registry.Processor(el.Kind())
		if !ok {
			return nil, &diag.UnsupportedElementError{Kind: string(el.Kind()), Path: el.Path(), Location: el.Location()}
		}
		byKind[el.Kind()] = append(byKind[el.Kind()], item{index: i, el: el, proc: proc})
	}

	nodes := make([]graph.Node, len(elements))
	phases := c.registry.Phases()

	build := func(it item) error {
		sc := root.For(it.el.Path())
		n, err := it.proc.Build(it.el, sc)
		if err != nil {
			return err
		}
		if el, ok := n.(graph.Element); ok {
			if _, added := model.Add(el); !added {
				return diag.Errorf(it.el.Location(), "Duplicated element '%s'", el.Path())
			}
		}
		nodes[it.index] = n
		return nil
	}
	link := func(it item) error {
		if it.proc.Link == nil {
			return nil
		}
		return it.proc.Link(it.el, root.For(it.el.Path()), nodes[it.index])
	}
	validate := func(it item) error {
		if it.proc.Validate == nil {
			return nil
		}
		return it.proc.Validate(it.el, root.For(it.el.Path()), nodes[it.index])
	}

	for _, pass := range []struct {
		name string
		fn   func(item) error
	}{{"build", build}, {"link", link}, {"validate", validate}} {
		for _, ph := range phases {
			var work []item
			for _, kind := range ph.Kinds {
				work = append(work, byKind[kind]...)
			}
			if len(work) == 0 {
				continue
			}
			start := time.Now()
			if err := c.run(ctx, work, pass.fn); err != nil {
				return nil, err
			}
			c.logger.Debug("phase complete",
				"pass", pass.name,
				"phase", ph.Index,
				"kinds", ph.Kinds,
				"elements", len(work),
				"duration", time.Since(start))
		}
	}

	out := make(map[string]graph.Node, len(elements))
	for i, el := range elements {
		out[el.Path()] = nodes[i]
	}
	warnings := root.Warnings()
	diag.SortWarnings(warnings)
	return &Result{Model: model, Ledger: l, Warnings: warnings, Nodes: out}, nil
}

// run applies fn to every item with at most c.workers in flight. The first
// error cancels the remaining items.
func (c *Compiler) run(ctx context.Context, work []item, fn func(item) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, it := range work {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(it)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
