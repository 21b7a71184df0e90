// Package commands implements the leapgraph subcommands.
package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapgraph/internal/cli/config"
	"github.com/leapstack-labs/leapgraph/internal/state"
	"github.com/leapstack-labs/leapgraph/pkg/compiler"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

// isModelFile reports whether path looks like a protocol model file.
func isModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return filepath.Base(path) != config.ConfigFileNames[0] && filepath.Base(path) != config.ConfigFileNames[1]
	default:
		return false
	}
}

// resolveSources expands args (or the configured sources) into model files.
// Directories are walked recursively.
func resolveSources(args []string, cfg *config.Config) ([]string, error) {
	inputs := args
	if len(inputs) == 0 {
		inputs = cfg.Sources
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no model files given\nHint: pass files or directories, or set 'sources' in leapgraph.yaml")
	}

	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}
		var found []string
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isModelFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, nil
}

// newCompiler builds a compiler over every registered extension.
func newCompiler(ctx context.Context, cfg *config.Config) (*compiler.Compiler, error) {
	reg, err := compiler.DefaultRegistry(compiler.WithGroupOrder(cfg.Compiler.GroupOrder...))
	if err != nil {
		return nil, err
	}
	return compiler.New(reg, compiler.Config{
		Workers:           cfg.Compiler.Workers,
		CollectReferences: cfg.Compiler.CollectReferences,
		Timeout:           cfg.Compiler.Timeout,
		Logger:            config.GetLogger(ctx),
	}), nil
}

// loadElements decodes every file in order.
func loadElements(files []string, reg *compiler.Registry) ([]protocol.Element, error) {
	var all []protocol.Element
	for _, f := range files {
		els, err := protocol.DecodeFile(f, reg)
		if err != nil {
			return nil, err
		}
		all = append(all, els...)
	}
	return all, nil
}

// compileSources resolves, decodes and compiles.
func compileSources(ctx context.Context, args []string) (*compiler.Result, []string, error) {
	cfg := config.FromContext(ctx)
	files, err := resolveSources(args, cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := newCompiler(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	els, err := loadElements(files, c.Registry())
	if err != nil {
		return nil, files, err
	}
	res, err := c.Compile(ctx, els)
	return res, files, err
}

// openState opens and migrates the snapshot store.
func openState(cfg *config.Config) (*state.Store, error) {
	if dir := filepath.Dir(cfg.StatePath); cfg.StatePath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	s, err := state.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
