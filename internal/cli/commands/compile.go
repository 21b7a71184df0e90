package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgraph/internal/cli/config"
	"github.com/leapstack-labs/leapgraph/internal/cli/output"
	"github.com/leapstack-labs/leapgraph/pkg/compiler"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Watch bool
}

// CompileOutput is the JSON output of the compile command.
type CompileOutput struct {
	Files      []string `json:"files"`
	Elements   int      `json:"elements"`
	References int      `json:"references"`
	Warnings   []string `json:"warnings"`
	DurationMS int64    `json:"duration_ms"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}
	cmd := &cobra.Command{
		Use:   "compile [files or directories...]",
		Short: "Compile protocol models into a graph",
		Long: `Decode protocol model files and compile them into a graph with every
registered extension. Errors abort the compilation; warnings are reported
on stderr.`,
		Example: `  # Compile two files
  leapgraph compile model.yaml store.yaml

  # Compile every model under models/ and recompile on change
  leapgraph compile models --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Watch {
				return watchAndCompile(cmd.Context(), args)
			}
			return runCompile(cmd.Context(), args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Recompile when model files change")
	return cmd
}

func runCompile(ctx context.Context, args []string) error {
	r := output.FromContext(ctx)
	res, files, err := compileSources(ctx, args)
	if err != nil {
		return err
	}
	return renderCompile(r, res, files)
}

func renderCompile(r *output.Renderer, res *compiler.Result, files []string) error {
	refs := 0
	if m, err := res.References(); err == nil {
		for _, locs := range m {
			refs += len(locs)
		}
	}
	warnings := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		warnings[i] = w.String()
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(CompileOutput{
			Files:      files,
			Elements:   len(res.Nodes),
			References: refs,
			Warnings:   warnings,
			DurationMS: res.Duration.Milliseconds(),
		})
	}

	for _, w := range warnings {
		r.Warning(w)
	}
	r.Success(fmt.Sprintf("Compiled %d elements from %d files in %s", len(res.Nodes), len(files), res.Duration.Round(time.Millisecond)))
	if refs > 0 {
		r.Muted(fmt.Sprintf("%d references recorded", refs))
	}
	return nil
}

// watchAndCompile compiles once, then again after every burst of writes to
// the watched files' directories, until ctx is done.
func watchAndCompile(ctx context.Context, args []string) error {
	r := output.FromContext(ctx)
	cfg := config.FromContext(ctx)
	logger := config.GetLogger(ctx)

	files, err := resolveSources(args, cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	var dirs []string
	for _, f := range files {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	for _, d := range slices.Compact(dirs) {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	recompile := func() {
		if err := runCompile(ctx, args); err != nil {
			r.Error(err.Error())
		}
	}
	recompile()

	trigger := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !triggersRecompile(event) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(cfg.Watch.Debounce, func() {
				logger.Debug("model changed, recompiling", "file", name)
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			recompile()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// triggersRecompile reports whether event changes the set or content of
// model files. Removals count so that a deleted model drops out of the graph.
func triggersRecompile(event fsnotify.Event) bool {
	const mask = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	return event.Op&mask != 0 && isModelFile(event.Name)
}
