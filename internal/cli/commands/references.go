package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgraph/internal/cli/config"
	"github.com/leapstack-labs/leapgraph/internal/cli/output"
	"github.com/leapstack-labs/leapgraph/internal/export"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// ReferencesOptions holds options for the references command.
type ReferencesOptions struct {
	Kind   string
	Save   bool
	Label  string
	Export string
}

// NewReferencesCommand creates the references command.
func NewReferencesCommand() *cobra.Command {
	opts := &ReferencesOptions{}
	cmd := &cobra.Command{
		Use:   "references [files or directories...]",
		Short: "Show where each graph node is referenced",
		Long: `Compile the models and print the reference ledger: for every node, the
source locations that point at it. The ledger can be exported to JSON or
MessagePack and saved to the state database for later comparison.`,
		Example: `  # Show class references only
  leapgraph references models --kind class

  # Save a labelled snapshot and export it
  leapgraph references models --save --label nightly --export refs.msgpack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReferences(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Only show nodes of this kind (class, tag, table, ...)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the snapshot to the state database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "Label for the saved snapshot")
	cmd.Flags().StringVar(&opts.Export, "export", "", "Write the snapshot to a .json or .msgpack file")
	return cmd
}

func runReferences(cmd *cobra.Command, args []string, opts *ReferencesOptions) error {
	ctx := cmd.Context()
	r := output.FromContext(ctx)

	res, _, err := compileSources(ctx, args)
	if err != nil {
		return err
	}
	snap, err := export.NewSnapshot(res)
	if err != nil {
		return fmt.Errorf("%w\nHint: enable compiler.collect_references or pass --references", err)
	}
	if opts.Kind != "" {
		kept := snap.Entries[:0]
		for _, e := range snap.Entries {
			if e.Kind == opts.Kind {
				kept = append(kept, e)
			}
		}
		snap.Entries = kept
	}

	if opts.Export != "" {
		if err := export.WriteFile(opts.Export, snap); err != nil {
			return err
		}
		r.Muted(fmt.Sprintf("Exported %d entries to %s", len(snap.Entries), opts.Export))
	}
	if opts.Save {
		cfg := config.FromContext(ctx)
		store, err := openState(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		id, err := store.SaveSnapshot(ctx, opts.Label, snap)
		if err != nil {
			return err
		}
		r.Muted(fmt.Sprintf("Saved snapshot %s to %s", id, cfg.StatePath))
	}

	return renderEntries(r, snap.Entries)
}

func renderEntries(r *output.Renderer, entries []export.Entry) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(entries)
	}
	if len(entries) == 0 {
		r.Println("(no references)")
		return nil
	}

	r.Header(1, fmt.Sprintf("References (%d nodes)", len(entries)))
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		declared := ""
		if e.Declared != nil {
			declared = e.Declared.String()
		}
		rows = append(rows, []string{e.Name, e.Kind, declared, strconv.Itoa(len(e.References)), joinLocations(e.References)})
	}
	r.Table([]string{"Node", "Kind", "Declared", "Count", "Referenced at"}, rows)
	return nil
}

func joinLocations(locs []source.Info) string {
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = l.String()
	}
	return strings.Join(parts, " ")
}
