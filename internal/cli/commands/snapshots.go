package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgraph/internal/cli/config"
	"github.com/leapstack-labs/leapgraph/internal/cli/output"
)

// NewSnapshotsCommand creates the snapshots command group.
func NewSnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Manage saved reference snapshots",
	}
	cmd.AddCommand(newSnapshotsListCommand(), newSnapshotsShowCommand(), newSnapshotsDeleteCommand())
	return cmd
}

func newSnapshotsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r := output.FromContext(ctx)
			store, err := openState(config.FromContext(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := store.ListSnapshots(ctx)
			if err != nil {
				return err
			}
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(list)
			}
			if len(list) == 0 {
				r.Println("(no snapshots)")
				return nil
			}
			rows := make([][]string, len(list))
			for i, s := range list {
				rows[i] = []string{
					s.ID, s.Label, s.Created.Local().Format(time.DateTime),
					strconv.Itoa(s.Elements), strconv.Itoa(s.Entries), strconv.Itoa(s.Warnings),
				}
			}
			r.Header(1, fmt.Sprintf("Snapshots (%d)", len(list)))
			r.Table([]string{"ID", "Label", "Created", "Elements", "Nodes", "Warnings"}, rows)
			return nil
		},
	}
}

func newSnapshotsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the references of a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openState(config.FromContext(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Entries(ctx, args[0])
			if err != nil {
				return err
			}
			return renderEntries(output.FromContext(ctx), entries)
		},
	}
}

func newSnapshotsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openState(config.FromContext(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteSnapshot(ctx, args[0]); err != nil {
				return err
			}
			output.FromContext(ctx).Success("Deleted snapshot " + args[0])
			return nil
		},
	}
}
