package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapgraph/internal/cli/config"
	"github.com/leapstack-labs/leapgraph/internal/cli/output"
	"github.com/leapstack-labs/leapgraph/pkg/compiler"
)

// ExtensionInfo is the JSON form of a registered extension.
type ExtensionInfo struct {
	Name  string   `json:"name"`
	Group []string `json:"group"`
	Kinds []string `json:"kinds"`
}

// PhaseInfo is the JSON form of a compilation phase.
type PhaseInfo struct {
	Index int      `json:"index"`
	Group string   `json:"group"`
	Kinds []string `json:"kinds"`
}

// ExtensionsOutput is the JSON output of the extensions command.
type ExtensionsOutput struct {
	Extensions []ExtensionInfo `json:"extensions"`
	Phases     []PhaseInfo     `json:"phases"`
}

// NewExtensionsCommand creates the extensions command.
func NewExtensionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List registered extensions and the phase plan",
		Long: `List every registered compiler extension with the element kinds it
handles, followed by the phases the compiler runs them in. The order
honours compiler.group_order from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reg, err := compiler.DefaultRegistry(compiler.WithGroupOrder(config.FromContext(ctx).Compiler.GroupOrder...))
			if err != nil {
				return err
			}
			return renderExtensions(output.FromContext(ctx), reg)
		},
	}
}

func renderExtensions(r *output.Renderer, reg *compiler.Registry) error {
	var out ExtensionsOutput
	for _, ext := range reg.Extensions() {
		info := ExtensionInfo{Name: ext.Name(), Group: ext.Group()}
		for _, p := range ext.Processors() {
			info.Kinds = append(info.Kinds, string(p.Kind))
		}
		out.Extensions = append(out.Extensions, info)
	}
	for _, ph := range reg.Phases() {
		info := PhaseInfo{Index: ph.Index, Group: strings.Join(ph.Group, "/")}
		for _, k := range ph.Kinds {
			info.Kinds = append(info.Kinds, string(k))
		}
		out.Phases = append(out.Phases, info)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	title := cases.Title(language.English)
	r.Header(1, fmt.Sprintf("Extensions (%d)", len(out.Extensions)))
	rows := make([][]string, len(out.Extensions))
	for i, e := range out.Extensions {
		rows[i] = []string{title.String(e.Name), strings.Join(e.Group, "/"), strings.Join(e.Kinds, ", ")}
	}
	r.Table([]string{"Extension", "Group", "Kinds"}, rows)

	r.Println("")
	r.Header(2, "Phases")
	rows = make([][]string, len(out.Phases))
	for i, p := range out.Phases {
		rows[i] = []string{fmt.Sprint(p.Index), p.Group, strings.Join(p.Kinds, ", ")}
	}
	r.Table([]string{"#", "Group", "Kinds"}, rows)
	return nil
}
