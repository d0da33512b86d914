package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SchemaModelInfo is one class in the schema listing.
type SchemaModelInfo struct {
	Name       string   `json:"name"`
	IsEdge     bool     `json:"isEdge"`
	Inherits   []string `json:"inherits,omitempty"`
	Properties []string `json:"properties"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schema",
		Short:         "List the classes of the loaded schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
	return cmd
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	models, err := loadModels(opts)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading schema", err)
	}

	infos := make([]SchemaModelInfo, 0, len(models))
	for _, name := range models.Names() {
		model, _ := models.Get(name)
		infos = append(infos, SchemaModelInfo{
			Name:       model.Name,
			IsEdge:     model.IsEdge,
			Inherits:   model.Inherits(),
			Properties: model.PropertyNames(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	fmt.Fprintf(formatter.Writer, "Classes (%d total):\n\n", len(infos))
	for _, info := range infos {
		kind := "vertex"
		if info.IsEdge {
			kind = "edge"
		}
		fmt.Fprintf(formatter.Writer, "  %-20s %-6s %d property(s)\n", info.Name, kind, len(info.Properties))
		if len(info.Inherits) > 0 {
			fmt.Fprintf(formatter.Writer, "    inherits: %s\n", strings.Join(info.Inherits, ", "))
		}
	}
	return nil
}
