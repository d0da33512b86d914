package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bcgsc/pori-graphkb-core/internal/config"
	"github.com/bcgsc/pori-graphkb-core/internal/query"
	"github.com/bcgsc/pori-graphkb-core/internal/querysql"
	"github.com/bcgsc/pori-graphkb-core/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Display bool // include the parameter-substituted statement
}

// CompileResult is the payload for a successful compilation.
type CompileResult struct {
	Class     string         `json:"class"`
	Statement string         `json:"statement"`
	Params    map[string]any `json:"params"`
	Limit     int            `json:"limit"`
	Skip      int            `json:"skip,omitempty"`
	Neighbors int            `json:"neighbors,omitempty"`
	Display   string         `json:"display,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request-file>",
		Short: "Compile a query request into an engine statement",
		Long: `Compile a query request document into a parameterized engine statement.

The request names a target class, a raw parameter structure and optional
traversal directives. The output is the statement text plus its bound
parameters; nothing is executed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Display, "display", false, "include the statement with parameters substituted")

	return cmd
}

func runCompile(opts *CompileOptions, requestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	models, err := loadModels(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading schema", err)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading settings", err)
	}

	req, err := LoadRequest(requestPath)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading request", err)
	}

	model, ok := models.Get(req.Class)
	if !ok {
		msg := fmt.Sprintf("unknown class %q", req.Class)
		_ = formatter.Error("ATTRIBUTE_ERROR", msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	formatter.VerboseLog("Compiling request for class %s", model.Name)

	result, err := compileRequest(models, model, req, cfg)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}
	if !opts.Display {
		result.Display = ""
	}

	return outputCompileSuccess(formatter, result)
}

// compileRequest runs the full request pipeline: normalize parameters,
// resolve traversal directives, build the selection query and compile it.
func compileRequest(models schema.Set, model *schema.Model, req *Request, cfg *config.Config) (*CompileResult, error) {
	normalizer := cfg.Normalizer()
	conditions, directives, err := normalizer.Normalize(req.Params)
	if err != nil {
		return nil, err
	}

	follows, err := query.ResolveTraversals(query.TraversalInput{
		Ancestors:   req.Traversals.Ancestors,
		Descendants: req.Traversals.Descendants,
		FuzzyMatch:  req.Traversals.FuzzyMatch,
		ActiveOnly:  directives.ActiveOnly,
	}, cfg.FuzzyEdgeClasses)
	if err != nil {
		return nil, err
	}

	q, err := query.NewSelectionQuery(models, model, conditions, query.Options{
		ActiveOnly:       directives.ActiveOnly,
		Skip:             directives.Skip,
		ReturnProperties: directives.ReturnProperties,
		Follows:          follows,
		OrAttrs:          directives.Or,
	})
	if err != nil {
		return nil, err
	}

	compiler := &querysql.Compiler{Models: models, ParamPrefix: cfg.ParamPrefix}
	stmt, err := compiler.Compile(q)
	if err != nil {
		return nil, err
	}

	return &CompileResult{
		Class:     model.Name,
		Statement: stmt.Text,
		Params:    stmt.Params,
		Limit:     directives.Limit,
		Skip:      directives.Skip,
		Neighbors: directives.Neighbors,
		Display:   stmt.DisplayString(),
	}, nil
}

// outputCompileSuccess outputs a successful compilation.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Class:     %s\n", result.Class)
	fmt.Fprintf(formatter.Writer, "Statement: %s\n", result.Statement)

	names := make([]string, 0, len(result.Params))
	for name := range result.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintln(formatter.Writer, "Params:")
		for _, name := range names {
			fmt.Fprintf(formatter.Writer, "  %s = %v\n", name, result.Params[name])
		}
	}

	fmt.Fprintf(formatter.Writer, "Limit:     %d\n", result.Limit)
	if result.Skip > 0 {
		fmt.Fprintf(formatter.Writer, "Skip:      %d\n", result.Skip)
	}
	if result.Neighbors > 0 {
		fmt.Fprintf(formatter.Writer, "Neighbors: %d\n", result.Neighbors)
	}
	if result.Display != "" {
		fmt.Fprintf(formatter.Writer, "Display:   %s\n", result.Display)
	}
	return nil
}
