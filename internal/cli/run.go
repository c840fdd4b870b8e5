package cli

import (
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*CompileOptions
	Driver string
	DSN    string
}

// RunOutput is the success payload for the run command.
type RunOutput struct {
	SQL      string           `json:"sql"`
	RowCount int              `json:"row_count"`
	Rows     []map[string]any `json:"rows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{CompileOptions: &CompileOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "run <registry-dir>",
		Short: "Compile a query description and execute it",
		Long: `Compile a JSON query description and execute it against a database.

The query is compiled exactly as by the compile command, then run with
its parameters bound by name. Values never travel inside the SQL text.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "-", `query payload path ("-" for stdin)`)
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "compile against a named join template")
	cmd.Flags().StringVar(&opts.From, "from", "", `pin the base table ("table:alias")`)
	cmd.Flags().StringVar(&opts.Driver, "driver", "sqlserver", "database/sql driver name")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "database connection string")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runRunCmd(opts *RunOptions, registryDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	compiled, err := compileFromFlags(opts.CompileOptions, registryDir, cmd.InOrStdin(), formatter)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Compiled: %s", compiled.SQL)

	ctx := cmd.Context()
	db, err := store.Open(ctx, opts.Driver, opts.DSN)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "connecting to database", err)
	}
	defer db.Close()

	rows, err := db.Query(ctx, compiled)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "executing query", err)
	}

	output := RunOutput{SQL: compiled.SQL, RowCount: len(rows), Rows: rows}
	if formatter.Format == "json" {
		return formatter.Success(output)
	}

	fmt.Fprintf(formatter.Writer, "%d row(s)\n", output.RowCount)
	for _, row := range rows {
		fmt.Fprintf(formatter.Writer, "  %v\n", row)
	}
	return nil
}
