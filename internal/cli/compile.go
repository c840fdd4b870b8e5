package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Query    string // query payload path, or "-" for stdin
	Template string // named join template
	From     string // fixed from as "table:alias"
}

// CompileOutput is the success payload for the compile command.
type CompileOutput struct {
	SQL    string         `json:"sql"`
	Params map[string]any `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <registry-dir>",
		Short: "Compile a query description to parameterized SQL",
		Long: `Compile a JSON query description to parameterized T-SQL.

The registry directory contains CUE files defining the table allow-lists
and named join templates. The query payload is read from --query (a file
path, or "-" for stdin) and validated against the registry before any
SQL is produced.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "-", `query payload path ("-" for stdin)`)
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "compile against a named join template")
	cmd.Flags().StringVar(&opts.From, "from", "", `pin the base table ("table:alias")`)

	return cmd
}

func runCompileCmd(opts *CompileOptions, registryDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	compiled, err := compileFromFlags(opts, registryDir, cmd.InOrStdin(), formatter)
	if err != nil {
		return err
	}
	return outputCompiled(formatter, compiled)
}

// compileFromFlags performs the shared load-decode-compile pipeline used
// by both compile and run.
func compileFromFlags(opts *CompileOptions, registryDir string, stdin io.Reader, formatter *OutputFormatter) (querysql.Compiled, error) {
	loadResult, err := LoadRegistry(registryDir)
	if err != nil {
		return querysql.Compiled{}, outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d CUE file(s): %d table(s), %d template(s)",
		loadResult.FileCount,
		len(loadResult.Registry.Aliases()),
		len(loadResult.Registry.TemplateNames()))

	desc, err := readQuery(opts.Query, stdin)
	if err != nil {
		_ = formatter.Error(ErrCodeBadQuery, err.Error(), nil)
		return querysql.Compiled{}, WrapExitError(ExitCommandError, "reading query payload", err)
	}

	compileOpts := querysql.Options{Template: opts.Template}
	if opts.From != "" {
		ref, err := parseFromFlag(opts.From)
		if err != nil {
			_ = formatter.Error(ErrCodeBadQuery, err.Error(), nil)
			return querysql.Compiled{}, WrapExitError(ExitCommandError, "parsing --from", err)
		}
		compileOpts.FixedFrom = ref
	}

	compiled, err := querysql.Compile(desc, loadResult.Registry, compileOpts)
	if err != nil {
		code := querysql.CodeOf(err)
		if code == "" {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return querysql.Compiled{}, WrapExitError(ExitCommandError, "compiling query", err)
		}
		_ = formatter.Error(string(code), err.Error(), nil)
		// Rejected payloads are a validation failure, not a command error.
		return querysql.Compiled{}, WrapExitError(ExitFailure, "query rejected", err)
	}
	return compiled, nil
}

// readQuery decodes the query payload from a file or stdin.
func readQuery(path string, stdin io.Reader) (*queryir.QueryDescription, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading query payload: %w", err)
	}

	var desc queryir.QueryDescription
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decoding query payload: %w", err)
	}
	return &desc, nil
}

// parseFromFlag parses the "table:alias" form of --from.
func parseFromFlag(value string) (*queryir.TableRef, error) {
	table, alias, ok := strings.Cut(value, ":")
	if !ok || table == "" || alias == "" {
		return nil, fmt.Errorf(`--from must be "table:alias", got %q`, value)
	}
	return &queryir.TableRef{Table: table, Alias: alias}, nil
}

// outputCompiled renders a compiled query.
func outputCompiled(formatter *OutputFormatter, compiled querysql.Compiled) error {
	if formatter.Format == "json" {
		return formatter.Success(CompileOutput{SQL: compiled.SQL, Params: compiled.Params})
	}

	fmt.Fprintln(formatter.Writer, compiled.SQL)
	if len(compiled.Params) > 0 {
		fmt.Fprintln(formatter.Writer)
		names := make([]string, 0, len(compiled.Params))
		for name := range compiled.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(formatter.Writer, "  @%s = %v\n", name, compiled.Params[name])
		}
	}
	return nil
}

// outputLoadError renders a registry load failure.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Error(), nil)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "loading registry", err)
}
