package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateOutput is the success payload for the validate command.
type ValidateOutput struct {
	FileCount int                 `json:"file_count"`
	Tables    map[string][]string `json:"tables"`
	Templates []string            `json:"templates"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <registry-dir>",
		Short: "Validate a registry configuration directory",
		Long: `Load and validate a registry directory of CUE files.

Reports the registered aliases with their column allow-lists and the
named join templates. Exits non-zero if the configuration is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCmd(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateCmd(opts *ValidateOptions, registryDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, err := LoadRegistry(registryDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	reg := loadResult.Registry
	output := ValidateOutput{
		FileCount: loadResult.FileCount,
		Tables:    make(map[string][]string, len(reg.Aliases())),
		Templates: reg.TemplateNames(),
	}
	for _, alias := range reg.Aliases() {
		columns, _ := reg.ColumnsOf(alias)
		output.Tables[alias] = columns
	}

	if formatter.Format == "json" {
		return formatter.Success(output)
	}

	fmt.Fprintf(formatter.Writer, "Registry OK: %d CUE file(s)\n\n", output.FileCount)
	fmt.Fprintln(formatter.Writer, "Tables:")
	for _, alias := range reg.Aliases() {
		def, _ := reg.Lookup(alias)
		fmt.Fprintf(formatter.Writer, "  %s -> %s (%d columns)\n", alias, def.Qualified(), len(output.Tables[alias]))
	}
	if len(output.Templates) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Templates:")
		for _, name := range output.Templates {
			fmt.Fprintf(formatter.Writer, "  %s\n", name)
		}
	}
	return nil
}
