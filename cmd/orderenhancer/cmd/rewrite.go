package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/export"
	"github.com/spf13/cobra"
)

var (
	rewriteVarDir  string
	rewriteCharset string
	rewriteDryRun  bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>...",
	Short: "Post-process order export files in place",
	Long: `Drops the unwanted columns and repeated phone columns from each
file, quotes every field and prepends a UTF-8 BOM.

Relative paths are resolved against the var directory (EXPORT_VAR_DIR),
then against its export subdirectory. Missing or empty files are reported
and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().StringVar(&rewriteVarDir, "var-dir", "", "var directory (default: EXPORT_VAR_DIR)")
	rewriteCmd.Flags().StringVar(&rewriteCharset, "charset", "", "legacy charset for invalid UTF-8 (default: EXPORT_LEGACY_CHARSET)")
	rewriteCmd.Flags().BoolVar(&rewriteDryRun, "dry-run", false, "show what would be removed without writing")
	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config", err)
		return err
	}

	varDir := cfg.Export.VarDir
	if rewriteVarDir != "" {
		varDir = rewriteVarDir
	}
	charset := cfg.Export.LegacyCharset
	if cmd.Flags().Changed("charset") {
		charset = rewriteCharset
	}

	dir, err := export.NewDirectory(varDir)
	if err != nil {
		printError("var directory", err)
		return err
	}
	codec, err := export.NewCodec(charset)
	if err != nil {
		printError("charset", err)
		return err
	}

	policy := export.Policy{
		UnwantedColumns: cfg.Export.UnwantedColumns,
		PhoneColumn:     cfg.Export.PhoneColumn,
	}
	processor := export.NewProcessor(dir, export.Options{
		FallbackDir: cfg.Export.FallbackDir,
		Policy:      policy,
		Codec:       codec,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var failed []string
	for _, arg := range args {
		fileDir, fileProcessor, path := dir, processor, arg
		if filepath.IsAbs(arg) {
			if _, err := dir.AbsolutePath(arg); err != nil {
				// Outside the var directory: work in the file's own directory.
				if fileDir, err = export.NewDirectory(filepath.Dir(arg)); err != nil {
					printError(arg, err)
					failed = append(failed, arg)
					continue
				}
				fileProcessor = export.NewProcessor(fileDir, export.Options{Policy: policy, Codec: codec})
				path = filepath.Base(arg)
			}
		}

		if rewriteDryRun {
			err = dryRun(cmd, fileProcessor, fileDir, path, policy, codec)
		} else {
			err = rewriteOne(ctx, cmd, fileProcessor, path)
		}
		if err != nil {
			printError(arg, err)
			failed = append(failed, arg)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s", len(failed), len(args), strings.Join(failed, ", "))
	}
	return nil
}

func rewriteOne(ctx context.Context, cmd *cobra.Command, p *export.Processor, path string) error {
	report, err := p.Enhance(ctx, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if report.Skipped != "" {
		fmt.Fprintf(out, "%s: skipped (%s)\n", path, report.Skipped)
		return nil
	}
	fmt.Fprintf(out, "%s: %d rows, removed %d columns", report.Path, report.Outcome.Rows, len(report.Outcome.Removed))
	if len(report.Outcome.Removed) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(report.Outcome.Removed, ", "))
	}
	fmt.Fprintln(out)
	return nil
}

func dryRun(cmd *cobra.Command, p *export.Processor, dir *export.Directory, path string, policy export.Policy, codec *export.Codec) error {
	full, ok := p.Resolve(path)
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped (%s)\n", path, export.SkipNotFound)
		return nil
	}
	content, err := dir.ReadFile(full)
	if err != nil {
		return err
	}

	_, outcome, err := policy.Rewrite(content, codec)
	if errors.Is(err, export.ErrEmptyFile) || errors.Is(err, export.ErrNoHeader) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped (%v)\n", full, err)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: would remove %d columns: %s\n",
		full, len(outcome.Removed), strings.Join(outcome.Removed, ", "))
	return nil
}
