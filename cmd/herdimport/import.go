package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/herdbook/internal/audit"
	"github.com/JonMunkholm/herdbook/internal/core"
	"github.com/JonMunkholm/herdbook/internal/database"
	"github.com/JonMunkholm/herdbook/internal/persist"
	"github.com/JonMunkholm/herdbook/internal/prefs"
)

var (
	errRowsRejected = errors.New("rows were rejected")
	errAborted      = errors.New("import aborted")
)

const (
	exitFailure  = 1
	exitRejected = 2
	exitAborted  = 3
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, errAborted):
		return exitAborted
	case errors.Is(err, errRowsRejected):
		return exitRejected
	default:
		return exitFailure
	}
}

type importFlags struct {
	entity      string
	mode        string
	mappingFile string
	disabled    []string
	extra       []string
	noPrefs     bool
	strict      bool
	jsonOut     bool
}

func (f *importFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.entity, "entity", "", "Entity type (default: detected from the sheet)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Mode: create, overwrite or update (default: IMPORT_DEFAULT_MODE)")
	cmd.Flags().StringVar(&f.mappingFile, "mapping", "", "JSON file with a manual field mapping")
	cmd.Flags().StringSliceVar(&f.disabled, "disable", nil, "Fields to ignore")
	cmd.Flags().StringSliceVar(&f.extra, "extra", nil, "Source columns carried verbatim")
	cmd.Flags().BoolVar(&f.noPrefs, "no-prefs", false, "Ignore saved mapping preferences")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail when any row is rejected")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the preview as JSON")
}

// options turns the flags into configuration options.
func (f *importFlags) options() ([]core.ConfigOption, error) {
	var opts []core.ConfigOption

	et, err := core.ParseEntityType(f.entity)
	if err != nil {
		return nil, err
	}
	if et != "" {
		opts = append(opts, core.WithEntity(et))
	}
	if f.mode != "" {
		mode, err := core.ParseMode(f.mode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithMode(mode))
	}
	if f.mappingFile != "" {
		data, err := os.ReadFile(f.mappingFile)
		if err != nil {
			return nil, fmt.Errorf("read mapping: %w", err)
		}
		var mapping core.FieldMapping
		if err := json.Unmarshal(data, &mapping); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrInvalidMapping, f.mappingFile, err)
		}
		opts = append(opts, core.WithManualMapping(mapping))
	}
	if len(f.disabled) > 0 {
		opts = append(opts, core.WithDisabledFields(f.disabled...))
	}
	if len(f.extra) > 0 {
		opts = append(opts, core.WithExtraFields(f.extra...))
	}
	return opts, nil
}

func newValidateCmd(a *app) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a sheet and print what an import would do",
		Long:  "Validate a tab separated text file or an .xlsx workbook. Use - to read pasted text from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeStore, err := a.service(cmd.Context(), nil, flags.noPrefs)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := a.validate(cmd, svc, args[0], &flags)
			if err != nil {
				return err
			}
			return flags.verdict(result)
		},
	}
	flags.register(cmd)
	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		flags   importFlags
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "commit FILE",
		Short: "Validate a sheet and store its accepted rows in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.cfg.ValidateServer(); err != nil {
				return err
			}
			pool, err := database.Open(ctx, a.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			if migrate {
				if err := database.Migrate(ctx, pool); err != nil {
					return err
				}
			}

			svc, closeStore, err := a.service(ctx, persist.NewPersister(pool), flags.noPrefs)
			if err != nil {
				return err
			}
			defer closeStore()
			svc.SetAuditLog(audit.NewPostgres(pool))

			result, err := a.validate(cmd, svc, args[0], &flags)
			if err != nil {
				return err
			}
			if err := flags.verdict(result); err != nil {
				return err
			}

			outcome, err := svc.Commit(ctx, result.ID)
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), outcome, flags.jsonOut)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply the schema before importing")
	return cmd
}

// service builds a core service over the local SQLite preference file.
func (a *app) service(ctx context.Context, p core.Persister, noPrefs bool) (*core.Service, func(), error) {
	mode, err := core.ParseMode(a.cfg.Import.DefaultMode)
	if err != nil {
		return nil, nil, err
	}
	var (
		store     core.PreferenceStore
		closeFunc = func() {}
	)
	if !noPrefs {
		s, err := prefs.OpenSQLite(ctx, a.cfg.Preferences.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFunc = s, func() { _ = s.Close() }
	}
	svc := core.NewService(p, store, core.ServiceConfig{
		MaxInputBytes:     a.cfg.Import.MaxFileSize,
		Workers:           a.cfg.Import.Workers,
		MaxReportedErrors: a.cfg.Import.MaxReportedErrors,
		MaxConcurrent:     1,
		Timeout:           a.cfg.Import.Timeout,
		DefaultMode:       mode,
	})
	return svc, closeFunc, nil
}

// validate reads path and runs one batch, printing its preview. An aborted
// batch prints its preview and returns errAborted.
func (a *app) validate(cmd *cobra.Command, svc *core.Service, path string, flags *importFlags) (*core.ImportResult, error) {
	opts, err := flags.options()
	if err != nil {
		return nil, err
	}
	src, err := readSource(cmd.InOrStdin(), path, a.cfg.Import.MaxFileSize)
	if err != nil {
		return nil, err
	}

	result, err := svc.Validate(cmd.Context(), src, opts...)
	if result == nil {
		return nil, err
	}
	preview := core.BuildPreview(result, a.cfg.Import.MaxReportedErrors)
	if perr := printPreview(cmd.OutOrStdout(), preview, flags.jsonOut); perr != nil {
		return nil, perr
	}
	if result.Fatal != nil {
		return nil, fmt.Errorf("%w: %s", errAborted, result.Fatal.Message)
	}
	return result, err
}

// verdict reports errRowsRejected under --strict when any row failed.
func (f *importFlags) verdict(result *core.ImportResult) error {
	if f.strict && len(result.Errors) > 0 {
		return fmt.Errorf("%w: %d of %d", errRowsRejected, len(result.Errors), result.TotalRows)
	}
	return nil
}

func readSource(stdin io.Reader, path string, limit int64) (core.Source, error) {
	if path == "-" {
		data, err := core.ReadInput(stdin, limit)
		if err != nil {
			return core.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		return core.Source{Data: data}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return core.Source{}, err
	}
	defer f.Close()
	data, err := core.ReadInput(f, limit)
	if err != nil {
		return core.Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return core.Source{Name: filepath.Base(path), Data: data}, nil
}

func printPreview(w io.Writer, p *core.PreviewResponse, asJSON bool) error {
	if asJSON {
		return writeJSON(w, p)
	}
	if p.Fatal != nil {
		fmt.Fprintf(w, "import aborted (%s): %s\n", p.Fatal.Code, p.Fatal.Message)
		return nil
	}

	fmt.Fprintf(w, "entity:   %s\nmode:     %s (%s)\n", p.Entity, p.Mode, p.Action)
	fmt.Fprintf(w, "rows:     %d total, %d accepted, %d rejected, %d merged\n",
		p.Summary.TotalRows, p.Summary.AcceptedRows, p.Summary.ErrorRows, p.Summary.MergedRows)
	if len(p.Bindings) > 0 {
		fmt.Fprintln(w, "columns:")
		for _, b := range p.Bindings {
			col := b.Column
			if col == "" {
				col = "-"
			}
			fmt.Fprintf(w, "  %-20s <- %s\n", b.Field, col)
		}
	}
	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
	for _, msg := range p.Messages {
		fmt.Fprintln(w, msg)
	}
	return nil
}

func printOutcome(w io.Writer, o *core.CommitOutcome, asJSON bool) error {
	if asJSON {
		return writeJSON(w, o)
	}
	r := o.Report
	fmt.Fprintf(w, "committed: %d submitted, %d stored, %d skipped, %d failed in %s\n",
		r.Submitted, r.Succeeded, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  row %d: %s\n", f.Row, strings.TrimSpace(f.Reason))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
