package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/priyanka/formpilot/backend/internal/domain"
	"github.com/priyanka/formpilot/backend/internal/engine"
	"github.com/priyanka/formpilot/backend/internal/htmlform"
	"github.com/priyanka/formpilot/backend/internal/repository"
	"github.com/priyanka/formpilot/backend/internal/service"
	"github.com/priyanka/formpilot/backend/internal/store"
)

// withService opens the store, builds the service stack, runs fn, and
// closes the store afterwards.
func withService(fn func(ctx context.Context, svc *service.AutofillService, repo *repository.ProfileRepository) error) error {
	st, err := store.NewSQLiteStore(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	repo := repository.New(st)
	return fn(context.Background(), service.NewAutofillService(repo), repo)
}

func newFillCmd() *cobra.Command {
	var (
		userInitiated bool
		entryIndex    int
		workers       int
		outDir        string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "fill <file.html> [more files...]",
		Short: "Fill one or more HTML forms from the stored profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, repo *repository.ProfileRepository) error {
				profile, err := repo.GetProfile(ctx)
				if err != nil {
					return err
				}
				settings, err := repo.GetSettings(ctx)
				if err != nil {
					return err
				}

				var vals engine.ValueSource = engine.NewProfileValues(profile)
				if entryIndex >= 0 {
					vals = entryValues{vals: engine.NewProfileValues(profile), index: entryIndex}
				}

				// Parse up front so the filled trees stay reachable for
				// rendering after the pool finishes.
				docs := make([]*htmlform.Document, len(args))
				jobs := make([]engine.Job, len(args))
				for i, path := range args {
					i, path := i, path
					jobs[i] = engine.Job{
						Name: path,
						Open: func() (engine.Document, error) {
							raw, err := os.ReadFile(path)
							if err != nil {
								return nil, err
							}
							doc, err := htmlform.ParseString(string(raw))
							if err != nil {
								return nil, err
							}
							docs[i] = doc
							return doc, nil
						},
					}
				}

				filler := engine.NewBulkFiller(workers)
				results, fillErr := filler.FillAll(ctx, jobs, vals, settings.EngineSettings(userInitiated))

				for i, res := range results {
					if docs[i] == nil {
						continue
					}
					if asJSON {
						enc := json.NewEncoder(cmd.OutOrStdout())
						enc.SetIndent("", "  ")
						if err := enc.Encode(res); err != nil {
							return err
						}
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Name, res.Result.Message)
						for _, skipped := range res.Result.SkippedFields {
							fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s (%s)\n", skipped.Identifier, skipped.Reason)
						}
					}
					if outDir != "" {
						if err := writeFilled(outDir, res.Name, docs[i]); err != nil {
							return err
						}
					}
				}
				return fillErr
			})
		},
	}

	cmd.Flags().BoolVar(&userInitiated, "user-initiated", true, "treat the pass as an explicit user action")
	cmd.Flags().IntVar(&entryIndex, "entry", -1, "multi-entry index to resolve values from (-1 for primary)")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent fill workers")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "directory to write filled documents into")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit results as JSON")
	return cmd
}

// entryValues pins value resolution to one multi-entry index.
type entryValues struct {
	vals  engine.ProfileValues
	index int
}

func (e entryValues) Resolve(key string) engine.Resolved {
	return e.vals.ResolveAt(key, e.index)
}

func (e entryValues) HasAnyValue() bool { return e.vals.HasAnyValue() }

func writeFilled(dir, srcPath string, doc *htmlform.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(dir, filepath.Base(srcPath))
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	defer file.Close()
	return doc.Render(file)
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file.html>",
		Short: "Report which fields would be filled, unmatched, or blocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				analysis, err := svc.Analyze(ctx, string(raw))
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			})
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <file.html>",
		Short: "Dump full per-field match diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				reports, err := svc.MatchReport(ctx, string(raw))
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			})
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <module.field> <value>",
		Short: "Set one profile field value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				if _, err := svc.UpdateField(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
				return nil
			})
		},
	}
}

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy <module.field> <never|confirm|on_click|bulk_ok>",
		Short: "Override one field's autofill policy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				if _, err := svc.UpdateFieldPolicy(ctx, args[0], domain.AutofillPolicy(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set policy for %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newScoreCmd() *cobra.Command {
	var formType string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show profile completion, optionally against a form type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				result, err := svc.Completion(ctx, domain.FormType(formType))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Overall: %d%% (%d/%d fields)\n", result.OverallPercent, result.TotalFilled, result.TotalFields)
				for _, def := range domain.ProfileModules {
					mod := result.ModuleCompletion[def.Name]
					fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %3d%% (%d/%d)\n", mod.DisplayName, mod.Percent, mod.Filled, mod.Total)
				}
				if len(result.MissingRequired) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Missing for %s: %s\n", formType, strings.Join(result.MissingRequired, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&formType, "form-type", "", "form type to check required fields against")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the profile as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				blob, err := svc.Export(ctx)
				if err != nil {
					return err
				}
				if outFile == "" {
					fmt.Fprintln(cmd.OutOrStdout(), blob)
					return nil
				}
				return os.WriteFile(outFile, []byte(blob), 0o644)
			})
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <profile.json>",
		Short: "Import a profile from JSON, replacing the stored one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *service.AutofillService, _ *repository.ProfileRepository) error {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if _, err := svc.Import(ctx, string(raw)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile imported")
				return nil
			})
		},
	}
}
