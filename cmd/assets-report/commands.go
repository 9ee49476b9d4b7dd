package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/export"
	"github.com/weiwei-tsao/campus-assets-report/internal/business/report"
	"github.com/weiwei-tsao/campus-assets-report/internal/repository"
	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

func (a *app) generateCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the PDF report into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *report.Service, _ *repository.Backend) error {
				res, err := svc.Generate(cmd.Context())
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", outDir, err)
				}
				path := filepath.Join(outDir, res.Filename)
				if err := os.WriteFile(path, res.PDF, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				cached := ""
				if res.Cached {
					cached = ", cached"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages, %s assets%s)\n",
					path, res.Pages, util.FormatCount(res.Assets), cached)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the aggregated statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *report.Service, _ *repository.Backend) error {
				stats, err := svc.Summary(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func (a *app) workbookCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "workbook",
		Short: "Write the statistics and inventory as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *report.Service, _ *repository.Backend) error {
				stats, assets, err := svc.Load(cmd.Context())
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", outDir, err)
				}
				path := filepath.Join(outDir, export.WorkbookFilename(stats.GeneratedAt))
				if err := writeFile(path, func(w io.Writer) error {
					return export.WriteWorkbook(w, stats, assets)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the asset inventory as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *report.Service, _ *repository.Backend) error {
				assets, err := svc.Assets(cmd.Context())
				if err != nil {
					return err
				}
				if out == "-" {
					return export.WriteInventoryCSV(cmd.OutOrStdout(), assets)
				}
				return writeFile(out, func(w io.Writer) error {
					return export.WriteInventoryCSV(w, assets)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", `output file ("-" for stdout)`)
	return cmd
}

func (a *app) snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Recompute and store the dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(svc *report.Service, _ *repository.Backend) error {
				summary, err := svc.RefreshSnapshot(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}

func (a *app) runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(_ *report.Service, backend *repository.Backend) error {
				runs, err := backend.Runs.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN\tSTATUS\tSTARTED\tASSETS\tPAGES\tERROR")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
						r.RunID, r.Status, r.StartedAt.Format(time.RFC3339), r.Assets, r.Pages, r.Error)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultRunLimit, "number of runs to show")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
