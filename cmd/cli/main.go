package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crmqc/adapters/excel"
	"crmqc/app"
	"crmqc/internal/config"
	"crmqc/internal/container"
	"crmqc/internal/report"
	"crmqc/ui"
	"crmqc/ui/tui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crmqc",
		Short: "Quality control for assay grids: fill, duplicate, CRM and detection limit checks",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newBatchCmd(),
		newEditCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(ctx, cfg)
}

func loadFile(ctx context.Context, c *container.Container, path string) (*app.SessionController, error) {
	raw, err := excel.NewDataReader(path, c.ExcelConfig()).ReadGrid(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Controller.Load(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c.Controller, nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the element columns, detection limits and reference table of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			controller, err := loadFile(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			summary, err := controller.Summary()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

func newBatchCmd() *cobra.Command {
	var (
		out        string
		reportPath string
		limits     bool
		seed       uint64
		fillMin    float64
		fillMax    float64
		fillOffset float64
		fillRatio  float64
	)

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Fill every column, optionally apply detection limits, and write the result",
		Long: `Fill every element column with original*U(min,max)+offset (times ratio),
optionally clamp values below the detection limit row, and write the merged grid.

Example: crmqc batch assays.xlsx --out assays_qc.xlsx --limits --seed 42 --report qc.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed != 0 {
				os.Setenv("QC_SEED", fmt.Sprint(seed))
			}
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			fill := c.Config.Defaults.Fill
			flags := cmd.Flags()
			if flags.Changed("fill-min") {
				fill.Min = fillMin
			}
			if flags.Changed("fill-max") {
				fill.Max = fillMax
			}
			if flags.Changed("fill-offset") {
				fill.Offset = fillOffset
			}
			if flags.Changed("fill-ratio") {
				fill.Ratio = fillRatio
			}

			raw, err := excel.NewDataReader(args[0], c.ExcelConfig()).ReadGrid(cmd.Context())
			if err != nil {
				return err
			}
			result, err := app.RunBatch(c.Controller, raw, app.BatchOptions{Fill: fill, ApplyLimits: limits})
			if err != nil {
				return err
			}

			if out == "" {
				ext := filepath.Ext(args[0])
				out = strings.TrimSuffix(args[0], ext) + "_qc" + ext
			}
			if err := excel.NewDataWriter(out, c.ExcelConfig()).WriteGrid(cmd.Context(), result.Output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, %d cells clamped, seed %d)\n",
				out, len(result.Output), result.Clamped, c.Sampler.Seed())

			if reportPath != "" {
				if err := writeReport(c.Controller, reportPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (default: <input>_qc.<ext>)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a QC report (.html or .md)")
	cmd.Flags().BoolVar(&limits, "limits", false, "Apply detection limits before writing")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for reproducible fills (default: QC_SEED or time-based)")
	cmd.Flags().Float64Var(&fillMin, "fill-min", 0.9, "Lower bound of the fill factor")
	cmd.Flags().Float64Var(&fillMax, "fill-max", 1.1, "Upper bound of the fill factor")
	cmd.Flags().Float64Var(&fillOffset, "fill-offset", 0, "Offset added after the factor")
	cmd.Flags().Float64Var(&fillRatio, "fill-ratio", 1, "Ratio applied to newly filled cells")
	return cmd
}

func writeReport(controller *app.SessionController, path string) error {
	r, err := report.Build(controller)
	if err != nil {
		return err
	}
	body := r.Markdown()
	if strings.EqualFold(filepath.Ext(path), ".html") {
		body = r.HTML()
	}
	return os.WriteFile(path, body, 0o644)
}

func newEditCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Open a file in the interactive terminal editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			controller, err := loadFile(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if out == "" {
				ext := filepath.Ext(args[0])
				out = strings.TrimSuffix(args[0], ext) + "_qc" + ext
			}
			return tui.Run(cmd.Context(), controller, tui.Options{
				Defaults: c.Config.Defaults,
				Excel:    c.ExcelConfig(),
				Output:   out,
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file written on save (default: <input>_qc.<ext>)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON QC API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			if port == "" {
				port = c.Config.Server.Port
			}
			server := ui.NewServer(c.Controller, ui.Options{
				Defaults: c.Config.Defaults,
				Excel:    c.ExcelConfig(),
				Logger:   c.Logger,
			})
			return server.Start(":" + port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default: PORT or 8080)")
	return cmd
}
