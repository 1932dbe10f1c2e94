package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/ib-77/ropline/pkg/config"
	"github.com/ib-77/ropline/pkg/rop"
	"github.com/ib-77/ropline/pkg/rop/message"
	"github.com/ib-77/ropline/pkg/rop/pipe"
	"github.com/ib-77/ropline/pkg/rop/solo"
	"github.com/ib-77/ropline/pkg/sample"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errItemOutOfRange = errors.New("item exceeds the reading range")

type rootOptions struct {
	configFile string
	verbose    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ropline",
		Short: "Run items through a fixed chain of stages",
		Long: `ropline drives the reference two-stage pipeline: readings are doubled,
	then checked against a bound. Failed items surface as Skip with the error
	that stopped them; output order always matches input order.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to pipeline YAML config")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline events to stderr")

	root.AddCommand(runCmd(opts))
	root.AddCommand(configCmd(opts))
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile == "" {
		return config.Default(), nil
	}
	return config.Load(o.configFile)
}

func (o *rootOptions) newLogger(w io.Writer) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runCmd(opts *rootOptions) *cobra.Command {
	var items []uint
	var capacity int
	var showStats bool
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit items, print every result, then shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readings(items)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("capacity") {
				cfg.Capacity = capacity
			}
			if showMetrics {
				cfg.Metrics.Enabled = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			p, err := pipe.Then(
				pipe.Then(pipe.New[sample.Reading](cfg.Options(opts.newLogger(cmd.ErrOrStderr()), reg)...),
					pipe.Try("double", sample.Double)),
				pipe.Try("check", sample.Check),
			).Build(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to build pipeline: %w", err)
			}

			results, err := pipe.RunAll(p, sample.Readings(values...))
			if err != nil {
				return fmt.Errorf("pipeline run failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for i, m := range results {
				fmt.Fprintf(out, "%d\t%s\n", values[i], describe(m))
			}
			fmt.Fprintln(out, message.Quit[sample.Verdict]())

			if showStats {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(p.Stats()); err != nil {
					return err
				}
			}
			if showMetrics {
				return writeMetrics(out, reg)
			}
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&items, "items", []uint{1, 2, 3, 4, 5, 6, 7, 8, 9}, "readings to submit")
	cmd.Flags().IntVar(&capacity, "capacity", pipe.DefaultCapacity, "capacity of every link")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print pipeline statistics as JSON")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print Prometheus metrics after the run")
	return cmd
}

// readings rejects values a Reading cannot hold instead of truncating them.
func readings(items []uint) ([]uint32, error) {
	values := make([]uint32, 0, len(items))
	for _, v := range items {
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("item %d: %w", v, errItemOutOfRange)
		}
		values = append(values, uint32(v))
	}
	return values, nil
}

func skipLine(err error) string {
	return fmt.Sprintf("Skip(%q)", err.Error())
}

var lines = message.Handlers[sample.Verdict, string]{
	OnWork: func(r rop.Result[sample.Verdict]) string {
		return solo.Finally(context.Background(), r,
			func(_ context.Context, v sample.Verdict) string {
				return fmt.Sprintf("Work(%t)", v.Payload)
			},
			func(_ context.Context, err error) string {
				return skipLine(err)
			},
		)
	},
	OnSkip: skipLine,
	OnQuit: func() string { return "Quit" },
}

func describe(m message.Message[sample.Verdict]) string {
	return message.Match(m, lines)
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func configCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective pipeline configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}
