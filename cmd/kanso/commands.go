package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/export"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
	"github.com/comitanigiacomo/kanso-habits/internal/logging"
)

const defaultInsightDays = 30

type rootOptions struct {
	file     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "kanso",
		Short:         "Habit statistics from an exported habit list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(opts.logLevel, "text")
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "-", "habits JSON file, - for stdin")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newStatsCmd(opts), newInsightsCmd(opts), newExportCmd(opts))
	return root
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		asOf   string
		badges []string
		shared bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics snapshot and newly unlocked badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			habits, err := loadHabits(cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}

			prior := domain.ParseBadgeSet(badges)
			snap := stats.ComputeSnapshot(habits, prior, day, stats.Signals{Shared: shared})
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference day (YYYY-MM-DD), defaults to today in UTC")
	cmd.Flags().StringSliceVar(&badges, "badges", nil, "badges already unlocked")
	cmd.Flags().BoolVar(&shared, "shared", false, "treat the evaluation as following a share")
	return cmd
}

func newInsightsCmd(opts *rootOptions) *cobra.Command {
	var (
		asOf string
		days int
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print the completion heatmap, category breakdown and week-over-week counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 366 {
				return fmt.Errorf("--days must be between 1 and 366, got %d", days)
			}
			day, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			habits, err := loadHabits(cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), stats.ComputeInsights(habits, day, days))
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference day (YYYY-MM-DD), defaults to today in UTC")
	cmd.Flags().IntVar(&days, "days", defaultInsightDays, "heatmap window in days")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the habits as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			habits, err := loadHabits(cmd.InOrStdin(), opts.file)
			if err != nil {
				return err
			}
			return export.WriteCSV(cmd.OutOrStdout(), habits)
		},
	}
}

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return domain.CalendarDay(time.Now().UTC()), nil
	}
	day, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", s, err)
	}
	return day, nil
}

func loadHabits(stdin io.Reader, path string) ([]*domain.Habit, error) {
	var r io.Reader = stdin
	if path != "-" && strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open habits file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var habits []*domain.Habit
	if err := json.NewDecoder(r).Decode(&habits); err != nil {
		return nil, fmt.Errorf("failed to decode habits: %w", err)
	}

	live := habits[:0]
	for _, h := range habits {
		if h != nil && h.DeletedAt == nil {
			live = append(live, h)
		}
	}
	return live, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
