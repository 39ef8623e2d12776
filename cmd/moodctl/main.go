// moodctl runs the mood analytics on a JSON file of mood entries, without any store
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mdblp/mood-analytics/common"
	"github.com/mdblp/mood-analytics/infrastructure"
	"github.com/mdblp/mood-analytics/schema"
	"github.com/mdblp/mood-analytics/usecase"
)

type options struct {
	file     string
	userID   string
	asOf     string
	timezone string
	debug    bool
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd constructs the root command, exposed for the tests
func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "moodctl",
		Short:        "Mood analytics over a JSON file of mood entries",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "JSON array of mood entries")
	rootCmd.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "user id, optional when the file holds a single user")
	rootCmd.PersistentFlags().StringVar(&opts.asOf, "as-of", "", "reference day YYYY-MM-DD, today when empty")
	rootCmd.PersistentFlags().StringVar(&opts.timezone, "timezone", "UTC", "reference timezone of the calendar days")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logs")
	_ = rootCmd.MarkPersistentFlagRequired("file")

	rootCmd.AddCommand(newDashboardCmd(opts))
	rootCmd.AddCommand(newTrendsCmd(opts))
	rootCmd.AddCommand(newCorrelationsCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	return rootCmd
}

func newLogger(cmd *cobra.Command, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).Level(level).With().Timestamp().Logger()
}

// session the analytics over the file and the resolved user
type session struct {
	analytics *usecase.MoodAnalytics
	userID    string
	asOf      time.Time
	logger    zerolog.Logger
}

func (o *options) open(cmd *cobra.Command) (*session, error) {
	logger := newLogger(cmd, o.debug)
	config := &common.AnalyticsConfig{
		Timezone:        o.timezone,
		FetchTimeout:    10 * time.Second,
		DashboardDays:   365,
		CorrelationDays: 90,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(o.file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	repository, err := infrastructure.LoadMemoryMoodRepository(f)
	if err != nil {
		return nil, err
	}

	userID := o.userID
	if userID == "" {
		users := repository.Users()
		if len(users) != 1 {
			return nil, fmt.Errorf("%d users in %s, select one with --user", len(users), o.file)
		}
		userID = users[0]
	}

	var asOf time.Time
	if o.asOf != "" {
		if asOf, err = schema.ParseDay(o.asOf, config.Location()); err != nil {
			return nil, err
		}
	}
	logger.Debug().Str("file", o.file).Int("entries", len(repository.Observations)).Str("userId", userID).Msg("mood entries loaded")
	return &session{
		analytics: usecase.NewMoodAnalytics(logger, repository, config),
		userID:    userID,
		asOf:      asOf,
		logger:    logger,
	}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newDashboardCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			snapshot, err := s.analytics.GetDashboard(cmd.Context(), usecase.DashboardArgs{UserID: s.userID, AsOf: s.asOf, Days: days})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snapshot)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window in days, 365 when 0")
	return cmd
}

func newTrendsCmd(opts *options) *cobra.Command {
	var period, granularity string
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Print the time buckets and statistics of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			result, err := s.analytics.GetTrends(cmd.Context(), usecase.TrendsArgs{
				UserID:      s.userID,
				AsOf:        s.asOf,
				Period:      period,
				Granularity: granularity,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&period, "period", "week", "week, month, quarter or year")
	cmd.Flags().StringVar(&granularity, "granularity", "day", "day, week or month")
	return cmd
}

func newCorrelationsCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "correlations",
		Short: "Print the correlation report",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			report, err := s.analytics.GetCorrelations(cmd.Context(), usecase.CorrelationsArgs{UserID: s.userID, AsOf: s.asOf, Days: days})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window in days, 90 when 0")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var from, to, format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the entries and their analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			exportArgs := usecase.ExportArgs{UserID: s.userID, Format: format}
			loc := s.analytics.Location()
			if from != "" {
				if exportArgs.From, err = schema.ParseDay(from, loc); err != nil {
					return err
				}
			}
			if to != "" {
				if exportArgs.To, err = schema.ParseDayEnd(to, loc); err != nil {
					return err
				}
			} else if !s.asOf.IsZero() {
				exportArgs.To = schema.EndOfDay(s.asOf, loc)
			}
			buffer, exportFormat, err := s.analytics.Export(cmd.Context(), exportArgs)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = buffer.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(output, buffer.Bytes(), 0o644); err != nil {
				return err
			}
			s.logger.Info().Str("output", output).Str("format", string(exportFormat)).Msg("export written")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD")
	cmd.Flags().StringVar(&format, "format", "structured", "structured or tabular")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}
