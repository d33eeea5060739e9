package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/config"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/download"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/filter"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args); err != nil {
		slog.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger

		studyID      string
		token        string
		output       string
		dataTypes    []string
		participants string
		include      bool
		strict       bool
		cleanZero    bool
		archive      bool
		startDate    string
		endDate      string
		configPath   string
		ratePerSec   float64
		rateBurst    int
		maxInFlight  int
		concurrency  int
		maxRetries   int
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "study-id",
			Aliases:     []string{"s"},
			Usage:       "Chronicle study id",
			Required:    true,
			Destination: &studyID,
			Sources:     cli.EnvVars("CHRONICLE_STUDY_ID"),
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Bearer token for the Chronicle API",
			Required:    true,
			Destination: &token,
			Sources:     cli.EnvVars("CHRONICLE_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output root directory (default from settings)",
			Destination: &output,
			Sources:     cli.EnvVars("CHRONICLE_OUTPUT"),
		},
		&cli.StringSliceFlag{
			Name:        "data-type",
			Aliases:     []string{"t"},
			Usage:       "Data type to download, repeatable (raw, preprocessed, survey, ios-sensor, tud-daytime, tud-nighttime, tud-summarized)",
			Destination: &dataTypes,
		},
		&cli.StringFlag{
			Name:        "participants",
			Aliases:     []string{"p"},
			Usage:       "Comma-separated participant ids for the filter",
			Destination: &participants,
		},
		&cli.BoolFlag{
			Name:        "include",
			Usage:       "Treat the participant list as an include list instead of an exclude list",
			Destination: &include,
		},
		&cli.BoolFlag{
			Name:        "strict-include",
			Usage:       "Fail when an include-list id is not present in the study",
			Destination: &strict,
		},
		&cli.BoolFlag{
			Name:        "clean-zero-byte",
			Usage:       "Remove zero-byte result files after the run",
			Destination: &cleanZero,
		},
		&cli.BoolFlag{
			Name:        "archive",
			Usage:       "Bundle the study tree into a zip after a clean run",
			Destination: &archive,
		},
		&cli.StringFlag{
			Name:        "start-date",
			Usage:       "Lower bound of the data range (YYYY-MM-DD)",
			Destination: &startDate,
		},
		&cli.StringFlag{
			Name:        "end-date",
			Usage:       "Upper bound of the data range (YYYY-MM-DD)",
			Destination: &endDate,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to the settings file",
			Destination: &configPath,
			Sources:     cli.EnvVars("CHRONICLE_CONFIG"),
		},
		&cli.FloatFlag{
			Name:        "rate",
			Usage:       "Sustained requests per second (0 = settings value)",
			Destination: &ratePerSec,
		},
		&cli.IntFlag{
			Name:        "burst",
			Usage:       "Rate limiter burst size (0 = settings value)",
			Destination: &rateBurst,
		},
		&cli.IntFlag{
			Name:        "max-in-flight",
			Usage:       "Maximum concurrently outstanding requests (0 = settings value)",
			Destination: &maxInFlight,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Aliases:     []string{"c"},
			Usage:       "Worker count (0 = settings value)",
			Destination: &concurrency,
		},
		&cli.IntFlag{
			Name:        "max-retries",
			Usage:       "Fetch attempts per task (0 = settings value)",
			Destination: &maxRetries,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)

	app := &cli.Command{
		Name:  "chronicle-dl",
		Usage: "Bulk-download Chronicle study data",
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			slog.SetDefault(logger)
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			if output != "" {
				settings.DownloadsPath = output
			}
			if ratePerSec > 0 {
				settings.RatePerSecond = ratePerSec
			}
			if rateBurst > 0 {
				settings.RateBurst = int(rateBurst)
			}
			if maxInFlight > 0 {
				settings.MaxInFlight = int(maxInFlight)
			}
			if concurrency > 0 {
				settings.MaxConcurrentDownloads = int(concurrency)
			}
			if maxRetries > 0 {
				settings.MaxRetries = int(maxRetries)
			}
			if strict {
				settings.StrictInclude = true
			}

			req, err := buildRequest(settings, studyID, token, dataTypes,
				participants, include, cleanZero, archive, startDate, endDate)
			if err != nil {
				return err
			}

			manager := download.NewManager(settings, func(event download.ProgressEvent) {
				switch event.Level {
				case download.LevelError:
					slog.Error(event.Message)
				case download.LevelWarning:
					slog.Warn(event.Message)
				case download.LevelVerbose:
					slog.Debug(event.Message)
				default:
					slog.Info(event.Message)
				}
			})

			summary, runErr := manager.Run(ctx, req)
			if summary != nil {
				printSummary(summary)
			}
			return runErr
		},
	}

	return app.Run(ctx, args)
}

func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

func buildRequest(settings *config.Settings, studyID, token string, dataTypes []string, participants string, include, cleanZero, archive bool, startDate, endDate string) (*model.StudyRequest, error) {
	typeNames := dataTypes
	if len(typeNames) == 0 {
		typeNames = settings.DataTypes
	}
	types := make([]model.DataType, 0, len(typeNames))
	for _, name := range typeNames {
		dt, err := model.ParseDataType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, dt)
	}

	mode := model.FilterExclude
	if include {
		mode = model.FilterInclude
	}

	req := &model.StudyRequest{
		StudyID:   studyID,
		Token:     token,
		DataTypes: types,
		Filter: model.ParticipantFilter{
			Mode: mode,
			IDs:  filter.ParseIDList(participants),
		},
		OutputRoot:    settings.DownloadsPath,
		CleanZeroByte: cleanZero || settings.CleanZeroByte,
		Archive:       archive || settings.Archive,
	}

	var err error
	if req.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if req.EndDate, err = parseDate(endDate); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func printSummary(s *model.RunSummary) {
	fmt.Println()
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Downloads:     %d\n", s.Total())
	fmt.Printf("Succeeded:     %d\n", s.Succeeded)
	fmt.Printf("Empty:         %d\n", s.Empty)
	fmt.Printf("Failed:        %d\n", len(s.Failed))
	if s.NotAttempted > 0 {
		fmt.Printf("Not attempted: %d\n", s.NotAttempted)
	}
	if s.DroppedFilterIDs > 0 {
		fmt.Printf("Unknown filter ids skipped: %d\n", s.DroppedFilterIDs)
	}
	fmt.Printf("Duration:      %s\n", s.Duration.Round(time.Millisecond))

	if len(s.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed downloads:")
		for _, o := range s.Failed {
			fmt.Printf("  %s / %s: %s\n",
				o.Task.ParticipantID, o.Task.DataType, model.ErrorKind(o.Err))
		}
	}
}
