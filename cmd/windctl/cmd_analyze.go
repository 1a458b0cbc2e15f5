package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

var analyzeFlags struct {
	file        string
	timezone    string
	strong      float64
	extreme     float64
	minDuration float64
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse an Open-Meteo hourly fixture",
	Long: `Read an Open-Meteo shaped JSON document (with an "hourly" block) from a
file or stdin and print the single-series analysis as JSON.`,
	RunE: runAnalyze,
}

func init() {
	def := domain.DefaultThresholds()
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.file, "file", "f", "-", "fixture path, - for stdin")
	f.StringVar(&analyzeFlags.timezone, "tz", "Pacific/Auckland", "time zone for daily buckets and output times")
	f.Float64Var(&analyzeFlags.strong, "strong", def.Strong, "strong wind threshold (km/h)")
	f.Float64Var(&analyzeFlags.extreme, "extreme", def.Extreme, "extreme wind threshold (km/h)")
	f.Float64Var(&analyzeFlags.minDuration, "min-duration", def.MinDurationHours, "minimum period duration (hours)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	th := domain.Thresholds{
		Strong:           analyzeFlags.strong,
		Extreme:          analyzeFlags.extreme,
		MinDurationHours: analyzeFlags.minDuration,
	}

	in, closeIn, err := openInput(cmd, analyzeFlags.file)
	if err != nil {
		return err
	}
	defer closeIn()

	res, err := analyzeFixture(in, analyzeFlags.timezone, th)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// fixture is the subset of an Open-Meteo response the analysis needs.
type fixture struct {
	Timezone string              `json:"timezone"`
	Hourly   domain.HourlySeries `json:"hourly"`
}

// analyzeFixture reads a GMT fixture and presents it in tz (UTC when empty).
// Fixtures fetched in another zone are rejected: their local hours repeat or
// vanish across daylight-saving changes.
func analyzeFixture(r io.Reader, tz string, th domain.Thresholds) (domain.SeriesAnalysis, error) {
	if err := th.Validate(); err != nil {
		return domain.SeriesAnalysis{}, err
	}
	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return domain.SeriesAnalysis{}, fmt.Errorf("decode fixture: %w", err)
	}
	switch fx.Timezone {
	case "", "GMT", "UTC":
	default:
		return domain.SeriesAnalysis{}, fmt.Errorf("fixture timezone %q: request it with timezone=GMT", fx.Timezone)
	}
	loc := time.UTC
	if tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return domain.SeriesAnalysis{}, fmt.Errorf("load time zone: %w", err)
		}
	}
	readings, err := domain.NormalizeHourly(fx.Hourly, loc)
	if err != nil {
		return domain.SeriesAnalysis{}, err
	}
	return domain.AnalyzeSeries(readings, th), nil
}

// openInput returns stdin for "-" and the named file otherwise.
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
