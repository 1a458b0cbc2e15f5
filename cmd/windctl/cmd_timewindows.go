package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

var windowsFlags struct {
	file     string
	timezone string
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Validate and normalise a time-window list",
	Long: `Read window lines of the form "YYYY-MM-DD HH:MM - YYYY-MM-DD HH:MM",
skip anything else, and print the normalised list ready for POST /api/v1/windows.`,
	RunE: runWindows,
}

func init() {
	f := windowsCmd.Flags()
	f.StringVarP(&windowsFlags.file, "file", "f", "-", "window list path, - for stdin")
	f.StringVar(&windowsFlags.timezone, "tz", "Pacific/Auckland", "time zone of the window times")
	rootCmd.AddCommand(windowsCmd)
}

func runWindows(cmd *cobra.Command, _ []string) error {
	loc, err := time.LoadLocation(windowsFlags.timezone)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}
	in, closeIn, err := openInput(cmd, windowsFlags.file)
	if err != nil {
		return err
	}
	defer closeIn()

	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read windows: %w", err)
	}
	out, err := normalizeWindows(string(text), loc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

func normalizeWindows(text string, loc *time.Location) (string, error) {
	windows := domain.ParseWindows(text, loc)
	if err := domain.ValidateWindows(windows); err != nil {
		return "", err
	}
	return domain.FormatWindows(windows) + "\n", nil
}
