package domain

import (
	"bufio"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// windowLayout is the minute-precision local time used in window text.
const windowLayout = "2006-01-02 15:04"

// windowLineRe matches exactly "YYYY-MM-DD HH:MM - YYYY-MM-DD HH:MM".
var windowLineRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}) - (\d{4}-\d{2}-\d{2} \d{2}:\d{2})$`)

// Window is a caller-supplied time range, inclusive at both ends.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// String renders the window in the same text form ParseWindows accepts.
func (w Window) String() string {
	return w.Start.Format(windowLayout) + " - " + w.End.Format(windowLayout)
}

// Contains reports whether t lies within [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// FormatWindows renders windows one per line, the inverse of ParseWindows.
func FormatWindows(windows []Window) string {
	lines := make([]string, len(windows))
	for i, w := range windows {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// PeriodWindows converts detected periods to windows for later re-analysis.
func PeriodWindows(periods []Period) []Window {
	windows := make([]Window, len(periods))
	for i, p := range periods {
		windows[i] = Window{Start: p.Start, End: p.End}
	}
	return windows
}

// ParseWindows reads one window per line. Leading and trailing whitespace is
// trimmed from each line before matching. Lines that then do not match the
// window pattern exactly, or whose dates do not parse, are skipped.
func ParseWindows(text string, loc *time.Location) []Window {
	if loc == nil {
		loc = time.UTC
	}
	var windows []Window
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		m := windowLineRe.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		start, err := time.ParseInLocation(windowLayout, m[1], loc)
		if err != nil {
			continue
		}
		end, err := time.ParseInLocation(windowLayout, m[2], loc)
		if err != nil {
			continue
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows
}

// Span returns the earliest start and latest end across windows.
func Span(windows []Window) (time.Time, time.Time) {
	var from, to time.Time
	for i, w := range windows {
		if i == 0 || w.Start.Before(from) {
			from = w.Start
		}
		if i == 0 || w.End.After(to) {
			to = w.End
		}
	}
	return from, to
}

// WindowAverages returns the mean reference speed of readings inside each
// window, or nil for a window with no readings.
func WindowAverages(readings []Reading, windows []Window) []*float64 {
	out := make([]*float64, len(windows))
	for i, w := range windows {
		var (
			sum float64
			n   int
		)
		for _, r := range readings {
			if w.Contains(r.Time) {
				sum += r.SpeedRef
				n++
			}
		}
		if n > 0 {
			avg := sum / float64(n)
			out[i] = &avg
		}
	}
	return out
}

// WindowRow is one site's averages across all windows.
type WindowRow struct {
	Site     string     `json:"site"`
	Averages []*float64 `json:"averages"`
	Error    string     `json:"error,omitempty"`
}

// WindowOverall summarises every non-null cell of a window matrix. The
// pointers are nil when no cell has a value.
type WindowOverall struct {
	Cells int      `json:"cells"`
	Mean  *float64 `json:"mean"`
	Max   *float64 `json:"max"`
	Min   *float64 `json:"min"`
}

// WindowMatrix is the site × window table produced by re-analysis.
type WindowMatrix struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Windows     []string      `json:"windows"`
	Rows        []WindowRow   `json:"rows"`
	Overall     WindowOverall `json:"overall"`
	Errors      []SiteError   `json:"errors"`
}

// BuildWindowMatrix assembles rows into a matrix and computes overall statistics.
func BuildWindowMatrix(windows []Window, rows []WindowRow) WindowMatrix {
	m := WindowMatrix{
		Windows: make([]string, len(windows)),
		Rows:    rows,
		Errors:  []SiteError{},
	}
	for i, w := range windows {
		m.Windows[i] = w.String()
	}

	var (
		sum    float64
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	for _, row := range rows {
		if row.Error != "" {
			m.Errors = append(m.Errors, SiteError{Site: row.Site, Error: row.Error})
		}
		for _, v := range row.Averages {
			if v == nil {
				continue
			}
			m.Overall.Cells++
			sum += *v
			lo = math.Min(lo, *v)
			hi = math.Max(hi, *v)
		}
	}
	if m.Overall.Cells > 0 {
		mean := sum / float64(m.Overall.Cells)
		m.Overall.Mean = &mean
		m.Overall.Min = &lo
		m.Overall.Max = &hi
	}
	return m
}

// ValidateWindows rejects an empty window list or a window that ends before it starts.
func ValidateWindows(windows []Window) error {
	if len(windows) == 0 {
		return fmt.Errorf("%w: no time windows", ErrEmptyInput)
	}
	for _, w := range windows {
		if w.End.Before(w.Start) {
			return fmt.Errorf("window %s ends before it starts", w)
		}
	}
	return nil
}
