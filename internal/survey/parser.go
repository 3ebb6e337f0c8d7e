package survey

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Reading is one parsed, not-yet-persisted point observation from an
// uploaded file. Expected row format:
//
//	point_id,north,east,elevation,date
//
// with the date as YYYY-MM-DD or YYYY/MM/DD.
type Reading struct {
	PointID   string
	North     float64
	East      float64
	Elevation float64
	RawDate   string
}

type ParseStats struct {
	Rows    int // data rows that produced a Reading
	Skipped int // non-empty rows dropped (short, bad coordinates)
}

// headerPrefixes marks rows exported by field software with a label line on
// top ("ID,Norte,...", "Punto,...").
var headerPrefixes = []string{"id", "punto", "point"}

// ParseReadings consumes the upload line by line. Malformed rows are
// dropped and counted, never fatal; only the reader itself can fail.
func ParseReadings(r io.Reader) ([]Reading, ParseStats, error) {
	var readings []Reading
	var stats ParseStats

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(decodeLine(scanner.Bytes()))
		if line == "" {
			continue
		}

		if isHeader(line) {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 5 {
			stats.Skipped++
			continue
		}

		north, errN := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		east, errE := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if errN != nil || errE != nil {
			stats.Skipped++
			continue
		}

		elevation := 0.0
		if raw := strings.TrimSpace(parts[3]); raw != "" {
			if z, err := strconv.ParseFloat(raw, 64); err == nil {
				elevation = z
			}
		}

		readings = append(readings, Reading{
			PointID:   strings.TrimSpace(parts[0]),
			North:     north,
			East:      east,
			Elevation: elevation,
			RawDate:   strings.TrimSpace(parts[4]),
		})
		stats.Rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, err
	}

	return readings, stats, nil
}

// decodeLine falls back to Windows-1252 for files saved by Spanish field
// software that are not valid UTF-8.
func decodeLine(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

func isHeader(line string) bool {
	first := strings.ToLower(strings.TrimSpace(strings.SplitN(line, ",", 2)[0]))
	for _, p := range headerPrefixes {
		if strings.HasPrefix(first, p) {
			return true
		}
	}
	return false
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate canonicalizes a raw date field to YYYY-MM-DD, accepting
// slashes or hyphens as separators. Unparseable dates fall back to today;
// the caller counts those so the summary can report them.
func NormalizeDate(raw string, today time.Time) (date string, defaulted bool) {
	date = strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")
	if !isoDateRe.MatchString(date) {
		return today.Format("2006-01-02"), true
	}
	return date, false
}

// DateGroup holds the readings of one canonical date, in input order.
type DateGroup struct {
	Date     string
	Readings []Reading
}

// GroupByDate partitions readings by normalized date and returns the groups
// oldest first. Lexicographic order on YYYY-MM-DD is chronological.
func GroupByDate(readings []Reading, today time.Time) (groups []DateGroup, defaulted int) {
	byDate := map[string][]Reading{}
	for _, rd := range readings {
		date, wasDefaulted := NormalizeDate(rd.RawDate, today)
		if wasDefaulted {
			defaulted++
		}
		byDate[date] = append(byDate[date], rd)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	groups = make([]DateGroup, 0, len(dates))
	for _, d := range dates {
		groups = append(groups, DateGroup{Date: d, Readings: byDate[d]})
	}
	return groups, defaulted
}
