package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Fallback strings returned instead of failing on malformed input.
const (
	Unknown          = "Unknown"
	NoRecentActivity = "No recent activity"
)

const (
	// RecentCap is the maximum number of items shown by FormatRecent.
	RecentCap = 2
	// recentItemLen is the per-item length budget inside FormatRecent.
	recentItemLen = 30
	// MaxErrorDetail caps error text shown on the display.
	MaxErrorDetail = 50
)

// rootPrefixes are stripped (at most one, case-insensitively) by CleanPath.
var rootPrefixes = []string{
	"/tvshows/", "/movies/", "/downloads/", "/media/",
	`\tvshows\`, `\movies\`, `\downloads\`, `\media\`,
	`C:\`, `D:\`, "/home/", "/mnt/",
}

// SmartTruncate shortens text to at most maxLen runes.
// Text that fits is returned unchanged. Otherwise, if the text has an
// extension of up to 4 characters and more than 10 runes of stem still fit,
// the stem is cut and "...ext" kept. Anything else is hard-truncated to
// exactly maxLen runes ending in "...".
func SmartTruncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	if maxLen <= 0 {
		return ""
	}

	if dot := lastRune(r, '.'); dot >= 0 {
		stem, ext := r[:dot], r[dot+1:]
		if len(ext) <= 4 {
			available := maxLen - len(ext) - 4
			if available > 10 {
				return string(stem[:available]) + "..." + string(ext)
			}
		}
	}

	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// CleanPath reduces a filesystem path or release name to its last segment,
// after stripping one known library root prefix. Empty input yields "Unknown".
func CleanPath(path string) string {
	if path == "" {
		return Unknown
	}

	clean := path
	for _, prefix := range rootPrefixes {
		if len(clean) >= len(prefix) && strings.EqualFold(clean[:len(prefix)], prefix) {
			clean = clean[len(prefix):]
			break
		}
	}

	clean = strings.TrimRight(clean, `/\`)
	if i := strings.LastIndexAny(clean, `/\`); i >= 0 {
		clean = clean[i+1:]
	}
	if clean == "" {
		return Unknown
	}
	return clean
}

// FormatRecent renders up to RecentCap names as "Recent: a | b", each one
// path-cleaned and truncated. An empty list yields "No recent activity".
func FormatRecent(names []string) string {
	if len(names) == 0 {
		return NoRecentActivity
	}
	items := make([]string, 0, RecentCap)
	for _, n := range names {
		if len(items) == RecentCap {
			break
		}
		items = append(items, SmartTruncate(CleanPath(n), recentItemLen))
	}
	return "Recent: " + strings.Join(items, " | ")
}

// ComputeETA estimates the time to download sizeLeft at speed, both given as
// "<value> <unit>" strings such as "300 MB" and "5 MB/s". Units B, KB, MB, GB
// and TB (or their one-letter forms) may be mixed freely.
// Returns "" when either value is zero, missing or unparsable.
func ComputeETA(sizeLeft, speed string) string {
	sizeMB, ok := parseMegabytes(sizeLeft)
	if !ok || sizeMB <= 0 {
		return ""
	}
	speedMB, ok := parseMegabytes(speed)
	if !ok || speedMB <= 0 {
		return ""
	}
	return FormatETA(sizeMB / speedMB / 60)
}

// FormatETA formats a duration in minutes as "<1m", "17m" or "1h08m".
// Non-positive and non-finite input yields "".
func FormatETA(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return ""
	}
	switch {
	case minutes < 1:
		return "<1m"
	case minutes < 60:
		return fmt.Sprintf("%.0fm", minutes)
	default:
		hours := int(minutes / 60)
		mins := int(math.Mod(minutes, 60))
		return fmt.Sprintf("%dh%02dm", hours, mins)
	}
}

// FormatRelativeDate describes an ISO date relative to now: "Today",
// "Tomorrow", "3d" for two to six days ahead, otherwise "Jan 02".
// Zone-qualified timestamps are compared in their own zone, naive ones in
// now's zone. Unparsable input yields "Unknown".
func FormatRelativeDate(date string, now time.Time) string {
	t, ref, ok := parseDate(strings.TrimSpace(date), now)
	if !ok {
		return Unknown
	}

	days := dayNumber(t) - dayNumber(ref)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days >= 2 && days <= 6:
		return fmt.Sprintf("%dd", days)
	default:
		return t.Format("Jan 02")
	}
}

// ErrorDetail returns err's text capped at MaxErrorDetail runes. It never
// returns an empty string.
func ErrorDetail(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error"
	}
	r := []rune(err.Error())
	if len(r) > MaxErrorDetail {
		r = r[:MaxErrorDetail]
	}
	return string(r)
}

var zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string, now time.Time) (t, ref time.Time, ok bool) {
	if s == "" {
		return time.Time{}, time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, now.In(t.Location()), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, now, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// dayNumber returns the civil day index of t in its own location.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// unitMegabytes maps size/speed units to their value in megabytes.
var unitMegabytes = map[string]float64{
	"B":   1.0 / (1024 * 1024),
	"K":   1.0 / 1024,
	"KB":  1.0 / 1024,
	"KIB": 1.0 / 1024,
	"M":   1,
	"MB":  1,
	"MIB": 1,
	"G":   1024,
	"GB":  1024,
	"GIB": 1024,
	"T":   1024 * 1024,
	"TB":  1024 * 1024,
	"TIB": 1024 * 1024,
}

// parseMegabytes parses "<value> <unit>" or "<value><unit>" into megabytes.
// A trailing "/s" on the unit is ignored.
func parseMegabytes(s string) (float64, bool) {
	var num, unit string
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		i := strings.IndexFunc(fields[0], func(r rune) bool {
			return !unicode.IsDigit(r) && r != '.'
		})
		if i <= 0 {
			return 0, false
		}
		num, unit = fields[0][:i], fields[0][i:]
	case 2:
		num, unit = fields[0], fields[1]
	default:
		return 0, false
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	unit = strings.TrimSuffix(strings.ToUpper(unit), "/S")
	factor, ok := unitMegabytes[unit]
	if !ok {
		return 0, false
	}
	return v * factor, true
}

func lastRune(r []rune, target rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == target {
			return i
		}
	}
	return -1
}
