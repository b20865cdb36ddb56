package catalog

import (
	"fmt"
	"regexp"
	"strconv"
)

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration parses an ISO 8601 duration of the form PT#H#M#S (every
// component optional) into total seconds and a display string: H:MM:SS when
// hours are present, MM:SS otherwise.
func ParseDuration(s string) (Duration, error) {
	match := durationRe.FindStringSubmatch(s)
	if match == nil {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}

	hours := atoiOrZero(match[1])
	minutes := atoiOrZero(match[2])
	seconds := atoiOrZero(match[3])

	formatted := fmt.Sprintf("%02d:%02d", minutes, seconds)
	if hours > 0 {
		formatted = fmt.Sprintf("%d:%s", hours, formatted)
	}

	return Duration{
		TotalSeconds: hours*3600 + minutes*60 + seconds,
		Formatted:    formatted,
	}, nil
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
