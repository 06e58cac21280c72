package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// matches both SRT (comma) and VTT (dot) cue timings, with or without hours
var cueTimingRegex = regexp.MustCompile(
	`^\s*((?:\d+:)?\d{1,2}:\d{2}[,.]\d{3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[,.]\d{3})`,
)

// parses hh:mm:ss,mmm, hh:mm:ss.mmm or mm:ss.mmm
func parseCueTimestamp(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	sep := strings.LastIndexAny(ts, ",.")
	if sep < 0 {
		return 0, fmt.Errorf("missing milliseconds in %q", ts)
	}
	ms, err := strconv.Atoi(ts[sep+1:])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds in %q: %w", ts, err)
	}

	parts := strings.Split(ts[:sep], ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, err
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// parses h:mm:ss.cc
func parseASSTimestamp(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid ASS timestamp %q", ts)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}

	// split seconds and centiseconds
	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid ASS timestamp %q", ts)
	}
	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, err
	}
	centis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, err
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond, nil
}

func formatSRTTime(d time.Duration) string {
	h, m, s, ms := splitMillis(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTime(d time.Duration) string {
	h, m, s, ms := splitMillis(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func formatASSTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	centis := int64((d + 5*time.Millisecond) / (10 * time.Millisecond))
	h := centis / 360000
	m := (centis / 6000) % 60
	s := (centis / 100) % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, centis%100)
}

func splitMillis(d time.Duration) (h, m, s, ms int64) {
	if d < 0 {
		d = 0
	}
	total := d.Round(time.Millisecond).Milliseconds()
	return total / 3600000, (total / 60000) % 60, (total / 1000) % 60, total % 1000
}
