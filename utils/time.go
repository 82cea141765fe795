// utils/time.go
package utils

import (
	"fmt"
	"regexp"
	"strconv"
)

var runTimePattern = regexp.MustCompile(`^(\d{2}):(\d{2})\.(\d{2})$`)

// ParseRunTime converts an "MM:SS.cc" run time into milliseconds. Bounds:
// 0≤MM≤59, 0≤SS≤59, 0≤cc≤99.
func ParseRunTime(value string) (int64, error) {
	m := runTimePattern.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("run time %q must be formatted MM:SS.cc", value)
	}
	minutes, _ := strconv.ParseInt(m[1], 10, 64)
	seconds, _ := strconv.ParseInt(m[2], 10, 64)
	centis, _ := strconv.ParseInt(m[3], 10, 64)
	if minutes > 59 {
		return 0, fmt.Errorf("run time %q: minutes must be 00-59", value)
	}
	if seconds > 59 {
		return 0, fmt.Errorf("run time %q: seconds must be 00-59", value)
	}
	return minutes*60000 + seconds*1000 + centis*10, nil
}

// FormatRunTime renders milliseconds back as "MM:SS.cc".
func FormatRunTime(timeMs int64) string {
	if timeMs < 0 {
		timeMs = 0
	}
	minutes := timeMs / 60000
	seconds := (timeMs % 60000) / 1000
	centis := (timeMs % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
}
