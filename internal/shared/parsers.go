package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	sizePattern     = regexp.MustCompile(`(?i)^(\d+)\s*(K|M|G|T)?B?$`)
	durationPattern = regexp.MustCompile(`^(\d+)\s*(d|h|m|s)$`)

	sizeShift = map[string]uint{"": 0, "K": 10, "M": 20, "G": 30, "T": 40}

	durationUnit = map[string]time.Duration{
		"d": 24 * time.Hour,
		"h": time.Hour,
		"m": time.Minute,
		"s": time.Second,
	}
)

// ParseSize turns a human readable size such as "5MB" or "512K" into bytes.
// Units are binary.
func ParseSize(sizeStr string) (int64, error) {
	matches := sizePattern.FindStringSubmatch(strings.TrimSpace(sizeStr))
	if matches == nil {
		return 0, fmt.Errorf("invalid size format: %s", sizeStr)
	}
	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number: %s", matches[1])
	}
	return value << sizeShift[strings.ToUpper(matches[2])], nil
}

// ParseDuration accepts "<n>d", "<n>h", "<n>m" or "<n>s".
// "0" means disabled and yields 0.
func ParseDuration(durationStr string) (time.Duration, error) {
	s := strings.TrimSpace(durationStr)
	if s == "0" {
		return 0, nil
	}
	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration format: %s", durationStr)
	}
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration number: %s", matches[1])
	}
	return time.Duration(value) * durationUnit[matches[2]], nil
}
