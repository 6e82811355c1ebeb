package util

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// timeUnits is ordered so that longer suffixes are tried before the
// suffixes they end with.
var timeUnits = []struct {
	suffix     string
	multiplier time.Duration
}{
	{"nanos", time.Nanosecond},
	{"micros", time.Microsecond},
	{"ms", time.Millisecond},
	{"s", time.Second},
	{"m", time.Minute},
	{"h", time.Hour},
	{"d", Day},
	{"w", Week},
}

// ParseTimeValue parses a single number followed by a time unit, such as
// "30s", "500ms" or "2d", as used by request parameters like timeout.
// "-1" and "0" are accepted without a unit. A negative result means no limit.
func ParseTimeValue(s string) (time.Duration, error) {
	value := strings.TrimSpace(s)
	switch value {
	case "":
		return 0, fmt.Errorf("failed to parse time value: empty value")
	case "-1":
		return -1, nil
	case "0":
		return 0, nil
	}
	for _, unit := range timeUnits {
		numStr, ok := strings.CutSuffix(value, unit.suffix)
		if !ok {
			continue
		}
		if numStr == "" {
			return 0, fmt.Errorf("failed to parse time value [%s]: missing number before '%s'", s, unit.suffix)
		}
		num, err := strconv.ParseInt(numStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse time value [%s]: invalid number '%s': %w", s, numStr, err)
		}
		if num < 0 {
			return 0, fmt.Errorf("failed to parse time value [%s]: negative values other than -1 are not allowed", s)
		}
		if num > int64(math.MaxInt64)/int64(unit.multiplier) {
			return 0, fmt.Errorf("failed to parse time value [%s]: duration overflow", s)
		}
		return time.Duration(num) * unit.multiplier, nil
	}
	return 0, fmt.Errorf("failed to parse time value [%s]: unit is missing or unrecognized", s)
}

// ExtendedParseDuration parses a Go duration string, falling back to
// ParseTimeValue for the units Go does not know, such as days.
func ExtendedParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	return ParseTimeValue(s)
}

// Duration is a time.Duration that reads and writes as a string such as
// "30s" or "2d" in configuration files.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if numErr := json.Unmarshal(b, &n); numErr != nil {
			return fmt.Errorf("invalid duration %s: %w", b, err)
		}
		*d = Duration(n)
		return nil
	}
	v, err := ExtendedParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
