package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

func validateDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	return nil
}

// optional formats an unknown value as a dash.
func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatDuration(seconds float64) string {
	return (time.Duration(seconds) * time.Second).String()
}
