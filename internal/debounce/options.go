package debounce

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWait applies when nothing else configures the default wait.
const DefaultWait = 30 * time.Second

// Options are the construction-time settings recognized by OptionsFrom.
type Options struct {
	// DefaultWait is used by Submit and by SubmitWait calls with a
	// non-positive wait.
	DefaultWait time.Duration
}

// OptionsFrom normalizes the accepted option shapes:
//
//   - nil: defaults
//   - a bare number of milliseconds, or a time.Duration: the default wait
//   - a numeric or duration string ("250", "250ms")
//   - Options or *Options
//   - a map with "default_wait" or "wait" (default_wait wins)
//
// Zero values fall back to DefaultWait.
func OptionsFrom(v any) (Options, error) {
	var opts Options
	switch t := v.(type) {
	case nil:
	case Options:
		opts = t
	case *Options:
		if t != nil {
			opts = *t
		}
	case map[string]any:
		d, err := waitFromMap(t)
		if err != nil {
			return Options{}, err
		}
		opts.DefaultWait = d
	default:
		d, err := parseWait(v)
		if err != nil {
			return Options{}, err
		}
		opts.DefaultWait = d
	}
	if opts.DefaultWait <= 0 {
		opts.DefaultWait = DefaultWait
	}
	return opts, nil
}

func waitFromMap(m map[string]any) (time.Duration, error) {
	for _, k := range []string{"default_wait", "wait"} {
		raw, ok := m[k]
		if !ok || raw == nil {
			continue
		}
		d, err := parseWait(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", k, err)
		}
		if d > 0 {
			return d, nil
		}
	}
	return 0, nil
}

// parseWait converts a wait value to a duration. Plain numbers are
// milliseconds.
func parseWait(v any) (time.Duration, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Millisecond, nil
	case int32:
		return time.Duration(t) * time.Millisecond, nil
	case int64:
		return time.Duration(t) * time.Millisecond, nil
	case uint:
		return time.Duration(t) * time.Millisecond, nil
	case uint32:
		return time.Duration(t) * time.Millisecond, nil
	case uint64:
		return time.Duration(t) * time.Millisecond, nil
	case float32:
		return time.Duration(float64(t) * float64(time.Millisecond)), nil
	case float64:
		return time.Duration(t * float64(time.Millisecond)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Millisecond)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid wait %q: %w", s, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("unsupported wait type %T", v)
	}
}
