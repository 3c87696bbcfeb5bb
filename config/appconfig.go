package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares one setting. It is readable from config files, as the
// environment variable CONTACT_<NAME>, and as the flag --<name>.
type AppKey struct {
	Name string

	// Default fixes the value's type: string, int, int64, bool,
	// time.Duration or []string.
	Default any

	// Desc appears in --help.
	Desc string
}

// AppConfigValues maps AppKey.Name to its resolved value. Values already have
// the type of the key's Default, so the accessors never parse.
type AppConfigValues map[string]any

// String returns the value of a string key, or "".
func (a AppConfigValues) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the value of an int key, or 0.
func (a AppConfigValues) Int(key string) int {
	n, _ := a[key].(int)
	return n
}

// Int64 returns the value of an int64 key, or 0.
func (a AppConfigValues) Int64(key string) int64 {
	n, _ := a[key].(int64)
	return n
}

// Bool returns the value of a bool key, or false.
func (a AppConfigValues) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// StringSlice returns the value of a []string key, or nil.
func (a AppConfigValues) StringSlice(key string) []string {
	s, _ := a[key].([]string)
	return s
}

// Duration returns the value of a time.Duration key, or def when the key is
// absent.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	if d, ok := a[key].(time.Duration); ok {
		return d
	}
	return def
}

// registerFlags adds one flag per key. Lists and durations are taken as
// strings and parsed during resolve.
func registerFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, k := range keys {
		if fs.Lookup(k.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", k.Name)
		}
		switch d := k.Default.(type) {
		case string:
			fs.String(k.Name, d, k.Desc)
		case int:
			fs.Int(k.Name, d, k.Desc)
		case int64:
			fs.Int64(k.Name, d, k.Desc)
		case bool:
			fs.Bool(k.Name, d, k.Desc)
		case time.Duration:
			fs.String(k.Name, d.String(), k.Desc+` (e.g. "15s", or seconds)`)
		case []string:
			fs.String(k.Name, strings.Join(d, ","), k.Desc+` (comma list or JSON array)`)
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", k.Name, k.Default)
		}
	}
	return nil
}

// resolve reads every key from v (file, env, default) and the explicitly set
// flags in fs, converting each to its Default's type. All conversion
// failures are returned together.
func resolve(v *viper.Viper, fs *pflag.FlagSet, keys []AppKey) (AppConfigValues, error) {
	for _, k := range keys {
		v.SetDefault(k.Name, k.Default)
		_ = v.BindEnv(k.Name)
		if f := fs.Lookup(k.Name); f != nil && f.Changed {
			if err := v.BindPFlag(k.Name, f); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", k.Name, err)
			}
		}
	}

	vals := make(AppConfigValues, len(keys))
	var errs []error
	for _, k := range keys {
		val, err := convert(k.Default, v.Get(k.Name))
		if err != nil {
			errs = append(errs, fmt.Errorf("config key %q: %w", k.Name, err))
			continue
		}
		vals[k.Name] = val
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return vals, nil
}

// convert coerces raw to the type of def.
func convert(def, raw any) (any, error) {
	switch d := def.(type) {
	case string:
		return cast.ToStringE(raw)
	case int:
		return cast.ToIntE(raw)
	case int64:
		return cast.ToInt64E(raw)
	case bool:
		return cast.ToBoolE(raw)
	case time.Duration:
		if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
			return d, nil
		}
		return toDuration(raw)
	case []string:
		return toStringSlice(raw)
	}
	return nil, fmt.Errorf("unsupported type %T", def)
}

// toDuration accepts a Go duration string ("90s", "1m30s") or whole seconds
// given as a number or digits-only string. The result must be positive.
func toDuration(raw any) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			d = time.Duration(n) * time.Second
		} else if parsed, err := time.ParseDuration(s); err == nil {
			d = parsed
		} else {
			return 0, fmt.Errorf("cannot parse duration %q", t)
		}
	default:
		secs, err := cast.ToFloat64E(raw)
		if err != nil {
			return 0, fmt.Errorf("cannot use %v (%T) as a duration", raw, raw)
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %v", raw)
	}
	return d, nil
}

// toStringSlice accepts a JSON array string, a comma-separated string, or a
// list from a config file. Blank entries are dropped.
func toStringSlice(raw any) ([]string, error) {
	s, ok := raw.(string)
	if !ok {
		list, err := cast.ToStringSliceE(raw)
		if err != nil {
			return nil, err
		}
		return compact(list), nil
	}

	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, fmt.Errorf("invalid JSON array %q: %w", s, err)
		}
		return compact(list), nil
	}
	return compact(strings.Split(s, ",")), nil
}

func compact(list []string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// redacted turns vals into log fields, hiding anything that looks like a
// credential.
func redacted(keys []AppKey, vals AppConfigValues) []zap.Field {
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if isSecret(k.Name) {
			fields = append(fields, zap.String(k.Name, "[REDACTED]"))
			continue
		}
		fields = append(fields, zap.Any(k.Name, vals[k.Name]))
	}
	return fields
}

func isSecret(name string) bool {
	name = strings.ToLower(name)
	for _, marker := range [...]string{"password", "secret", "token", "access_key"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
