package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Calendar durations missing from the time package.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// unitTable maps a unit suffix to its value in the base unit.
type unitTable map[string]float64

var (
	durationUnits = unitTable{
		"ns": float64(time.Nanosecond),
		"us": float64(time.Microsecond),
		"µs": float64(time.Microsecond),
		"ms": float64(time.Millisecond),
		"s":  float64(time.Second),
		"m":  float64(time.Minute),
		"h":  float64(time.Hour),
		"d":  float64(Day),
		"w":  float64(Week),
	}
	distanceUnits = unitTable{
		"":   1,
		"m":  1,
		"km": 1000,
		"nm": 1852,
		"ft": 0.3048,
	}

	// quantity matches one "<number><unit>" term.
	quantity = regexp.MustCompile(`([0-9]*\.?[0-9]+)\s*([a-zµ]*)`)
)

// sum adds up the terms of s. Every byte of s must belong to a term.
func (u unitTable) sum(s string) (float64, error) {
	terms := quantity.FindAllStringSubmatchIndex(s, -1)
	if len(terms) == 0 {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	var total float64
	pos := 0
	for _, t := range terms {
		if t[0] != pos {
			return 0, fmt.Errorf("invalid quantity %q", s)
		}
		pos = t[1]
		num, unit := s[t[2]:t[3]], s[t[4]:t[5]]
		val, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q in %q", num, s)
		}
		mult, ok := u[unit]
		if !ok {
			return 0, fmt.Errorf("unknown unit %q in %q", unit, s)
		}
		total += val * mult
	}
	if pos != len(s) {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return total, nil
}

// Duration is a time.Duration that also accepts d (day) and w (week) in YAML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Std().String(), nil
}

// ParseDuration parses "90s", "1.5h" or composites like "1d12h". Blank is zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, nil
	case !strings.ContainsAny(s, "dw"):
		return time.ParseDuration(s)
	}
	total, err := durationUnits.sum(s)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}
	return time.Duration(total), nil
}

// Distance is a length in meters.
type Distance float64

// Meters returns the value as a plain float.
func (d Distance) Meters() float64 { return float64(d) }

// UnmarshalYAML implements yaml.Unmarshaler. Bare numbers are meters.
func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseDistance(s)
	if err != nil {
		return err
	}
	*d = Distance(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Distance) MarshalYAML() (any, error) {
	return fmt.Sprintf("%.2fm", d.Meters()), nil
}

// ParseDistance parses "25m", "1.5km", "1nm", "30ft" or a bare number of meters.
func ParseDistance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := distanceUnits.sum(s)
	if err != nil {
		return 0, fmt.Errorf("distance: %w", err)
	}
	return v, nil
}
