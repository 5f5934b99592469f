// Package power reports whether the device is in a power-saving mode.
package power

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultProfilePath is the ACPI platform profile exposed by Linux.
const DefaultProfilePath = "/sys/firmware/acpi/platform_profile"

// Probe reports the power-save state.
type Probe interface {
	IsPowerSaveActive(ctx context.Context) (bool, error)
}

// SysfsProbe reads the ACPI platform profile. "low-power" and "quiet" count
// as power saving.
type SysfsProbe struct {
	Path string
}

// NewSysfsProbe creates a probe for path, or DefaultProfilePath if empty.
func NewSysfsProbe(path string) *SysfsProbe {
	if path == "" {
		path = DefaultProfilePath
	}
	return &SysfsProbe{Path: path}
}

// IsPowerSaveActive implements Probe.
func (p *SysfsProbe) IsPowerSaveActive(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return false, fmt.Errorf("read platform profile: %w", err)
	}
	return IsPowerSaveProfile(string(data)), nil
}

// IsPowerSaveProfile reports whether a platform_profile value is a
// power-saving one.
func IsPowerSaveProfile(profile string) bool {
	switch strings.TrimSpace(strings.ToLower(profile)) {
	case "low-power", "quiet":
		return true
	default:
		return false
	}
}

// Resolver is a probe backed by a function, used to follow runtime settings.
type Resolver func() bool

// IsPowerSaveActive implements Probe.
func (r Resolver) IsPowerSaveActive(context.Context) (bool, error) {
	return r(), nil
}
