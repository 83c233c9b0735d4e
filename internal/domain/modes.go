package domain

import (
	"fmt"
	"strings"
)

// ApkBuildMode selects the build strategy for the APK set.
type ApkBuildMode string

const (
	// DefaultMode produces one split APK per targeted device configuration.
	DefaultMode ApkBuildMode = "default"
	// UniversalMode produces a single fat APK covering every device.
	UniversalMode ApkBuildMode = "universal"
	// SystemMode produces an uncompressed preinstalled-system variant.
	SystemMode ApkBuildMode = "system"
	// SystemCompressedMode produces a compressed preinstalled-system variant.
	SystemCompressedMode ApkBuildMode = "system_compressed"
)

// ParseApkBuildMode parses a mode flag value, case-insensitively.
func ParseApkBuildMode(value string) (ApkBuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "default":
		return DefaultMode, nil
	case "universal":
		return UniversalMode, nil
	case "system":
		return SystemMode, nil
	case "system_compressed":
		return SystemCompressedMode, nil
	default:
		return "", fmt.Errorf("unknown build mode: %q", value)
	}
}

// OrDefault maps the zero value to DefaultMode, mirroring ParseApkBuildMode's
// treatment of an empty flag. Callers comparing modes must normalize first so
// a zero-valued command behaves like a default build.
func (m ApkBuildMode) OrDefault() ApkBuildMode {
	if m == "" {
		return DefaultMode
	}
	return m
}

// IsAnySystemMode reports whether the mode is one of the preinstalled-system
// variants.
func (m ApkBuildMode) IsAnySystemMode() bool {
	return m == SystemMode || m == SystemCompressedMode
}

// OptimizationDimension is an axis along which device-specific splitting
// occurs.
type OptimizationDimension string

const (
	DimensionAbi                      OptimizationDimension = "abi"
	DimensionScreenDensity            OptimizationDimension = "screen_density"
	DimensionLanguage                 OptimizationDimension = "language"
	DimensionTextureCompressionFormat OptimizationDimension = "texture_compression_format"
	DimensionDeviceTier               OptimizationDimension = "device_tier"
)

// AllDimensions lists every supported optimization dimension in canonical
// order.
var AllDimensions = []OptimizationDimension{
	DimensionAbi,
	DimensionScreenDensity,
	DimensionLanguage,
	DimensionTextureCompressionFormat,
	DimensionDeviceTier,
}

// ParseOptimizationDimension parses an optimize-for flag value.
func ParseOptimizationDimension(value string) (OptimizationDimension, error) {
	for _, dim := range AllDimensions {
		if strings.EqualFold(strings.TrimSpace(value), string(dim)) {
			return dim, nil
		}
	}
	return "", fmt.Errorf("unknown optimization dimension: %q", value)
}
