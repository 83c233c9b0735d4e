// Package device describes target device configurations used to narrow
// splitting to what one physical device needs. Live device enumeration sits
// behind the Querier interface; this package only defines the data model and
// the JSON device-spec format.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Spec is one device's configuration as reported by the platform.
type Spec struct {
	SupportedAbis    []string `json:"supportedAbis"`
	ScreenDensity    int      `json:"screenDensity"`
	SdkVersion       int      `json:"sdkVersion"`
	SupportedLocales []string `json:"supportedLocales"`
}

// Querier returns the configuration of a connected device. Implementations
// wrap the platform tooling (adb); the build core never talks to a device
// directly.
type Querier interface {
	DeviceSpec(ctx context.Context, deviceID string) (Spec, error)
}

// ReadSpec parses a device spec JSON file.
func ReadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to read device spec: %w", err)
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("invalid device spec %s: %w", path, err)
	}
	if spec.SdkVersion <= 0 {
		return Spec{}, fmt.Errorf("device spec %s is missing a positive sdkVersion", path)
	}
	return spec, nil
}

// SupportsAbi reports whether the device supports the given ABI.
func (s Spec) SupportsAbi(abi string) bool {
	for _, supported := range s.SupportedAbis {
		if supported == abi {
			return true
		}
	}
	return false
}

// DensityBucket returns the resource density bucket for the device's screen
// density.
func (s Spec) DensityBucket() string {
	switch {
	case s.ScreenDensity <= 0:
		return ""
	case s.ScreenDensity <= 120:
		return "ldpi"
	case s.ScreenDensity <= 160:
		return "mdpi"
	case s.ScreenDensity <= 213:
		return "tvdpi"
	case s.ScreenDensity <= 240:
		return "hdpi"
	case s.ScreenDensity <= 320:
		return "xhdpi"
	case s.ScreenDensity <= 480:
		return "xxhdpi"
	default:
		return "xxxhdpi"
	}
}

// SupportsLocale reports whether the device declares the given locale.
func (s Spec) SupportsLocale(locale string) bool {
	for _, supported := range s.SupportedLocales {
		if supported == locale {
			return true
		}
	}
	return false
}
