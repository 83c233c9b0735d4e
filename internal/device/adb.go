package device

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// AdbQuerier queries connected devices through the adb binary.
type AdbQuerier struct {
	// Path is the adb binary; defaults to "adb" on the search path.
	Path string
}

// DeviceSpec reads the configuration of the device identified by deviceID,
// or of the only connected device when deviceID is empty.
func (q AdbQuerier) DeviceSpec(ctx context.Context, deviceID string) (Spec, error) {
	spec := Spec{}

	sdk, err := q.getProp(ctx, deviceID, "ro.build.version.sdk")
	if err != nil {
		return Spec{}, err
	}
	spec.SdkVersion, err = strconv.Atoi(sdk)
	if err != nil || spec.SdkVersion <= 0 {
		return Spec{}, fmt.Errorf("device reported invalid sdk version %q", sdk)
	}

	density, err := q.getProp(ctx, deviceID, "ro.sf.lcd_density")
	if err == nil {
		spec.ScreenDensity, _ = strconv.Atoi(density)
	}

	abis, err := q.getProp(ctx, deviceID, "ro.product.cpu.abilist")
	if err != nil {
		return Spec{}, err
	}
	for _, abi := range strings.Split(abis, ",") {
		if abi = strings.TrimSpace(abi); abi != "" {
			spec.SupportedAbis = append(spec.SupportedAbis, abi)
		}
	}

	if locale, err := q.getProp(ctx, deviceID, "persist.sys.locale"); err == nil && locale != "" {
		spec.SupportedLocales = append(spec.SupportedLocales, locale)
	}

	return spec, nil
}

func (q AdbQuerier) getProp(ctx context.Context, deviceID, prop string) (string, error) {
	path := q.Path
	if path == "" {
		path = "adb"
	}
	args := []string{}
	if deviceID != "" {
		args = append(args, "-s", deviceID)
	}
	args = append(args, "shell", "getprop", prop)

	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", fmt.Errorf("adb getprop %s failed: %w", prop, err)
	}
	return strings.TrimSpace(string(out)), nil
}
