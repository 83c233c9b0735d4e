package service

import (
	"github.com/aabtools/apkset/internal/domain"
	apkerrors "github.com/aabtools/apkset/internal/errors"
	"github.com/aabtools/apkset/internal/signing"
)

// BuildApksCommand is the fully populated configuration of one build, either
// assembled programmatically or mapped from command-line flags. It is a plain
// record; Validate enforces the structural invariants in one place.
type BuildApksCommand struct {
	BundlePath string
	OutputPath string

	Mode                   domain.ApkBuildMode
	OptimizationDimensions []domain.OptimizationDimension

	// Modules restricts which modules are fused into the output archive.
	// Only meaningful for the fat-archive modes.
	Modules []string

	// MaxThreads bounds the worker pool. Zero means platform default.
	MaxThreads int

	Overwrite bool

	// DeviceSpecPath points at a JSON device spec; GenerateOnlyForConnectedDevice
	// queries the device identified by DeviceID instead.
	DeviceSpecPath                 string
	GenerateOnlyForConnectedDevice bool
	DeviceID                       string

	Signing signing.Options
}

// Validate checks the invariants between mode, dimensions, module selection,
// thread count and signing inputs. It returns the first violation found; a
// command that validates cleanly is safe to execute.
func (c BuildApksCommand) Validate() error {
	if c.BundlePath == "" {
		return apkerrors.InvalidCommand("Missing required flag --bundle.")
	}
	if c.OutputPath == "" {
		return apkerrors.InvalidCommand("Missing required flag --output.")
	}

	mode := c.Mode.OrDefault()
	if len(c.OptimizationDimensions) > 0 && mode != domain.DefaultMode {
		return apkerrors.InvalidCommand(
			"Optimization dimension can be only set when running with 'default' mode flag.")
	}

	if len(c.Modules) > 0 && mode == domain.DefaultMode {
		return apkerrors.InvalidCommand(
			"Modules can be only set when running with 'universal', 'system' or 'system_compressed' mode flag.")
	}

	if c.MaxThreads < 0 {
		return maxThreadsError(c.MaxThreads)
	}

	if c.DeviceID != "" && !c.GenerateOnlyForConnectedDevice {
		return apkerrors.InvalidCommand(
			"Flag --device-id can only be used with --connected-device.")
	}
	if c.DeviceSpecPath != "" && c.GenerateOnlyForConnectedDevice {
		return apkerrors.InvalidCommand(
			"Flags --device-spec and --connected-device cannot be used together.")
	}

	return signing.ValidateKeystorePairs(c.Signing)
}

// CheckMaxThreads rejects an explicitly supplied non-positive thread count.
// Called from the flag layer, where zero is a user value rather than the
// unset default.
func CheckMaxThreads(value int) error {
	if value <= 0 {
		return maxThreadsError(value)
	}
	return nil
}

func maxThreadsError(value int) error {
	return apkerrors.InvalidCommand("flag --max-threads has illegal value: %d, the value must be positive", value)
}
