package signing

import (
	"os"
	"path/filepath"
)

// EnvironmentProvider abstracts the process environment so the signing
// fallback chain is a pure function of its inputs and testable without
// touching real environment or filesystem state.
type EnvironmentProvider interface {
	// Getenv returns the named environment variable and whether it is set.
	Getenv(name string) (string, bool)

	// HomeDir returns the current user's home directory.
	HomeDir() (string, bool)

	// FileExists reports whether a regular file exists at the given path.
	FileExists(path string) bool
}

// OSEnvironment is the EnvironmentProvider backed by the real process
// environment.
type OSEnvironment struct{}

func (OSEnvironment) Getenv(name string) (string, bool) {
	return os.LookupEnv(name)
}

func (OSEnvironment) HomeDir() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return home, true
}

func (OSEnvironment) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

const (
	androidSdkHomeVar = "ANDROID_SDK_HOME"

	debugKeystoreAlias    = "AndroidDebugKey"
	debugKeystorePassword = "android"
)

// debugKeystorePath returns the conventional debug keystore location for the
// given environment, if one exists on disk.
func debugKeystorePath(env EnvironmentProvider) (string, bool) {
	var roots []string
	if sdkHome, ok := env.Getenv(androidSdkHomeVar); ok && sdkHome != "" {
		roots = append(roots, sdkHome)
	}
	if home, ok := env.HomeDir(); ok && home != "" {
		roots = append(roots, home)
	}
	for _, root := range roots {
		candidate := filepath.Join(root, ".android", "debug.keystore")
		if env.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}
