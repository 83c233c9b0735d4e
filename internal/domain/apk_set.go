package domain

import (
	"github.com/aabtools/apkset/internal/sizes"
)

// SplitApk is one generated installable archive: the entries selected for a
// single device configuration of a single module.
type SplitApk struct {
	// ModuleName is the bundle module this split was cut from.
	ModuleName string

	// SplitID distinguishes splits of the same module, e.g. "x86" or
	// "hdpi". Empty for the master split and for universal archives.
	SplitID string

	// Config is the partial device configuration this split targets.
	Config sizes.SizeConfiguration

	// Standalone marks a fat archive that is not a split of any module
	// (universal and system builds).
	Standalone bool

	Entries []ModuleEntry
}

// FileName returns the archive file name for this split inside the APK set.
func (a SplitApk) FileName() string {
	if a.Standalone {
		return a.ModuleName + ".apk"
	}
	if a.SplitID == "" {
		return a.ModuleName + "-master.apk"
	}
	return a.ModuleName + "-" + a.SplitID + ".apk"
}

// ApkSet is the finished build output before serialization: the generated
// splits, the consolidated size table and the signing status.
type ApkSet struct {
	PackageName string
	Apks        []SplitApk
	Sizes       sizes.ConfigurationSizes

	// SignerCertDigest is the hex SHA-256 of the main signing certificate,
	// empty for unsigned output.
	SignerCertDigest string

	// StampSource is the provenance source URL when a stamp was requested.
	StampSource string
	Stamped     bool
}
