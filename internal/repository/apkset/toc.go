package apkset

import (
	"sort"

	"github.com/aabtools/apkset/internal/domain"
	"github.com/aabtools/apkset/internal/sizes"
)

// tocPath is the metadata entry inside every APK set archive.
const tocPath = "toc.json"

// TargetingJSON is the serialized form of a partial device configuration.
type TargetingJSON struct {
	Abi                      string `json:"abi,omitempty"`
	ScreenDensity            string `json:"screen_density,omitempty"`
	SdkVersion               string `json:"sdk_version,omitempty"`
	Locale                   string `json:"locale,omitempty"`
	TextureCompressionFormat string `json:"texture_compression_format,omitempty"`
	DeviceTier               string `json:"device_tier,omitempty"`
	SdkRuntime               string `json:"sdk_runtime,omitempty"`
}

// ApkDescription is one generated archive as listed in the table of contents.
type ApkDescription struct {
	ModuleName string        `json:"module_name"`
	SplitID    string        `json:"split_id,omitempty"`
	Path       string        `json:"path"`
	Targeting  TargetingJSON `json:"targeting"`
}

// SizeEstimate is one row of the consolidated download-size table.
type SizeEstimate struct {
	Targeting TargetingJSON `json:"targeting"`
	MinBytes  int64         `json:"min_bytes"`
	MaxBytes  int64         `json:"max_bytes"`
}

// StampJSON records the provenance stamp applied to the set.
type StampJSON struct {
	Source string `json:"source,omitempty"`
}

// TableOfContents is the toc.json payload describing an APK set.
type TableOfContents struct {
	PackageName      string           `json:"package_name"`
	Apks             []ApkDescription `json:"apks"`
	SizeEstimates    []SizeEstimate   `json:"size_estimates"`
	SignerCertDigest string           `json:"signer_cert_digest,omitempty"`
	Stamp            *StampJSON       `json:"stamp,omitempty"`
}

func targetingJSON(config sizes.SizeConfiguration) TargetingJSON {
	return TargetingJSON{
		Abi:                      config.Abi,
		ScreenDensity:            config.ScreenDensity,
		SdkVersion:               config.SdkVersion,
		Locale:                   config.Locale,
		TextureCompressionFormat: config.TextureCompressionFormat,
		DeviceTier:               config.DeviceTier,
		SdkRuntime:               config.SdkRuntime,
	}
}

// buildTableOfContents flattens an ApkSet into its serialized metadata. Size
// rows are ordered deterministically so repeated builds produce identical
// archives.
func buildTableOfContents(apkSet domain.ApkSet) TableOfContents {
	toc := TableOfContents{
		PackageName:      apkSet.PackageName,
		SignerCertDigest: apkSet.SignerCertDigest,
	}
	for _, apk := range apkSet.Apks {
		toc.Apks = append(toc.Apks, ApkDescription{
			ModuleName: apk.ModuleName,
			SplitID:    apk.SplitID,
			Path:       "splits/" + apk.FileName(),
			Targeting:  targetingJSON(apk.Config),
		})
	}

	for config, minBytes := range apkSet.Sizes.MinSizeConfigurationMap {
		toc.SizeEstimates = append(toc.SizeEstimates, SizeEstimate{
			Targeting: targetingJSON(config),
			MinBytes:  minBytes,
			MaxBytes:  apkSet.Sizes.MaxSizeConfigurationMap[config],
		})
	}
	sort.Slice(toc.SizeEstimates, func(i, j int) bool {
		return toc.SizeEstimates[i].Targeting.less(toc.SizeEstimates[j].Targeting)
	})

	if apkSet.Stamped {
		toc.Stamp = &StampJSON{Source: apkSet.StampSource}
	}
	return toc
}

func (t TargetingJSON) less(other TargetingJSON) bool {
	a := [...]string{t.Abi, t.ScreenDensity, t.SdkVersion, t.Locale, t.TextureCompressionFormat, t.DeviceTier, t.SdkRuntime}
	b := [...]string{other.Abi, other.ScreenDensity, other.SdkVersion, other.Locale, other.TextureCompressionFormat, other.DeviceTier, other.SdkRuntime}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
