package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/device"
	"github.com/aabtools/apkset/internal/domain"
	"github.com/aabtools/apkset/internal/sizes"
)

// unitResult is the output of one splitting unit: the archives it cut and
// the partial size estimate for its dimension.
type unitResult struct {
	apks  []domain.SplitApk
	sizes sizes.ConfigurationSizes
}

// splitUnit is one independent work item scheduled on the worker pool.
type splitUnit func(ctx context.Context) (unitResult, error)

var knownAbis = map[string]struct{}{
	"armeabi":     {},
	"armeabi-v7a": {},
	"arm64-v8a":   {},
	"x86":         {},
	"x86_64":      {},
	"mips":        {},
	"mips64":      {},
	"riscv64":     {},
}

var knownDensities = map[string]struct{}{
	"ldpi":    {},
	"mdpi":    {},
	"tvdpi":   {},
	"hdpi":    {},
	"xhdpi":   {},
	"xxhdpi":  {},
	"xxxhdpi": {},
	"nodpi":   {},
}

// dimensionValue extracts the targeting value of an entry for one dimension,
// or "" when the entry is not targeted along that dimension.
func dimensionValue(path string, dim domain.OptimizationDimension) string {
	switch dim {
	case domain.DimensionAbi:
		return abiOf(path)
	case domain.DimensionScreenDensity:
		return densityOf(path)
	case domain.DimensionLanguage:
		return languageOf(path)
	case domain.DimensionTextureCompressionFormat:
		return assetSuffixOf(path, "#tcf_")
	case domain.DimensionDeviceTier:
		return assetSuffixOf(path, "#tier_")
	}
	return ""
}

func abiOf(path string) string {
	rest, ok := strings.CutPrefix(path, domain.NativeLibsDir+"/")
	if !ok {
		return ""
	}
	abi, _, _ := strings.Cut(rest, "/")
	if _, known := knownAbis[abi]; known {
		return abi
	}
	return ""
}

func densityOf(path string) string {
	if !strings.HasPrefix(path, "res/") {
		return ""
	}
	dir, _, _ := strings.Cut(strings.TrimPrefix(path, "res/"), "/")
	for _, qualifier := range strings.Split(dir, "-")[1:] {
		if _, known := knownDensities[qualifier]; known {
			return qualifier
		}
	}
	return ""
}

func languageOf(path string) string {
	if !strings.HasPrefix(path, "res/") {
		return ""
	}
	dir, _, _ := strings.Cut(strings.TrimPrefix(path, "res/"), "/")
	qualifiers := strings.Split(dir, "-")
	if qualifiers[0] != "values" && qualifiers[0] != "raw" {
		return ""
	}
	for _, qualifier := range qualifiers[1:] {
		if _, isDensity := knownDensities[qualifier]; isDensity {
			continue
		}
		if len(qualifier) == 2 && qualifier == strings.ToLower(qualifier) {
			return qualifier
		}
	}
	return ""
}

func assetSuffixOf(path, marker string) string {
	if !strings.HasPrefix(path, "assets/") {
		return ""
	}
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	rest := path[idx+len(marker):]
	value, _, _ := strings.Cut(rest, "/")
	return value
}

// configFor builds the partial configuration constraining one dimension to
// one value.
func configFor(dim domain.OptimizationDimension, value string) sizes.SizeConfiguration {
	var config sizes.SizeConfiguration
	switch dim {
	case domain.DimensionAbi:
		config.Abi = value
	case domain.DimensionScreenDensity:
		config.ScreenDensity = value
	case domain.DimensionLanguage:
		config.Locale = value
	case domain.DimensionTextureCompressionFormat:
		config.TextureCompressionFormat = value
	case domain.DimensionDeviceTier:
		config.DeviceTier = value
	}
	return config
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// entrySizes returns the stored and compressed byte counts for one entry.
// The compressed figure is measured by running the content through deflate,
// not guessed; entries forced uncompressed count at full size in both.
func entrySizes(entry domain.ModuleEntry) (raw, compressed int64, err error) {
	raw, err = entry.Content.Size()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to size entry %s: %w", entry.Path, err)
	}
	if entry.ForceUncompressed {
		return raw, raw, nil
	}

	reader, err := entry.Content.Open()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open entry %s: %w", entry.Path, err)
	}
	defer reader.Close()

	counter := &countingWriter{}
	deflater, err := flate.NewWriter(counter, flate.DefaultCompression)
	if err != nil {
		return 0, 0, err
	}
	if _, err := io.Copy(deflater, reader); err != nil {
		return 0, 0, fmt.Errorf("failed to compress entry %s: %w", entry.Path, err)
	}
	if err := deflater.Close(); err != nil {
		return 0, 0, err
	}

	compressed = counter.n
	if compressed > raw {
		// The archive would store this entry instead.
		compressed = raw
	}
	return raw, compressed, nil
}

// dimensionUnit cuts every module along a single dimension. Entries not
// targeted on that dimension are left for the master unit; values absent
// from the device spec are dropped.
func dimensionUnit(bundle domain.AppBundle, dim domain.OptimizationDimension, spec *device.Spec, compiler ResourceCompiler) splitUnit {
	return func(ctx context.Context) (unitResult, error) {
		minMap := make(map[sizes.SizeConfiguration]int64)
		maxMap := make(map[sizes.SizeConfiguration]int64)
		var apks []domain.SplitApk

		for _, module := range bundle.Modules {
			byValue := make(map[string][]domain.ModuleEntry)
			for _, entry := range module.Entries {
				value := dimensionValue(entry.Path, dim)
				if value == "" {
					continue
				}
				if spec != nil && !deviceMatches(dim, value, spec) {
					continue
				}
				byValue[value] = append(byValue[value], entry)
			}

			for _, value := range sortedKeys(byValue) {
				if err := ctx.Err(); err != nil {
					return unitResult{}, err
				}
				entries := byValue[value]
				config := stampSdk(configFor(dim, value), spec)

				if dim == domain.DimensionScreenDensity && compiler != nil {
					compiled, err := compileResources(ctx, module, config, compiler)
					if err != nil {
						return unitResult{}, err
					}
					entries = append(entries, compiled...)
				}

				for _, entry := range entries {
					raw, compressed, err := entrySizes(entry)
					if err != nil {
						return unitResult{}, err
					}
					minMap[config] += compressed
					maxMap[config] += raw
				}
				apks = append(apks, domain.SplitApk{
					ModuleName: module.Name,
					SplitID:    value,
					Config:     config,
					Entries:    entries,
				})
			}
		}

		log.Debugf("dimension %s produced %d splits", dim, len(apks))
		if len(apks) == 0 {
			// An empty partial would annihilate every other map in the
			// cross-product merge; a dimension with nothing to cut must
			// contribute the merge identity instead.
			return unitResult{sizes: sizes.Identity()}, nil
		}
		return unitResult{
			apks:  apks,
			sizes: sizes.NewConfigurationSizes(minMap, maxMap),
		}, nil
	}
}

// masterUnit collects, per module, the entries that no active dimension
// targets. Their size contributes to every device configuration, so the unit
// reports them under the default (all-wildcard) configuration.
func masterUnit(bundle domain.AppBundle, dims []domain.OptimizationDimension, spec *device.Spec) splitUnit {
	return func(ctx context.Context) (unitResult, error) {
		config := stampSdk(sizes.SizeConfiguration{}, spec)
		var minTotal, maxTotal int64
		var apks []domain.SplitApk

		for _, module := range bundle.Modules {
			if err := ctx.Err(); err != nil {
				return unitResult{}, err
			}
			var master []domain.ModuleEntry
			for _, entry := range module.Entries {
				targeted := false
				for _, dim := range dims {
					if dimensionValue(entry.Path, dim) != "" {
						targeted = true
						break
					}
				}
				if targeted {
					continue
				}
				master = append(master, entry)
				raw, compressed, err := entrySizes(entry)
				if err != nil {
					return unitResult{}, err
				}
				minTotal += compressed
				maxTotal += raw
			}
			// A module whose entries are all dimension-targeted has no
			// master split.
			if len(master) == 0 {
				continue
			}
			apks = append(apks, domain.SplitApk{
				ModuleName: module.Name,
				Config:     config,
				Entries:    master,
			})
		}

		return unitResult{
			apks:  apks,
			sizes: sizes.SingleValue(config, minTotal, maxTotal),
		}, nil
	}
}

// fusedUnit fuses the selected modules into one fat archive; used by the
// universal and system modes.
func fusedUnit(bundle domain.AppBundle, mode domain.ApkBuildMode, moduleNames []string) splitUnit {
	return func(ctx context.Context) (unitResult, error) {
		selected := bundle.Modules
		if len(moduleNames) > 0 {
			selected = nil
			for _, name := range moduleNames {
				module, ok := bundle.Module(name)
				if !ok {
					return unitResult{}, fmt.Errorf("module %q not found in bundle", name)
				}
				selected = append(selected, module)
			}
		}

		var entries []domain.ModuleEntry
		var minTotal, maxTotal int64
		for _, module := range selected {
			for _, entry := range module.Entries {
				if err := ctx.Err(); err != nil {
					return unitResult{}, err
				}
				if mode == domain.SystemMode {
					// System images mount the archive directly; every
					// entry is stored.
					entry.ForceUncompressed = true
				}
				entries = append(entries, entry)
				raw, compressed, err := entrySizes(entry)
				if err != nil {
					return unitResult{}, err
				}
				minTotal += compressed
				maxTotal += raw
			}
		}

		name := "universal"
		if mode.IsAnySystemMode() {
			name = "system"
		}
		apk := domain.SplitApk{
			ModuleName: name,
			Standalone: true,
			Entries:    entries,
		}
		return unitResult{
			apks:  []domain.SplitApk{apk},
			sizes: sizes.SingleValue(sizes.SizeConfiguration{}, minTotal, maxTotal),
		}, nil
	}
}

func deviceMatches(dim domain.OptimizationDimension, value string, spec *device.Spec) bool {
	switch dim {
	case domain.DimensionAbi:
		return spec.SupportsAbi(value)
	case domain.DimensionScreenDensity:
		bucket := spec.DensityBucket()
		return bucket == "" || value == bucket || value == "nodpi"
	case domain.DimensionLanguage:
		for _, locale := range spec.SupportedLocales {
			lang, _, _ := strings.Cut(locale, "-")
			if lang == value {
				return true
			}
		}
		return len(spec.SupportedLocales) == 0
	}
	return true
}

// stampSdk pins the sdk-version dimension when a concrete device is known,
// so every partial result carries the same shared constraint.
func stampSdk(config sizes.SizeConfiguration, spec *device.Spec) sizes.SizeConfiguration {
	if spec != nil && spec.SdkVersion > 0 {
		config.SdkVersion = fmt.Sprintf("%d-", spec.SdkVersion)
	}
	return config
}

func compileResources(ctx context.Context, module domain.BundleModule, config sizes.SizeConfiguration, compiler ResourceCompiler) ([]domain.ModuleEntry, error) {
	table, ok := module.Entry(domain.ResourceTablePath)
	if !ok {
		return nil, nil
	}
	compiled, err := compiler.Compile(ctx, table, config)
	if err != nil {
		return nil, fmt.Errorf("resource compilation failed for module %s: %w", module.Name, err)
	}
	return []domain.ModuleEntry{compiled}, nil
}

func sortedKeys(m map[string][]domain.ModuleEntry) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
