package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/device"
	"github.com/aabtools/apkset/internal/domain"
	apkerrors "github.com/aabtools/apkset/internal/errors"
	"github.com/aabtools/apkset/internal/signing"
	"github.com/aabtools/apkset/internal/sizes"
)

// BundleRepository reads an app bundle container into its module-entry model.
// The returned closer keeps deferred entry content readable until the build
// is done with the bundle.
type BundleRepository interface {
	ReadBundle(ctx context.Context, path string) (domain.AppBundle, io.Closer, error)
}

// ApkSetRepository persists a finished APK set to its output destination. It
// must fail when the destination exists unless overwrite is requested.
type ApkSetRepository interface {
	WriteApkSet(ctx context.Context, apkSet domain.ApkSet, outputPath string, overwrite, quiet bool) error
}

// ResourceCompiler is the external optimizing resource compiler, invoked per
// splitting unit as an opaque black box.
type ResourceCompiler interface {
	Compile(ctx context.Context, resourceTable domain.ModuleEntry, config sizes.SizeConfiguration) (domain.ModuleEntry, error)
}

// BuildService drives one build-apks invocation: validation, signing
// resolution, bundle reading, parallel splitting and output serialization.
// Each invocation is stateless with respect to prior ones.
type BuildService struct {
	bundleRepo BundleRepository
	apkSetRepo ApkSetRepository
	keystore   signing.KeystoreReader
	env        signing.EnvironmentProvider
	querier    device.Querier
	compiler   ResourceCompiler
	report     io.Writer
	quiet      bool
}

// NewBuildService creates a new BuildService instance. querier and compiler
// may be nil when device targeting or resource compilation are unavailable.
func NewBuildService(bundleRepo BundleRepository, apkSetRepo ApkSetRepository, keystore signing.KeystoreReader, env signing.EnvironmentProvider, querier device.Querier, compiler ResourceCompiler, report io.Writer, quiet bool) *BuildService {
	return &BuildService{
		bundleRepo: bundleRepo,
		apkSetRepo: apkSetRepo,
		keystore:   keystore,
		env:        env,
		querier:    querier,
		compiler:   compiler,
		report:     report,
		quiet:      quiet,
	}
}

// Execute runs the full pipeline for a validated command and returns the
// assembled APK set after it has been persisted.
func (s *BuildService) Execute(ctx context.Context, cmd BuildApksCommand) (domain.ApkSet, error) {
	if err := cmd.Validate(); err != nil {
		return domain.ApkSet{}, err
	}

	resolved, err := signing.Resolve(cmd.Signing, s.keystore, s.env, s.report)
	if err != nil {
		return domain.ApkSet{}, err
	}

	bundle, closer, err := s.bundleRepo.ReadBundle(ctx, cmd.BundlePath)
	if err != nil {
		return domain.ApkSet{}, err
	}
	defer closer.Close()

	if len(bundle.Modules) == 0 {
		return domain.ApkSet{}, apkerrors.ErrEmptyBundle
	}
	if _, ok := bundle.BaseModule(); !ok {
		return domain.ApkSet{}, apkerrors.ErrMissingBaseModule
	}

	spec, err := s.targetDevice(ctx, cmd)
	if err != nil {
		return domain.ApkSet{}, err
	}

	units := s.planUnits(bundle, cmd, spec)
	apks, sizeTable, err := runUnits(ctx, units, cmd.MaxThreads)
	if err != nil {
		return domain.ApkSet{}, err
	}

	apkSet := domain.ApkSet{
		PackageName: bundle.PackageName,
		Apks:        apks,
		Sizes:       sizeTable,
	}
	if resolved.Main != nil && len(resolved.Main.Certificates) > 0 {
		digest := sha256.Sum256(resolved.Main.Certificates[0].Raw)
		apkSet.SignerCertDigest = hex.EncodeToString(digest[:])
	}
	if resolved.Stamp != nil {
		apkSet.Stamped = true
		apkSet.StampSource = resolved.Stamp.Source
	}

	if err := s.apkSetRepo.WriteApkSet(ctx, apkSet, cmd.OutputPath, cmd.Overwrite, s.quiet); err != nil {
		return domain.ApkSet{}, err
	}

	log.Infof("built APK set for %s: %d archives", apkSet.PackageName, len(apkSet.Apks))
	return apkSet, nil
}

// targetDevice resolves the device configuration the build is narrowed to,
// or nil when building for the full configuration space.
func (s *BuildService) targetDevice(ctx context.Context, cmd BuildApksCommand) (*device.Spec, error) {
	if cmd.DeviceSpecPath != "" {
		spec, err := device.ReadSpec(cmd.DeviceSpecPath)
		if err != nil {
			return nil, err
		}
		return &spec, nil
	}
	if cmd.GenerateOnlyForConnectedDevice {
		if s.querier == nil {
			return nil, fmt.Errorf("no device service available to query the connected device")
		}
		spec, err := s.querier.DeviceSpec(ctx, cmd.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to query connected device: %w", err)
		}
		return &spec, nil
	}
	return nil, nil
}

// defaultDimensions are the axes split when the caller does not narrow the
// optimization set.
var defaultDimensions = []domain.OptimizationDimension{
	domain.DimensionAbi,
	domain.DimensionScreenDensity,
	domain.DimensionLanguage,
}

func (s *BuildService) planUnits(bundle domain.AppBundle, cmd BuildApksCommand, spec *device.Spec) []splitUnit {
	mode := cmd.Mode.OrDefault()
	if mode != domain.DefaultMode {
		return []splitUnit{fusedUnit(bundle, mode, cmd.Modules)}
	}

	dims := cmd.OptimizationDimensions
	if len(dims) == 0 {
		dims = defaultDimensions
	}
	units := []splitUnit{masterUnit(bundle, dims, spec)}
	for _, dim := range dims {
		units = append(units, dimensionUnit(bundle, dim, spec, s.compiler))
	}
	return units
}
