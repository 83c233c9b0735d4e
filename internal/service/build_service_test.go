package service

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aabtools/apkset/internal/device"
	"github.com/aabtools/apkset/internal/domain"
	apkerrors "github.com/aabtools/apkset/internal/errors"
	"github.com/aabtools/apkset/internal/signing"
)

// mockBundleRepository serves a fixed in-memory bundle.
type mockBundleRepository struct {
	bundle  domain.AppBundle
	readErr error
	closed  bool
}

func (m *mockBundleRepository) ReadBundle(ctx context.Context, path string) (domain.AppBundle, io.Closer, error) {
	if m.readErr != nil {
		return domain.AppBundle{}, nil, m.readErr
	}
	return m.bundle, closerFunc(func() error { m.closed = true; return nil }), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// mockApkSetRepository captures the written set instead of serializing it.
type mockApkSetRepository struct {
	written    *domain.ApkSet
	outputPath string
	overwrite  bool
	writeErr   error
}

func (m *mockApkSetRepository) WriteApkSet(ctx context.Context, apkSet domain.ApkSet, outputPath string, overwrite, quiet bool) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = &apkSet
	m.outputPath = outputPath
	m.overwrite = overwrite
	return nil
}

// emptyEnvironment has no debug keystore anywhere.
type emptyEnvironment struct{}

func (emptyEnvironment) Getenv(string) (string, bool) { return "", false }
func (emptyEnvironment) HomeDir() (string, bool)      { return "", false }
func (emptyEnvironment) FileExists(string) bool       { return false }

// mapKeystoreReader resolves aliases from a fixed map.
type mapKeystoreReader struct {
	keys map[string]domain.SigningConfiguration
}

func (m mapKeystoreReader) ReadKey(ref signing.KeystoreReference) (domain.SigningConfiguration, error) {
	config, ok := m.keys[ref.Alias]
	if !ok {
		return domain.SigningConfiguration{}, fmt.Errorf("no key for alias %q", ref.Alias)
	}
	return config, nil
}

type fixedQuerier struct {
	spec device.Spec
}

func (f fixedQuerier) DeviceSpec(ctx context.Context, deviceID string) (device.Spec, error) {
	return f.spec, nil
}

func newTestService(bundleRepo *mockBundleRepository, apkSetRepo *mockApkSetRepository, reader signing.KeystoreReader, querier device.Querier, report io.Writer) *BuildService {
	if reader == nil {
		reader = mapKeystoreReader{}
	}
	if report == nil {
		report = io.Discard
	}
	return NewBuildService(bundleRepo, apkSetRepo, reader, emptyEnvironment{}, querier, nil, report, true)
}

func TestBuildService_Execute(t *testing.T) {
	bundleRepo := &mockBundleRepository{bundle: testBundle()}
	apkSetRepo := &mockApkSetRepository{}
	var report bytes.Buffer
	builder := newTestService(bundleRepo, apkSetRepo, nil, nil, &report)

	apkSet, err := builder.Execute(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if apkSet.PackageName != "com.example.app" {
		t.Errorf("package name = %q", apkSet.PackageName)
	}
	if apkSetRepo.written == nil {
		t.Fatal("Execute() did not persist the apk set")
	}
	if apkSetRepo.outputPath != "app.apks" {
		t.Errorf("output path = %q", apkSetRepo.outputPath)
	}
	if !bundleRepo.closed {
		t.Error("Execute() did not close the bundle")
	}

	// Unsigned build: no digest, but the warning reaches the report stream.
	if apkSet.SignerCertDigest != "" {
		t.Errorf("unsigned build has digest %q", apkSet.SignerCertDigest)
	}
	want := "WARNING: The APKs won't be signed. In order to be installed, they must be signed with the application key.\n"
	if report.String() != want {
		t.Errorf("report = %q, want %q", report.String(), want)
	}

	names := make(map[string]bool)
	for _, apk := range apkSet.Apks {
		names[apk.FileName()] = true
	}
	for _, expected := range []string{"base-master.apk", "base-x86.apk", "base-arm64-v8a.apk", "base-hdpi.apk", "base-fr.apk"} {
		if !names[expected] {
			t.Errorf("missing expected split %s (got %v)", expected, names)
		}
	}
}

func TestBuildService_ExecuteSigned(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	cert := &x509.Certificate{Raw: []byte("test-cert-der")}
	reader := mapKeystoreReader{keys: map[string]domain.SigningConfiguration{
		"upload": {PrivateKey: priv, Certificates: []*x509.Certificate{cert}},
	}}

	bundleRepo := &mockBundleRepository{bundle: testBundle()}
	apkSetRepo := &mockApkSetRepository{}
	builder := newTestService(bundleRepo, apkSetRepo, reader, nil, nil)

	cmd := validCommand()
	cmd.Signing = signing.Options{
		KeystorePath: "/keys/release",
		KeyAlias:     "upload",
		CreateStamp:  true,
		StampSource:  "https://ci.example.com/builds/7",
	}

	apkSet, err := builder.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	digest := sha256.Sum256(cert.Raw)
	if apkSet.SignerCertDigest != hex.EncodeToString(digest[:]) {
		t.Errorf("signer digest = %q", apkSet.SignerCertDigest)
	}
	if !apkSet.Stamped || apkSet.StampSource != "https://ci.example.com/builds/7" {
		t.Errorf("stamp not recorded: stamped=%v source=%q", apkSet.Stamped, apkSet.StampSource)
	}
}

func TestBuildService_ExecuteUniversal(t *testing.T) {
	bundleRepo := &mockBundleRepository{bundle: testBundle()}
	apkSetRepo := &mockApkSetRepository{}
	builder := newTestService(bundleRepo, apkSetRepo, nil, nil, nil)

	cmd := validCommand()
	cmd.Mode = domain.UniversalMode

	apkSet, err := builder.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(apkSet.Apks) != 1 || apkSet.Apks[0].FileName() != "universal.apk" {
		t.Errorf("universal mode produced %+v", apkSet.Apks)
	}
}

func TestBuildService_ExecuteZeroModePlansDefaultSplits(t *testing.T) {
	bundleRepo := &mockBundleRepository{bundle: testBundle()}
	apkSetRepo := &mockApkSetRepository{}
	builder := newTestService(bundleRepo, apkSetRepo, nil, nil, nil)

	cmd := validCommand()
	cmd.Mode = ""

	apkSet, err := builder.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	names := make(map[string]bool, len(apkSet.Apks))
	for _, apk := range apkSet.Apks {
		names[apk.FileName()] = true
	}
	if !names["base-master.apk"] {
		t.Errorf("unset mode did not plan the default split, got %v", names)
	}
	if names["universal.apk"] {
		t.Error("unset mode produced a universal apk")
	}
	if len(apkSet.Sizes.MinSizeConfigurationMap) == 0 {
		t.Error("unset mode produced an empty size table")
	}
}

func TestBuildService_ExecuteConnectedDevice(t *testing.T) {
	bundleRepo := &mockBundleRepository{bundle: testBundle()}
	apkSetRepo := &mockApkSetRepository{}
	querier := fixedQuerier{spec: device.Spec{
		SupportedAbis: []string{"arm64-v8a"},
		ScreenDensity: 440,
		SdkVersion:    34,
	}}
	builder := newTestService(bundleRepo, apkSetRepo, nil, querier, nil)

	cmd := validCommand()
	cmd.GenerateOnlyForConnectedDevice = true

	apkSet, err := builder.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	for _, apk := range apkSet.Apks {
		if apk.SplitID == "x86" {
			t.Error("x86 split generated for an arm64-only device")
		}
		if apk.SplitID == "hdpi" {
			t.Error("hdpi split generated for a 440dpi device")
		}
	}
}

func TestBuildService_ExecuteErrors(t *testing.T) {
	tests := []struct {
		name    string
		bundle  domain.AppBundle
		mutate  func(*BuildApksCommand)
		wantErr error
	}{
		{
			name:    "empty bundle",
			bundle:  domain.AppBundle{},
			mutate:  func(c *BuildApksCommand) {},
			wantErr: apkerrors.ErrEmptyBundle,
		},
		{
			name: "missing base module",
			bundle: domain.AppBundle{Modules: []domain.BundleModule{
				{Name: "feature"},
			}},
			mutate:  func(c *BuildApksCommand) {},
			wantErr: apkerrors.ErrMissingBaseModule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundleRepo := &mockBundleRepository{bundle: tt.bundle}
			builder := newTestService(bundleRepo, &mockApkSetRepository{}, nil, nil, nil)

			cmd := validCommand()
			tt.mutate(&cmd)

			_, err := builder.Execute(context.Background(), cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildService_ValidateBeforeWork(t *testing.T) {
	// An invalid command must fail before the bundle is even opened.
	bundleRepo := &mockBundleRepository{readErr: errors.New("should not be reached")}
	builder := newTestService(bundleRepo, &mockApkSetRepository{}, nil, nil, nil)

	cmd := validCommand()
	cmd.Mode = domain.UniversalMode
	cmd.OptimizationDimensions = []domain.OptimizationDimension{domain.DimensionAbi}

	_, err := builder.Execute(context.Background(), cmd)
	if err == nil || !apkerrors.IsInvalidCommand(err) {
		t.Fatalf("Execute() error = %v, want configuration error", err)
	}
}

func TestBuildService_WriteFailurePropagates(t *testing.T) {
	writeErr := errors.New("disk full")
	bundleRepo := &mockBundleRepository{bundle: testBundle()}
	builder := newTestService(bundleRepo, &mockApkSetRepository{writeErr: writeErr}, nil, nil, nil)

	_, err := builder.Execute(context.Background(), validCommand())
	if !errors.Is(err, writeErr) {
		t.Errorf("Execute() error = %v, want %v", err, writeErr)
	}
}
