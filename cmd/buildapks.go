package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aabtools/apkset/internal/device"
	"github.com/aabtools/apkset/internal/domain"
	"github.com/aabtools/apkset/internal/repository/apkset"
	"github.com/aabtools/apkset/internal/repository/bundle"
	"github.com/aabtools/apkset/internal/service"
	"github.com/aabtools/apkset/internal/signing"
)

var buildApksFlags struct {
	bundlePath   string
	outputPath   string
	mode         string
	optimizeFor  []string
	modules      []string
	maxThreads   int
	overwrite    bool
	deviceSpec   string
	connected    bool
	deviceID     string
	aapt2Path    string
	quiet        bool
	ks           string
	ksKeyAlias   string
	ksPass       string
	keyPass      string
	createStamp  bool
	stampKs      string
	stampKsPass  string
	stampAlias   string
	stampKeyPass string
	stampSource  string
}

var buildApksCmd = &cobra.Command{
	Use:   "build-apks",
	Short: "Build an APK set from an app bundle",
	Long:  "Splits the given app bundle along device configuration dimensions, estimates download sizes and packages the results into an APK set archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		buildCmd, err := assembleBuildCommand(cmd)
		if err != nil {
			return err
		}

		var querier device.Querier
		if buildCmd.GenerateOnlyForConnectedDevice {
			querier = device.AdbQuerier{}
		}

		aapt2 := buildApksFlags.aapt2Path
		if aapt2 == "" {
			aapt2 = cfg.Aapt2Path
		}

		builder := service.NewBuildService(
			bundle.NewReader(),
			apkset.NewRepository(),
			signing.PEMKeystoreReader{},
			signing.OSEnvironment{},
			querier,
			service.Aapt2Command{Path: aapt2},
			os.Stderr,
			buildApksFlags.quiet,
		)

		apkSet, err := builder.Execute(context.Background(), buildCmd)
		if err != nil {
			return err
		}
		if !buildApksFlags.quiet {
			fmt.Printf("APK set written successfully: %s (%d archives)\n", buildCmd.OutputPath, len(apkSet.Apks))
		}
		return nil
	},
}

// assembleBuildCommand maps raw flag values onto the validated command
// record. Flag-shape errors (bad enum values, bad password syntax, an
// explicit non-positive thread count) are rejected here; cross-flag
// invariants are left to Validate.
func assembleBuildCommand(cmd *cobra.Command) (service.BuildApksCommand, error) {
	mode, err := domain.ParseApkBuildMode(buildApksFlags.mode)
	if err != nil {
		return service.BuildApksCommand{}, err
	}

	var dims []domain.OptimizationDimension
	for _, raw := range buildApksFlags.optimizeFor {
		dim, err := domain.ParseOptimizationDimension(raw)
		if err != nil {
			return service.BuildApksCommand{}, err
		}
		dims = append(dims, dim)
	}

	maxThreads := buildApksFlags.maxThreads
	if cmd.Flags().Changed("max-threads") {
		if err := service.CheckMaxThreads(maxThreads); err != nil {
			return service.BuildApksCommand{}, err
		}
	} else if cfg != nil {
		// Flag beats config; config beats the platform default.
		maxThreads = cfg.MaxThreads
	}

	signingOpts, err := assembleSigningOptions()
	if err != nil {
		return service.BuildApksCommand{}, err
	}

	return service.BuildApksCommand{
		BundlePath:                     buildApksFlags.bundlePath,
		OutputPath:                     buildApksFlags.outputPath,
		Mode:                           mode,
		OptimizationDimensions:         dims,
		Modules:                        buildApksFlags.modules,
		MaxThreads:                     maxThreads,
		Overwrite:                      buildApksFlags.overwrite,
		DeviceSpecPath:                 buildApksFlags.deviceSpec,
		GenerateOnlyForConnectedDevice: buildApksFlags.connected,
		DeviceID:                       buildApksFlags.deviceID,
		Signing:                        signingOpts,
	}, nil
}

func assembleSigningOptions() (signing.Options, error) {
	opts := signing.Options{
		KeystorePath:      resolveKeystorePath(buildApksFlags.ks),
		KeyAlias:          buildApksFlags.ksKeyAlias,
		CreateStamp:       buildApksFlags.createStamp,
		StampKeystorePath: resolveKeystorePath(buildApksFlags.stampKs),
		StampKeyAlias:     buildApksFlags.stampAlias,
		StampSource:       buildApksFlags.stampSource,
	}

	var err error
	if opts.KeystorePassword, err = signing.ParsePassword(buildApksFlags.ksPass); err != nil {
		return signing.Options{}, err
	}
	if opts.KeyPassword, err = signing.ParsePassword(buildApksFlags.keyPass); err != nil {
		return signing.Options{}, err
	}
	if opts.StampKeystorePassword, err = signing.ParsePassword(buildApksFlags.stampKsPass); err != nil {
		return signing.Options{}, err
	}
	if opts.StampKeyPassword, err = signing.ParsePassword(buildApksFlags.stampKeyPass); err != nil {
		return signing.Options{}, err
	}
	return opts, nil
}

// resolveKeystorePath falls back to the configured keystore directory when
// the flag names a file that is not found relative to the working directory.
func resolveKeystorePath(path string) string {
	if path == "" || cfg == nil || cfg.KeystoreDir == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.ContainsRune(path, os.PathSeparator) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(cfg.KeystoreDir, path)
}

func init() {
	buildApksCmd.Flags().StringVar(&buildApksFlags.bundlePath, "bundle", "", "Path to the app bundle (.aab)")
	buildApksCmd.Flags().StringVar(&buildApksFlags.outputPath, "output", "", "Destination of the APK set (local path, s3:// or gs:// URI)")
	buildApksCmd.Flags().StringVar(&buildApksFlags.mode, "mode", "", "Build mode: default, universal, system or system_compressed")
	buildApksCmd.Flags().StringSliceVar(&buildApksFlags.optimizeFor, "optimize-for", nil, "Dimensions to split on (abi, screen_density, language, texture_compression_format, device_tier)")
	buildApksCmd.Flags().StringSliceVar(&buildApksFlags.modules, "modules", nil, "Modules to include when building a fat archive")
	buildApksCmd.Flags().IntVar(&buildApksFlags.maxThreads, "max-threads", 0, "Maximum number of parallel split workers")
	buildApksCmd.Flags().BoolVar(&buildApksFlags.overwrite, "overwrite", false, "Overwrite the output if it exists")
	buildApksCmd.Flags().StringVar(&buildApksFlags.deviceSpec, "device-spec", "", "Path to a device spec JSON to build for")
	buildApksCmd.Flags().BoolVar(&buildApksFlags.connected, "connected-device", false, "Build only for the connected device")
	buildApksCmd.Flags().StringVar(&buildApksFlags.deviceID, "device-id", "", "Device serial to use with --connected-device")
	buildApksCmd.Flags().StringVar(&buildApksFlags.aapt2Path, "aapt2", "", "Path to the aapt2 binary")
	buildApksCmd.Flags().BoolVarP(&buildApksFlags.quiet, "quiet", "q", false, "Suppress progress bars")

	buildApksCmd.Flags().StringVar(&buildApksFlags.ks, "ks", "", "Path to the signing keystore")
	buildApksCmd.Flags().StringVar(&buildApksFlags.ksKeyAlias, "ks-key-alias", "", "Alias of the signing key in the keystore")
	buildApksCmd.Flags().StringVar(&buildApksFlags.ksPass, "ks-pass", "", "Keystore password (pass:<value> or file:<path>)")
	buildApksCmd.Flags().StringVar(&buildApksFlags.keyPass, "key-pass", "", "Key password (pass:<value> or file:<path>)")
	buildApksCmd.Flags().BoolVar(&buildApksFlags.createStamp, "create-stamp", false, "Add a provenance stamp to the generated archives")
	buildApksCmd.Flags().StringVar(&buildApksFlags.stampKs, "stamp-ks", "", "Path to the stamp keystore")
	buildApksCmd.Flags().StringVar(&buildApksFlags.stampAlias, "stamp-key-alias", "", "Alias of the stamp key in the stamp keystore")
	buildApksCmd.Flags().StringVar(&buildApksFlags.stampKsPass, "stamp-ks-pass", "", "Stamp keystore password (pass:<value> or file:<path>)")
	buildApksCmd.Flags().StringVar(&buildApksFlags.stampKeyPass, "stamp-key-pass", "", "Stamp key password (pass:<value> or file:<path>)")
	buildApksCmd.Flags().StringVar(&buildApksFlags.stampSource, "stamp-source", "", "Source URL recorded in the stamp")

	rootCmd.AddCommand(buildApksCmd)
}
