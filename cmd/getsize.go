package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aabtools/apkset/internal/repository/apkset"
	"github.com/aabtools/apkset/internal/repository/objectstore"
)

var getSizeQuiet bool

var getSizeCmd = &cobra.Command{
	Use:   "get-size [apk-set-path]",
	Short: "Print the download size estimates of an APK set",
	Long:  "Reads the table of contents of an existing APK set archive and prints its per-configuration download size estimates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		localPath, cleanup, err := fetchApkSet(context.Background(), path)
		if err != nil {
			return err
		}
		defer cleanup()

		toc, err := apkset.ReadTableOfContents(localPath)
		if err != nil {
			return err
		}
		printSizeTable(os.Stdout, toc)
		return nil
	},
}

// fetchApkSet stages a remote APK set locally; local paths pass through.
func fetchApkSet(ctx context.Context, path string) (string, func(), error) {
	if !objectstore.IsRemote(path) {
		return path, func() {}, nil
	}

	dest, err := objectstore.ParseDestination(path)
	if err != nil {
		return "", nil, err
	}
	store, err := objectstore.NewRepository(ctx, dest)
	if err != nil {
		return "", nil, err
	}
	reader, err := store.Download(ctx, dest.Key, getSizeQuiet)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download apk set from %s: %w", path, err)
	}
	defer reader.Close()

	staging, err := os.CreateTemp("", "apkset-*.apks")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	if _, err := io.Copy(staging, reader); err != nil {
		staging.Close()
		os.Remove(staging.Name())
		return "", nil, fmt.Errorf("failed to stage apk set: %w", err)
	}
	staging.Close()
	return staging.Name(), func() { os.Remove(staging.Name()) }, nil
}

func printSizeTable(out io.Writer, toc apkset.TableOfContents) {
	fmt.Fprintf(out, "Package: %s\n", toc.PackageName)
	if toc.SignerCertDigest != "" {
		fmt.Fprintf(out, "Signer cert digest: %s\n", toc.SignerCertDigest)
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "TARGETING\tMIN\tMAX")
	for _, estimate := range toc.SizeEstimates {
		fmt.Fprintf(writer, "%s\t%d\t%d\n", targetingLabel(estimate.Targeting), estimate.MinBytes, estimate.MaxBytes)
	}
	writer.Flush()
}

func targetingLabel(t apkset.TargetingJSON) string {
	var parts []string
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, name+"="+value)
		}
	}
	add("abi", t.Abi)
	add("density", t.ScreenDensity)
	add("sdk", t.SdkVersion)
	add("locale", t.Locale)
	add("tcf", t.TextureCompressionFormat)
	add("tier", t.DeviceTier)
	add("sdk_runtime", t.SdkRuntime)
	if len(parts) == 0 {
		return "(default)"
	}
	return strings.Join(parts, ",")
}

func init() {
	getSizeCmd.Flags().BoolVarP(&getSizeQuiet, "quiet", "q", false, "Suppress progress bars")
	rootCmd.AddCommand(getSizeCmd)
}
