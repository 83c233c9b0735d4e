package signing

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/aabtools/apkset/internal/domain"
	apkerrors "github.com/aabtools/apkset/internal/errors"
)

// Options carries the raw signing intent from the command line or builder.
// Empty strings and unset passwords mean "not provided".
type Options struct {
	KeystorePath     string
	KeyAlias         string
	KeystorePassword Password
	KeyPassword      Password

	CreateStamp           bool
	StampKeystorePath     string
	StampKeyAlias         string
	StampKeystorePassword Password
	StampKeyPassword      Password
	StampSource           string
}

// Result holds the resolved signing identities. Either pointer may be nil:
// no main identity means the output is left unsigned, no stamp means no
// stamp was requested.
type Result struct {
	Main  *domain.SigningConfiguration
	Stamp *domain.SourceStamp
}

// Resolve runs the signing precedence chains once per build.
//
// Main chain: explicit keystore reference, else the auto-detected debug
// keystore (with an informational notice), else unsigned (with a warning).
// Stamp chain, evaluated only when stamp creation is requested: explicit
// stamp keystore reference, else the resolved main identity, else the debug
// keystore, else a configuration error.
//
// Informational and warning text is written to report, never mixed into the
// result value.
func Resolve(opts Options, reader KeystoreReader, env EnvironmentProvider, report io.Writer) (Result, error) {
	if err := ValidateKeystorePairs(opts); err != nil {
		return Result{}, err
	}

	result := Result{}

	main, err := resolveMain(opts, reader, env, report)
	if err != nil {
		return Result{}, err
	}
	result.Main = main

	if opts.CreateStamp {
		stamp, err := resolveStamp(opts, main, reader, env)
		if err != nil {
			return Result{}, err
		}
		result.Stamp = &domain.SourceStamp{
			SigningConfiguration: stamp,
			Source:               opts.StampSource,
		}
	}

	return result, nil
}

// ValidateKeystorePairs enforces that a keystore reference is only valid as
// a (path, alias) pair, for both the main and the stamp keystore flags. It
// is also run by the build configuration validator so a bad pairing fails
// before any work is scheduled.
func ValidateKeystorePairs(opts Options) error {
	if opts.KeystorePath != "" && opts.KeyAlias == "" {
		return apkerrors.MissingFlagError("ks-key-alias", "ks")
	}
	if opts.KeyAlias != "" && opts.KeystorePath == "" {
		return apkerrors.MissingFlagError("ks", "ks-key-alias")
	}
	if opts.CreateStamp {
		anyPath := opts.StampKeystorePath != "" || opts.KeystorePath != ""
		anyAlias := opts.StampKeyAlias != "" || opts.KeyAlias != ""
		if anyPath && !anyAlias {
			return apkerrors.InvalidCommand(
				"Flag --stamp-key-alias or --ks-key-alias are required when --stamp-ks or --ks are set.")
		}
		if opts.StampKeyAlias != "" && opts.StampKeystorePath == "" && opts.KeystorePath == "" {
			return apkerrors.InvalidCommand(
				"Flag --stamp-ks or --ks are required when --stamp-key-alias or --ks-key-alias are set.")
		}
	}
	return nil
}

func resolveMain(opts Options, reader KeystoreReader, env EnvironmentProvider, report io.Writer) (*domain.SigningConfiguration, error) {
	if opts.KeystorePath != "" {
		config, err := reader.ReadKey(KeystoreReference{
			Path:             opts.KeystorePath,
			Alias:            opts.KeyAlias,
			KeystorePassword: opts.KeystorePassword,
			KeyPassword:      opts.KeyPassword,
		})
		if err != nil {
			return nil, err
		}
		return &config, nil
	}

	if path, ok := debugKeystorePath(env); ok {
		config, err := readDebugKeystore(reader, path)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(report, "INFO: The APKs will be signed with the debug keystore found at '%s'.\n", path)
		return &config, nil
	}

	log.Debug("no keystore reference and no debug keystore; output will be unsigned")
	fmt.Fprintln(report, "WARNING: The APKs won't be signed. In order to be installed, they must be signed with the application key.")
	return nil, nil
}

func resolveStamp(opts Options, main *domain.SigningConfiguration, reader KeystoreReader, env EnvironmentProvider) (domain.SigningConfiguration, error) {
	if opts.StampKeystorePath != "" || opts.StampKeyAlias != "" {
		ref := KeystoreReference{
			Path:             opts.StampKeystorePath,
			Alias:            opts.StampKeyAlias,
			KeystorePassword: opts.StampKeystorePassword,
			KeyPassword:      opts.StampKeyPassword,
		}
		// Stamp flags default to their main signing counterparts.
		if ref.Path == "" {
			ref.Path = opts.KeystorePath
			if !ref.KeystorePassword.IsSet() {
				ref.KeystorePassword = opts.KeystorePassword
			}
		}
		if ref.Alias == "" {
			ref.Alias = opts.KeyAlias
			if !ref.KeyPassword.IsSet() {
				ref.KeyPassword = opts.KeyPassword
			}
		}
		return reader.ReadKey(ref)
	}

	if main != nil {
		return *main, nil
	}

	if path, ok := debugKeystorePath(env); ok {
		return readDebugKeystore(reader, path)
	}

	return domain.SigningConfiguration{}, apkerrors.ErrNoStampKey
}

func readDebugKeystore(reader KeystoreReader, path string) (domain.SigningConfiguration, error) {
	return reader.ReadKey(KeystoreReference{
		Path:             path,
		Alias:            debugKeystoreAlias,
		KeystorePassword: PlainPassword(debugKeystorePassword),
		KeyPassword:      PlainPassword(debugKeystorePassword),
	})
}
