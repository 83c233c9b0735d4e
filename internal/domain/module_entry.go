package domain

import (
	"hash/fnv"
	"strings"

	apkerrors "github.com/aabtools/apkset/internal/errors"
)

// Reserved module paths that receive special handling during splitting.
const (
	ManifestPath      = "manifest/AndroidManifest.xml"
	ResourceTablePath = "resources.pb"
	NativeConfigPath  = "native.pb"
	AssetsConfigPath  = "assets.pb"
	NativeLibsDir     = "lib"
)

var specialEntryPaths = map[string]struct{}{
	ManifestPath:      {},
	ResourceTablePath: {},
	NativeConfigPath:  {},
	AssetsConfigPath:  {},
}

// ModuleEntry represents one file inside an app bundle module. Entries are
// immutable; transformations produce new entries.
type ModuleEntry struct {
	// Path is the normalized relative path of the file within its module.
	Path string

	// ForceUncompressed marks an entry that must be stored without
	// compression regardless of the global compression policy.
	ForceUncompressed bool

	// ShouldSign marks an embedded archive that must be re-signed with the
	// output's signing key.
	ShouldSign bool

	// Content is the deferred byte source backing this entry.
	Content ByteSource
}

// Equal reports whether two entries are identical: same path, same flags and
// byte-for-byte identical content. A failure to read either content stream is
// returned as an error, never treated as inequality.
func (e ModuleEntry) Equal(other ModuleEntry) (bool, error) {
	if e.Path != other.Path {
		return false, nil
	}
	if e.ForceUncompressed != other.ForceUncompressed {
		return false, nil
	}
	if e.ShouldSign != other.ShouldSign {
		return false, nil
	}

	same, err := ContentEqual(e.Content, other.Content)
	if err != nil {
		return false, apkerrors.ContentComparisonError(e.Path, other.Path, err)
	}
	return same, nil
}

// Hash returns a fast hash over path and the uncompressed flag. Content is
// deliberately omitted for performance, so distinct entries may collide and
// Equal remains the authority.
func (e ModuleEntry) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(e.Path))
	if e.ForceUncompressed {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// IsSpecialEntry reports whether the entry's path is one of the reserved
// module paths (manifest, resource table, config files, native libraries).
func (e ModuleEntry) IsSpecialEntry() bool {
	if _, ok := specialEntryPaths[e.Path]; ok {
		return true
	}
	return strings.HasPrefix(e.Path, NativeLibsDir+"/")
}
