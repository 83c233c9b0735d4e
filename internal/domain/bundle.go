package domain

// BundleModule is one installable module of an app bundle: a named,
// ordered collection of entries.
type BundleModule struct {
	Name    string
	Entries []ModuleEntry
}

// Entry returns the entry at the given path, if present.
func (m BundleModule) Entry(path string) (ModuleEntry, bool) {
	for _, entry := range m.Entries {
		if entry.Path == path {
			return entry, true
		}
	}
	return ModuleEntry{}, false
}

// Size returns the total uncompressed size of all entries in the module.
func (m BundleModule) Size() (int64, error) {
	var total int64
	for _, entry := range m.Entries {
		size, err := entry.Content.Size()
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}

// AppBundle is the parsed input container: an ordered set of modules plus
// the application package name declared by the base module's manifest.
type AppBundle struct {
	PackageName string
	Modules     []BundleModule
}

// BaseModule returns the bundle's base module, if present.
func (b AppBundle) BaseModule() (BundleModule, bool) {
	return b.Module("base")
}

// Module returns the named module, if present.
func (b AppBundle) Module(name string) (BundleModule, bool) {
	for _, module := range b.Modules {
		if module.Name == name {
			return module, true
		}
	}
	return BundleModule{}, false
}

// ModuleNames returns the names of all modules in bundle order.
func (b AppBundle) ModuleNames() []string {
	names := make([]string, 0, len(b.Modules))
	for _, module := range b.Modules {
		names = append(names, module.Name)
	}
	return names
}
