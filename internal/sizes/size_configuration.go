package sizes

// SizeConfiguration is a partial device configuration: a sparse set of
// dimension constraints. An empty field is a wildcard; the zero value is the
// universal ("default") configuration. The struct is comparable and is used
// directly as a map key.
type SizeConfiguration struct {
	Abi                      string
	ScreenDensity            string
	SdkVersion               string
	Locale                   string
	TextureCompressionFormat string
	DeviceTier               string
	SdkRuntime               string
}

// numDimensions is the number of constraint axes in SizeConfiguration.
const numDimensions = 7

// dimensions returns the constraint values in a fixed order. Dimension
// identity is positional; an empty string means unset.
func (c SizeConfiguration) dimensions() [numDimensions]string {
	return [numDimensions]string{
		c.Abi,
		c.ScreenDensity,
		c.SdkVersion,
		c.Locale,
		c.TextureCompressionFormat,
		c.DeviceTier,
		c.SdkRuntime,
	}
}

func fromDimensions(dims [numDimensions]string) SizeConfiguration {
	return SizeConfiguration{
		Abi:                      dims[0],
		ScreenDensity:            dims[1],
		SdkVersion:               dims[2],
		Locale:                   dims[3],
		TextureCompressionFormat: dims[4],
		DeviceTier:               dims[5],
		SdkRuntime:               dims[6],
	}
}

// IsDefault reports whether no dimension is constrained.
func (c SizeConfiguration) IsDefault() bool {
	return c == SizeConfiguration{}
}

// Compatible reports whether two configurations can describe the same device:
// every dimension set in both must agree. Unset dimensions never conflict.
func (c SizeConfiguration) Compatible(other SizeConfiguration) bool {
	a, b := c.dimensions(), other.dimensions()
	for i := 0; i < numDimensions; i++ {
		if a[i] != "" && b[i] != "" && a[i] != b[i] {
			return false
		}
	}
	return true
}

// Union returns the field-wise union of two compatible configurations: every
// dimension set in either input is set in the result.
func (c SizeConfiguration) Union(other SizeConfiguration) SizeConfiguration {
	a, b := c.dimensions(), other.dimensions()
	var merged [numDimensions]string
	for i := 0; i < numDimensions; i++ {
		if a[i] != "" {
			merged[i] = a[i]
		} else {
			merged[i] = b[i]
		}
	}
	return fromDimensions(merged)
}
