package sizes

// ConfigurationSizes maps partial device configurations to the minimum and
// maximum download size a device matching that configuration could see.
// Produced independently per optimization dimension during splitting, then
// combined with Merge.
type ConfigurationSizes struct {
	MinSizeConfigurationMap map[SizeConfiguration]int64
	MaxSizeConfigurationMap map[SizeConfiguration]int64
}

// NewConfigurationSizes builds a ConfigurationSizes from min and max maps.
func NewConfigurationSizes(minMap, maxMap map[SizeConfiguration]int64) ConfigurationSizes {
	return ConfigurationSizes{
		MinSizeConfigurationMap: minMap,
		MaxSizeConfigurationMap: maxMap,
	}
}

// SingleValue builds a ConfigurationSizes holding one configuration with the
// given min and max sizes.
func SingleValue(config SizeConfiguration, minSize, maxSize int64) ConfigurationSizes {
	return ConfigurationSizes{
		MinSizeConfigurationMap: map[SizeConfiguration]int64{config: minSize},
		MaxSizeConfigurationMap: map[SizeConfiguration]int64{config: maxSize},
	}
}

// Identity returns the neutral element for Merge: the default configuration
// with size zero. Merging it against any ConfigurationSizes yields that
// operand unchanged.
func Identity() ConfigurationSizes {
	return SingleValue(SizeConfiguration{}, 0, 0)
}

// Merge combines two per-dimension ConfigurationSizes into a joint estimate,
// applied independently to the min map and the max map. The operation is
// commutative and associative, so callers may fold a list of per-dimension
// partial results in any order.
func Merge(a, b ConfigurationSizes) ConfigurationSizes {
	return ConfigurationSizes{
		MinSizeConfigurationMap: mergeMaps(a.MinSizeConfigurationMap, b.MinSizeConfigurationMap),
		MaxSizeConfigurationMap: mergeMaps(a.MaxSizeConfigurationMap, b.MaxSizeConfigurationMap),
	}
}

// MergeAll folds a list of ConfigurationSizes with Merge. An empty list
// yields the identity element.
func MergeAll(all []ConfigurationSizes) ConfigurationSizes {
	merged := Identity()
	for _, sizes := range all {
		merged = Merge(merged, sizes)
	}
	return merged
}

// mergeMaps computes the cross product of the two maps. Incompatible pairs
// describe no realizable device and are discarded. Compatible pairs fold into
// the field-wise union key with summed values; distinct pairs landing on the
// same union key accumulate.
func mergeMaps(a, b map[SizeConfiguration]int64) map[SizeConfiguration]int64 {
	merged := make(map[SizeConfiguration]int64)
	for configA, sizeA := range a {
		for configB, sizeB := range b {
			if !configA.Compatible(configB) {
				continue
			}
			merged[configA.Union(configB)] += sizeA + sizeB
		}
	}
	return merged
}
