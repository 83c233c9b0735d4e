package sizes

import (
	"reflect"
	"testing"
)

func TestMerge_DefaultConfigurations(t *testing.T) {
	a := SingleValue(SizeConfiguration{}, 10, 20)
	b := SingleValue(SizeConfiguration{}, 30, 40)

	merged := Merge(a, b)

	wantMin := map[SizeConfiguration]int64{{}: 40}
	wantMax := map[SizeConfiguration]int64{{}: 60}
	if !reflect.DeepEqual(merged.MinSizeConfigurationMap, wantMin) {
		t.Errorf("min map = %v, want %v", merged.MinSizeConfigurationMap, wantMin)
	}
	if !reflect.DeepEqual(merged.MaxSizeConfigurationMap, wantMax) {
		t.Errorf("max map = %v, want %v", merged.MaxSizeConfigurationMap, wantMax)
	}
}

func TestMerge_Identity(t *testing.T) {
	value := ConfigurationSizes{
		MinSizeConfigurationMap: map[SizeConfiguration]int64{
			{Abi: "x86"}:  100,
			{Abi: "mips"}: 200,
		},
		MaxSizeConfigurationMap: map[SizeConfiguration]int64{
			{Abi: "x86"}:  150,
			{Abi: "mips"}: 250,
		},
	}

	for _, merged := range []ConfigurationSizes{Merge(value, Identity()), Merge(Identity(), value)} {
		if !reflect.DeepEqual(merged.MinSizeConfigurationMap, value.MinSizeConfigurationMap) {
			t.Errorf("min map = %v, want %v", merged.MinSizeConfigurationMap, value.MinSizeConfigurationMap)
		}
		if !reflect.DeepEqual(merged.MaxSizeConfigurationMap, value.MaxSizeConfigurationMap) {
			t.Errorf("max map = %v, want %v", merged.MaxSizeConfigurationMap, value.MaxSizeConfigurationMap)
		}
	}
}

func TestMerge_DisjointDimensionsCrossProduct(t *testing.T) {
	abis := ConfigurationSizes{
		MinSizeConfigurationMap: map[SizeConfiguration]int64{
			{Abi: "x86"}:  10,
			{Abi: "mips"}: 20,
		},
		MaxSizeConfigurationMap: map[SizeConfiguration]int64{
			{Abi: "x86"}:  15,
			{Abi: "mips"}: 25,
		},
	}
	densities := ConfigurationSizes{
		MinSizeConfigurationMap: map[SizeConfiguration]int64{
			{ScreenDensity: "hdpi"}:  100,
			{ScreenDensity: "xhdpi"}: 200,
		},
		MaxSizeConfigurationMap: map[SizeConfiguration]int64{
			{ScreenDensity: "hdpi"}:  150,
			{ScreenDensity: "xhdpi"}: 250,
		},
	}

	merged := Merge(abis, densities)

	wantMin := map[SizeConfiguration]int64{
		{Abi: "x86", ScreenDensity: "hdpi"}:   110,
		{Abi: "x86", ScreenDensity: "xhdpi"}:  210,
		{Abi: "mips", ScreenDensity: "hdpi"}:  120,
		{Abi: "mips", ScreenDensity: "xhdpi"}: 220,
	}
	wantMax := map[SizeConfiguration]int64{
		{Abi: "x86", ScreenDensity: "hdpi"}:   165,
		{Abi: "x86", ScreenDensity: "xhdpi"}:  265,
		{Abi: "mips", ScreenDensity: "hdpi"}:  175,
		{Abi: "mips", ScreenDensity: "xhdpi"}: 275,
	}
	if !reflect.DeepEqual(merged.MinSizeConfigurationMap, wantMin) {
		t.Errorf("min map = %v, want %v", merged.MinSizeConfigurationMap, wantMin)
	}
	if !reflect.DeepEqual(merged.MaxSizeConfigurationMap, wantMax) {
		t.Errorf("max map = %v, want %v", merged.MaxSizeConfigurationMap, wantMax)
	}
}

func TestMerge_IncompatiblePairsDiscarded(t *testing.T) {
	a := SingleValue(SizeConfiguration{Abi: "x86"}, 10, 15)
	b := SingleValue(SizeConfiguration{Abi: "arm64-v8a"}, 20, 25)

	merged := Merge(a, b)

	if len(merged.MinSizeConfigurationMap) != 0 {
		t.Errorf("min map = %v, want empty", merged.MinSizeConfigurationMap)
	}
	if len(merged.MaxSizeConfigurationMap) != 0 {
		t.Errorf("max map = %v, want empty", merged.MaxSizeConfigurationMap)
	}
}

func TestMerge_OverlappingDimensionAccumulates(t *testing.T) {
	// Both operands constrain the same dimension with the same value, plus
	// a wildcard row: the cross product folds multiple pairs into the same
	// union key.
	a := ConfigurationSizes{
		MinSizeConfigurationMap: map[SizeConfiguration]int64{
			{Abi: "x86"}: 10,
			{}:           1,
		},
		MaxSizeConfigurationMap: map[SizeConfiguration]int64{
			{Abi: "x86"}: 10,
			{}:           1,
		},
	}
	b := SingleValue(SizeConfiguration{Abi: "x86"}, 100, 100)

	merged := Merge(a, b)

	want := map[SizeConfiguration]int64{{Abi: "x86"}: 211}
	if !reflect.DeepEqual(merged.MinSizeConfigurationMap, want) {
		t.Errorf("min map = %v, want %v", merged.MinSizeConfigurationMap, want)
	}
}

func TestMergeAll_OrderIndependent(t *testing.T) {
	parts := []ConfigurationSizes{
		SingleValue(SizeConfiguration{Abi: "x86"}, 5, 10),
		SingleValue(SizeConfiguration{ScreenDensity: "hdpi"}, 7, 12),
		SingleValue(SizeConfiguration{Locale: "en"}, 3, 6),
	}
	reversed := []ConfigurationSizes{parts[2], parts[1], parts[0]}

	forward := MergeAll(parts)
	backward := MergeAll(reversed)

	if !reflect.DeepEqual(forward.MinSizeConfigurationMap, backward.MinSizeConfigurationMap) {
		t.Errorf("fold order changed min map: %v vs %v", forward.MinSizeConfigurationMap, backward.MinSizeConfigurationMap)
	}
	if !reflect.DeepEqual(forward.MaxSizeConfigurationMap, backward.MaxSizeConfigurationMap) {
		t.Errorf("fold order changed max map: %v vs %v", forward.MaxSizeConfigurationMap, backward.MaxSizeConfigurationMap)
	}
}

func TestMergeAll_Empty(t *testing.T) {
	merged := MergeAll(nil)
	want := Identity()
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("MergeAll(nil) = %v, want identity %v", merged, want)
	}
}

func TestSizeConfiguration_Compatible(t *testing.T) {
	tests := []struct {
		name string
		a, b SizeConfiguration
		want bool
	}{
		{
			name: "both default",
			want: true,
		},
		{
			name: "disjoint dimensions",
			a:    SizeConfiguration{Abi: "x86"},
			b:    SizeConfiguration{ScreenDensity: "hdpi"},
			want: true,
		},
		{
			name: "same dimension same value",
			a:    SizeConfiguration{Abi: "x86"},
			b:    SizeConfiguration{Abi: "x86", Locale: "en"},
			want: true,
		},
		{
			name: "same dimension different value",
			a:    SizeConfiguration{Abi: "x86"},
			b:    SizeConfiguration{Abi: "arm64-v8a"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compatible(tt.b); got != tt.want {
				t.Errorf("Compatible() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Compatible(tt.a); got != tt.want {
				t.Errorf("Compatible() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSizeConfiguration_Union(t *testing.T) {
	a := SizeConfiguration{Abi: "x86", Locale: "en"}
	b := SizeConfiguration{ScreenDensity: "hdpi", Locale: "en"}

	got := a.Union(b)
	want := SizeConfiguration{Abi: "x86", ScreenDensity: "hdpi", Locale: "en"}
	if got != want {
		t.Errorf("Union() = %v, want %v", got, want)
	}
}
