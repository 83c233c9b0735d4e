package service

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aabtools/apkset/internal/domain"
	"github.com/aabtools/apkset/internal/sizes"
)

func stubUnit(apk domain.SplitApk, partial sizes.ConfigurationSizes) splitUnit {
	return func(ctx context.Context) (unitResult, error) {
		return unitResult{
			apks:  []domain.SplitApk{apk},
			sizes: partial,
		}, nil
	}
}

func TestRunUnits_MergesPartialResults(t *testing.T) {
	units := []splitUnit{
		stubUnit(
			domain.SplitApk{ModuleName: "base", SplitID: "x86"},
			sizes.SingleValue(sizes.SizeConfiguration{Abi: "x86"}, 10, 20),
		),
		stubUnit(
			domain.SplitApk{ModuleName: "base", SplitID: "hdpi"},
			sizes.SingleValue(sizes.SizeConfiguration{ScreenDensity: "hdpi"}, 5, 8),
		),
	}

	apks, merged, err := runUnits(context.Background(), units, 2)
	if err != nil {
		t.Fatalf("runUnits() error: %v", err)
	}

	if len(apks) != 2 {
		t.Fatalf("runUnits() produced %d apks, want 2", len(apks))
	}
	// Results keep submission order regardless of completion order.
	if apks[0].SplitID != "x86" || apks[1].SplitID != "hdpi" {
		t.Errorf("runUnits() order = %s, %s", apks[0].SplitID, apks[1].SplitID)
	}

	wantMin := map[sizes.SizeConfiguration]int64{
		{Abi: "x86", ScreenDensity: "hdpi"}: 15,
	}
	if !reflect.DeepEqual(merged.MinSizeConfigurationMap, wantMin) {
		t.Errorf("merged min map = %v, want %v", merged.MinSizeConfigurationMap, wantMin)
	}
}

func TestRunUnits_FirstErrorWins(t *testing.T) {
	unitErr := errors.New("split failed")
	var started atomic.Int32

	units := []splitUnit{
		func(ctx context.Context) (unitResult, error) {
			started.Add(1)
			return unitResult{}, unitErr
		},
	}
	// Enough trailing units that some are still unscheduled when the
	// failure propagates; they must observe the cancelled group context.
	for i := 0; i < 64; i++ {
		units = append(units, func(ctx context.Context) (unitResult, error) {
			started.Add(1)
			select {
			case <-ctx.Done():
				return unitResult{}, ctx.Err()
			case <-time.After(10 * time.Millisecond):
				return unitResult{apks: []domain.SplitApk{{ModuleName: "base"}}, sizes: sizes.Identity()}, nil
			}
		})
	}

	apks, _, err := runUnits(context.Background(), units, 1)
	if !errors.Is(err, unitErr) {
		t.Fatalf("runUnits() error = %v, want %v", err, unitErr)
	}
	if apks != nil {
		t.Error("runUnits() returned partial output after a failure")
	}
	if n := started.Load(); int(n) == len(units) {
		t.Logf("all %d units ran before cancellation; pool may be too fast to observe the drop", n)
	}
}

func TestRunUnits_NoUnits(t *testing.T) {
	apks, merged, err := runUnits(context.Background(), nil, 4)
	if err != nil {
		t.Fatalf("runUnits() error: %v", err)
	}
	if len(apks) != 0 {
		t.Errorf("runUnits() apks = %v, want none", apks)
	}
	if !reflect.DeepEqual(merged, sizes.Identity()) {
		t.Errorf("runUnits() sizes = %v, want identity", merged)
	}
}

func TestRunUnits_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := []splitUnit{
		stubUnit(domain.SplitApk{ModuleName: "base"}, sizes.Identity()),
	}
	_, _, err := runUnits(ctx, units, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("runUnits() error = %v, want context.Canceled", err)
	}
}
