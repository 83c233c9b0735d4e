package service

import (
	"context"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aabtools/apkset/internal/domain"
	"github.com/aabtools/apkset/internal/sizes"
)

// runUnits fans the splitting units out over a bounded worker pool and folds
// their partial size estimates back into a single joint estimate. On the
// first unit failure the remaining unscheduled units are dropped, in-flight
// results are discarded and the first error is returned; no partial output
// survives.
func runUnits(ctx context.Context, units []splitUnit, maxThreads int) ([]domain.SplitApk, sizes.ConfigurationSizes, error) {
	if maxThreads <= 0 {
		maxThreads = runtime.NumCPU()
	}
	log.Debugf("running %d splitting units on %d workers", len(units), maxThreads)

	results := make([]unitResult, len(units))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxThreads)

	for i, unit := range units {
		group.Go(func() error {
			// Scheduled-but-not-started units bail out once a sibling
			// has failed.
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result, err := unit(groupCtx)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, sizes.ConfigurationSizes{}, err
	}

	var apks []domain.SplitApk
	partials := make([]sizes.ConfigurationSizes, 0, len(results))
	for _, result := range results {
		apks = append(apks, result.apks...)
		partials = append(partials, result.sizes)
	}
	// Merge is commutative and associative, so the fold order is fixed only
	// for readability; completion order cannot affect the final map.
	return apks, sizes.MergeAll(partials), nil
}
