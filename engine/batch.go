package engine

import (
	"context"
	"sync"
)

type BatchFailure struct {
	Id     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchResult aggregates per-item outcomes. Partial failure is data, not
// an error: only a batch that cannot start at all (empty id list) returns
// a top-level error.
type BatchResult struct {
	SuccessCount int            `json:"successCount"`
	FailedCount  int            `json:"failedCount"`
	Failures     []BatchFailure `json:"failures,omitempty"`
}

// runBatch applies op to each id independently and in parallel. One item's
// failure never affects another's; ordering of Failures is not guaranteed
// and callers must not rely on it.
func runBatch(ctx context.Context, ids []string, op func(ctx context.Context, id string) error) (BatchResult, error) {
	if len(ids) == 0 {
		return BatchResult{}, &ValidationError{Code: "IDS_REQUIRED", Message: "batch requires at least one id"}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result BatchResult
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			err := op(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedCount++
				result.Failures = append(result.Failures, BatchFailure{Id: id, Reason: err.Error()})
			} else {
				result.SuccessCount++
			}
		}(id)
	}

	wg.Wait()
	return result, nil
}
