package resolver

import (
	"context"
	"time"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

// Summarize folds resolutions into aggregate counts.
//
// Total counts every requirement. A missing optional requirement is counted
// under Satisfied instead of Missing: an absent optional item is not a gap.
// That is the only substitution — optional requirements that are expired or
// needs_review keep their literal status, as does every required requirement.
// Resolutions that failed to load are counted under NeedsReview so a broken
// read never inflates the satisfied count.
func Summarize(resolutions []Resolution) types.Summary {
	var s types.Summary
	for _, res := range resolutions {
		s.Total++

		status := res.Status
		if res.Err != nil {
			status = types.StatusNeedsReview
		}
		if status == types.StatusMissing && !res.Requirement.Required {
			status = types.StatusSatisfied
		}

		switch status {
		case types.StatusSatisfied:
			s.Satisfied++
		case types.StatusMissing:
			s.Missing++
		case types.StatusExpired:
			s.Expired++
		case types.StatusNeedsReview:
			s.NeedsReview++
		}
	}
	return s
}

// SummarizeAll resolves the full template and returns its summary.
func SummarizeAll(ctx context.Context, store storage.Storage, tenantID, templateID string, now time.Time) (types.Summary, error) {
	resolutions, err := ResolveAll(ctx, store, tenantID, templateID, now)
	if err != nil {
		return types.Summary{}, err
	}
	return Summarize(resolutions), nil
}
