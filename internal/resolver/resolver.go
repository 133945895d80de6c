// Package resolver computes the canonical status of compliance requirements
// and aggregates those statuses into template-level summaries.
//
// Resolve is a pure function over already-loaded inputs so it can be tested
// with literal fixtures; ResolveAll does the store reads and fans the loaded
// data into it.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

// Resolution pairs a requirement with its computed status and the linked
// document, if any. Err is set when the requirement's inputs could not be
// loaded or were malformed; the other requirements in the same call still
// resolve normally.
type Resolution struct {
	Requirement *types.Requirement
	Status      types.ResolvedStatus
	Document    *types.Document
	Err         error
}

// Resolve computes the canonical status for one requirement.
//
// Precedence, first match wins: no link is missing; a manual override
// short-circuits everything; otherwise the document's lifecycle status,
// expiry date, and the requirement's recency window are evaluated in order.
// A link whose document no longer exists resolves to needs_review.
//
// Resolve has no side effects and performs no I/O.
func Resolve(req *types.Requirement, link *types.Link, doc *types.Document, now time.Time) (types.ResolvedStatus, error) {
	if link == nil {
		return types.StatusMissing, nil
	}

	switch link.Override {
	case types.OverrideSatisfied:
		return types.StatusSatisfied, nil
	case types.OverrideRejected:
		return types.StatusMissing, nil
	case types.OverrideNotSure:
		return types.StatusNeedsReview, nil
	case types.OverrideNone:
		// fall through to evidence evaluation
	default:
		return "", fmt.Errorf("requirement %s: malformed override %q", req.ID, link.Override)
	}

	// Dangling reference: the link survived but its document did not.
	if doc == nil {
		return types.StatusNeedsReview, nil
	}

	if doc.Status == types.DocExpired {
		return types.StatusExpired, nil
	}
	if doc.ExpiresAt != nil && doc.ExpiresAt.Before(now) {
		return types.StatusExpired, nil
	}
	if req.RecencyDays != nil && isStale(doc.DocDate, *req.RecencyDays, now) {
		return types.StatusExpired, nil
	}

	switch doc.Status {
	case types.DocNeedsReview:
		return types.StatusNeedsReview, nil
	case types.DocOK:
		return types.StatusSatisfied, nil
	default:
		// Unknown lifecycle value: never silently satisfied.
		return types.StatusNeedsReview, nil
	}
}

// isStale reports whether a document fails a recency window of the given
// number of days. A document without a date cannot prove recency and is
// always stale.
func isStale(docDate *time.Time, recencyDays int, now time.Time) bool {
	if docDate == nil {
		return true
	}
	cutoff := now.AddDate(0, 0, -recencyDays)
	return docDate.Before(cutoff)
}

// maxDocFetch bounds concurrent document loads during ResolveAll.
const maxDocFetch = 8

// ResolveAll loads the template's requirements with their links and documents
// and resolves each one. The returned slice preserves catalog order. A load
// failure for one requirement is recorded on its Resolution only; the rest of
// the template still resolves.
func ResolveAll(ctx context.Context, store storage.Storage, tenantID, templateID string, now time.Time) ([]Resolution, error) {
	reqs, err := store.ListRequirements(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("listing requirements for template %s: %w", templateID, err)
	}
	if len(reqs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}

	links, err := store.GetLinks(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading links for template %s: %w", templateID, err)
	}

	docs, docErrs := loadDocuments(ctx, store, tenantID, links)

	out := make([]Resolution, len(reqs))
	for i, req := range reqs {
		res := Resolution{Requirement: req}
		link := links[req.ID]

		var doc *types.Document
		if link != nil {
			if loadErr := docErrs[link.DocumentID]; loadErr != nil {
				res.Err = fmt.Errorf("requirement %s: loading document %s: %w", req.ID, link.DocumentID, loadErr)
				out[i] = res
				continue
			}
			doc = docs[link.DocumentID]
		}

		status, rerr := Resolve(req, link, doc, now)
		if rerr != nil {
			res.Err = rerr
		} else {
			res.Status = status
			res.Document = doc
		}
		out[i] = res
	}
	return out, nil
}

// loadDocuments fetches the documents referenced by the given links with
// bounded parallelism. Batch-capable stores get one GetDocuments call; the
// fallback path fans out individual reads. Errors are returned per document
// so one bad read cannot poison the whole template.
func loadDocuments(ctx context.Context, store storage.Storage, tenantID string, links map[string]*types.Link) (map[string]*types.Document, map[string]error) {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range links {
		if !seen[l.DocumentID] {
			seen[l.DocumentID] = true
			ids = append(ids, l.DocumentID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if docs, err := store.GetDocuments(ctx, tenantID, ids); err == nil {
		return docs, nil
	}

	// Batch read failed; retry documents individually so only the broken
	// ones surface as per-requirement errors.
	var mu sync.Mutex
	docs := make(map[string]*types.Document)
	errs := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDocFetch)
	for _, id := range ids {
		g.Go(func() error {
			doc, err := store.GetDocument(gctx, tenantID, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				errs[id] = err
			} else if doc != nil {
				docs[id] = doc
			}
			return nil
		})
	}
	_ = g.Wait()
	return docs, errs
}
