// Package reconcile keeps the machine-generated task list aligned with
// resolved requirement status.
//
// The pass is idempotent: running it twice against unchanged inputs makes no
// writes on the second run, and user-visible scheduling data (a task's due
// date) is never reset once set. Each requirement is processed independently;
// a store failure on one is collected into the result instead of aborting
// the rest, and the next run self-corrects whatever was left behind.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/farmdesk/complyd/internal/audit"
	"github.com/farmdesk/complyd/internal/resolver"
	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

// DueWindow is how far out a newly created task is due.
const DueWindow = 7 * 24 * time.Hour

// RequirementError records a per-requirement failure during a pass.
type RequirementError struct {
	RequirementID string
	Op            string // "resolve", "create", "complete", "reopen"
	Err           error
}

func (e RequirementError) Error() string {
	return fmt.Sprintf("requirement %s: %s: %v", e.RequirementID, e.Op, e.Err)
}

func (e RequirementError) Unwrap() error { return e.Err }

// Result reports what a reconciliation pass changed.
type Result struct {
	Created      int
	Completed    int
	Reopened     int
	FinalSummary types.Summary
	Failures     []RequirementError
}

// Engine runs reconciliation passes against a storage backend.
type Engine struct {
	Store storage.Storage
	Audit audit.Sink
	Actor string

	// Now is the clock used for timestamps and staleness checks.
	// Defaults to time.Now; tests inject fixed clocks.
	Now func() time.Time

	// OnWarning receives per-requirement failure messages as they happen
	// (optional; failures are also collected in the Result).
	OnWarning func(msg string)

	// RetryElapsed caps the backoff window for transient task writes.
	// Zero means a short default suitable for a synchronous pass.
	RetryElapsed time.Duration
}

// NewEngine creates an engine with the default clock and a no-op audit sink.
func NewEngine(store storage.Storage, sink audit.Sink, actor string) *Engine {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Engine{Store: store, Audit: sink, Actor: actor, Now: time.Now}
}

// Reconcile synchronizes the tenant's tracking tasks with current resolver
// output for one template and emits an audit event with the change counts.
//
// Only machine-generated tasks (source missing_item) are ever touched.
// Returns an error only when the pass could not run at all (e.g. the catalog
// read failed); per-requirement failures land in Result.Failures.
func (e *Engine) Reconcile(ctx context.Context, tenantID, templateID string) (*Result, error) {
	now := e.now().UTC()
	result := &Result{}

	resolutions, err := resolver.ResolveAll(ctx, e.Store, tenantID, templateID, now)
	if err != nil {
		return nil, fmt.Errorf("resolving template %s: %w", templateID, err)
	}

	existing, err := e.Store.ListMachineTasks(ctx, tenantID, templateID)
	if err != nil {
		return nil, fmt.Errorf("listing tracking tasks: %w", err)
	}
	byRequirement := make(map[string]*types.Task, len(existing))
	for _, t := range existing {
		byRequirement[t.RequirementID] = t
	}

	for _, res := range resolutions {
		req := res.Requirement
		if res.Err != nil {
			result.fail(req.ID, "resolve", res.Err, e.OnWarning)
			continue
		}

		task := byRequirement[req.ID]
		satisfied := res.Status == types.StatusSatisfied
		optional := !req.Required

		if satisfied || optional {
			// Requirement needs no action: complete any lingering task.
			if task != nil && task.Status != types.TaskDone {
				if err := e.completeTask(ctx, task.ID, now); err != nil {
					result.fail(req.ID, "complete", err, e.OnWarning)
					continue
				}
				result.Completed++
			}
			continue
		}

		// Requirement still needs attention.
		priority := types.PriorityNormal
		if res.Status == types.StatusExpired {
			priority = types.PriorityUrgent
		}

		switch {
		case task == nil:
			if err := e.createTask(ctx, tenantID, templateID, req, priority, now); err != nil {
				result.fail(req.ID, "create", err, e.OnWarning)
				continue
			}
			result.Created++

		case task.Status == types.TaskDone:
			// Reopen. The due date stays put: it reflects when the gap was
			// first discovered, not when it most recently flared up.
			if err := e.reopenTask(ctx, task.ID, priority); err != nil {
				result.fail(req.ID, "reopen", err, e.OnWarning)
				continue
			}
			result.Reopened++

		default:
			// Already open or snoozed: leave entirely untouched, including
			// priority. An already-visible task is not re-prioritized
			// mid-flight by an automated pass.
		}
	}

	summary, err := resolver.SummarizeAll(ctx, e.Store, tenantID, templateID, now)
	if err != nil {
		return result, fmt.Errorf("recomputing summary: %w", err)
	}
	result.FinalSummary = summary

	event := audit.Event{
		Time:     now,
		Actor:    e.Actor,
		Tenant:   tenantID,
		Template: templateID,
		Kind:     audit.KindReconcile,
		Counts: audit.Counts{
			Created:   result.Created,
			Completed: result.Completed,
			Reopened:  result.Reopened,
			Missing:   summary.Missing,
		},
	}
	if err := e.Audit.Record(ctx, event); err != nil {
		e.warn("audit record failed: %v", err)
	}

	return result, nil
}

func (e *Engine) createTask(ctx context.Context, tenantID, templateID string, req *types.Requirement, priority types.TaskPriority, now time.Time) error {
	due := now.Add(DueWindow)
	task := &types.Task{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		TemplateID:    templateID,
		RequirementID: req.ID,
		Source:        types.SourceMissingItem,
		Title:         fmt.Sprintf("Provide evidence: %s", req.Title),
		Status:        types.TaskOpen,
		Priority:      priority,
		DueAt:         &due,
		CreatedAt:     now,
	}
	return e.retryWrite(ctx, func() error {
		return e.Store.CreateTask(ctx, task)
	})
}

func (e *Engine) completeTask(ctx context.Context, taskID string, now time.Time) error {
	return e.retryWrite(ctx, func() error {
		return e.Store.UpdateTask(ctx, taskID, map[string]interface{}{
			"status":       string(types.TaskDone),
			"completed_at": now,
		})
	})
}

func (e *Engine) reopenTask(ctx context.Context, taskID string, priority types.TaskPriority) error {
	return e.retryWrite(ctx, func() error {
		return e.Store.UpdateTask(ctx, taskID, map[string]interface{}{
			"status":       string(types.TaskOpen),
			"priority":     string(priority),
			"completed_at": nil,
		})
	})
}

// retryWrite retries a task-store write with capped exponential backoff.
// Permanent-looking errors (validation, not-found) are not retried.
func (e *Engine) retryWrite(ctx context.Context, op func() error) error {
	elapsed := e.RetryElapsed
	if elapsed == 0 {
		elapsed = 2 * time.Second
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = elapsed

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

// isPermanent reports whether a store error cannot be fixed by retrying.
func isPermanent(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrNotInitialized)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) warn(format string, args ...interface{}) {
	if e.OnWarning != nil {
		e.OnWarning(fmt.Sprintf(format, args...))
	}
}

func (r *Result) fail(reqID, op string, err error, warn func(string)) {
	r.Failures = append(r.Failures, RequirementError{RequirementID: reqID, Op: op, Err: err})
	if warn != nil {
		warn(fmt.Sprintf("requirement %s: %s failed: %v", reqID, op, err))
	}
}
