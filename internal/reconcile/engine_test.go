package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/farmdesk/complyd/internal/audit"
	"github.com/farmdesk/complyd/internal/storage/memory"
	"github.com/farmdesk/complyd/internal/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// env bundles a store, engine, and clock for reconciliation tests.
type env struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	engine *Engine
	sink   *audit.MemorySink
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		t:     t,
		ctx:   context.Background(),
		store: memory.New(),
		sink:  &audit.MemorySink{},
		now:   testNow,
	}
	e.engine = NewEngine(e.store, e.sink, "tester")
	e.engine.Now = func() time.Time { return e.now }
	e.engine.RetryElapsed = 10 * time.Millisecond
	return e
}

func (e *env) addRequirement(id string, required bool) {
	e.t.Helper()
	err := e.store.CreateRequirement(e.ctx, &types.Requirement{
		ID: id, TemplateID: "tpl", Title: "Requirement " + id, Required: required,
	})
	if err != nil {
		e.t.Fatal(err)
	}
}

// satisfy links the requirement to a fresh ok document.
func (e *env) satisfy(reqID string) {
	e.t.Helper()
	docID := "doc-" + reqID
	if err := e.store.PutDocument(e.ctx, &types.Document{ID: docID, TenantID: "t1", Status: types.DocOK}); err != nil {
		e.t.Fatal(err)
	}
	if err := e.store.UpsertLink(e.ctx, &types.Link{TenantID: "t1", RequirementID: reqID, DocumentID: docID}); err != nil {
		e.t.Fatal(err)
	}
}

func (e *env) unsatisfy(reqID string) {
	e.t.Helper()
	if err := e.store.DeleteLink(e.ctx, "t1", reqID); err != nil {
		e.t.Fatal(err)
	}
}

func (e *env) reconcile() *Result {
	e.t.Helper()
	result, err := e.engine.Reconcile(e.ctx, "t1", "tpl")
	if err != nil {
		e.t.Fatalf("Reconcile() error = %v", err)
	}
	return result
}

func (e *env) machineTasks() []*types.Task {
	e.t.Helper()
	tasks, err := e.store.ListMachineTasks(e.ctx, "t1", "tpl")
	if err != nil {
		e.t.Fatal(err)
	}
	return tasks
}

func TestReconcileCreatesTasksForUnmetRequirements(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)
	e.addRequirement("r2", true)
	e.satisfy("r1")

	result := e.reconcile()
	if result.Created != 1 || result.Completed != 0 || result.Reopened != 0 {
		t.Errorf("got created=%d completed=%d reopened=%d, want 1/0/0",
			result.Created, result.Completed, result.Reopened)
	}

	tasks := e.machineTasks()
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	task := tasks[0]
	if task.RequirementID != "r2" {
		t.Errorf("task for %s, want r2", task.RequirementID)
	}
	if task.Status != types.TaskOpen || task.Priority != types.PriorityNormal {
		t.Errorf("got status=%s priority=%s, want open/normal", task.Status, task.Priority)
	}
	if task.Source != types.SourceMissingItem {
		t.Errorf("got source=%s, want missing_item", task.Source)
	}
	wantDue := testNow.Add(DueWindow)
	if task.DueAt == nil || !task.DueAt.Equal(wantDue) {
		t.Errorf("got due_at=%v, want %v", task.DueAt, wantDue)
	}
}

func TestReconcileUrgentPriorityForExpired(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)
	if err := e.store.PutDocument(e.ctx, &types.Document{ID: "d1", TenantID: "t1", Status: types.DocExpired}); err != nil {
		t.Fatal(err)
	}
	if err := e.store.UpsertLink(e.ctx, &types.Link{TenantID: "t1", RequirementID: "r1", DocumentID: "d1"}); err != nil {
		t.Fatal(err)
	}

	e.reconcile()
	tasks := e.machineTasks()
	if len(tasks) != 1 || tasks[0].Priority != types.PriorityUrgent {
		t.Fatalf("expired requirement should create an urgent task, got %+v", tasks)
	}
}

func TestReconcileIdempotence(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)
	e.addRequirement("r2", true)
	e.satisfy("r1")

	first := e.reconcile()
	if first.Created != 1 {
		t.Fatalf("first run created=%d, want 1", first.Created)
	}
	after1 := e.machineTasks()

	second := e.reconcile()
	if second.Created != 0 || second.Reopened != 0 || second.Completed != 0 {
		t.Errorf("second run created=%d reopened=%d completed=%d, want all 0",
			second.Created, second.Reopened, second.Completed)
	}
	after2 := e.machineTasks()
	if !reflect.DeepEqual(after1, after2) {
		t.Errorf("task set changed between identical runs:\nfirst:  %+v\nsecond: %+v", after1, after2)
	}
}

func TestReconcileCompletesSatisfiedTask(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)
	e.reconcile() // creates the task

	e.satisfy("r1")
	e.now = e.now.Add(time.Hour)
	result := e.reconcile()
	if result.Completed != 1 {
		t.Fatalf("got completed=%d, want 1", result.Completed)
	}

	task := e.machineTasks()[0]
	if task.Status != types.TaskDone {
		t.Errorf("got status=%s, want done", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(e.now) {
		t.Errorf("got completed_at=%v, want %v", task.CompletedAt, e.now)
	}
}

func TestDueDatePreservedAcrossReopen(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)

	// Run 1: requirement unmet, task created with due date D.
	e.reconcile()
	task := e.machineTasks()[0]
	if task.DueAt == nil {
		t.Fatal("new task has no due date")
	}
	originalDue := *task.DueAt

	// Run 2: requirement satisfied, task completed.
	e.satisfy("r1")
	e.now = e.now.Add(24 * time.Hour)
	e.reconcile()

	// Run 3: requirement unmet again, task reopened.
	e.unsatisfy("r1")
	e.now = e.now.Add(24 * time.Hour)
	result := e.reconcile()
	if result.Reopened != 1 || result.Created != 0 {
		t.Fatalf("got reopened=%d created=%d, want 1/0", result.Reopened, result.Created)
	}

	task = e.machineTasks()[0]
	if task.Status != types.TaskOpen {
		t.Errorf("got status=%s, want open", task.Status)
	}
	if task.CompletedAt != nil {
		t.Errorf("reopened task still has completed_at=%v", task.CompletedAt)
	}
	if task.DueAt == nil || !task.DueAt.Equal(originalDue) {
		t.Errorf("due date was reset: got %v, want %v", task.DueAt, originalDue)
	}
}

func TestReopenRefreshesPriorityAndKeepsDueDate(t *testing.T) {
	// A reopen (unlike an already-open task) picks up the requirement's
	// current severity, while the due date stays at its original value.
	e := newEnv(t)
	e.addRequirement("r1", true)

	e.reconcile() // missing: open task, priority normal
	originalDue := *e.machineTasks()[0].DueAt

	e.satisfy("r1")
	e.now = e.now.Add(24 * time.Hour)
	e.reconcile() // satisfied: task done

	// Evidence flips to expired, so the reopen should come back urgent.
	if err := e.store.PutDocument(e.ctx, &types.Document{ID: "doc-r1", TenantID: "t1", Status: types.DocExpired}); err != nil {
		t.Fatal(err)
	}
	e.now = e.now.Add(24 * time.Hour)
	result := e.reconcile()
	if result.Reopened != 1 || result.Created != 0 {
		t.Fatalf("got reopened=%d created=%d, want 1/0", result.Reopened, result.Created)
	}

	task := e.machineTasks()[0]
	if task.Priority != types.PriorityUrgent {
		t.Errorf("got priority=%s, want urgent after reopen against expired evidence", task.Priority)
	}
	if task.DueAt == nil || !task.DueAt.Equal(originalDue) {
		t.Errorf("due date was reset: got %v, want %v", task.DueAt, originalDue)
	}

	// With nothing changed underneath, the next run writes nothing.
	before := e.machineTasks()
	second := e.reconcile()
	if second.Created != 0 || second.Reopened != 0 || second.Completed != 0 {
		t.Errorf("second run made writes: %+v", second)
	}
	if !reflect.DeepEqual(before, e.machineTasks()) {
		t.Error("task set changed on a no-op run")
	}
}

func TestReconcileOptionalRequirement(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", false)

	// Optional requirements never get tasks, even when missing.
	result := e.reconcile()
	if result.Created != 0 {
		t.Errorf("optional requirement created a task")
	}

	// A lingering machine task for an optional requirement is completed.
	due := testNow.Add(DueWindow)
	err := e.store.CreateTask(e.ctx, &types.Task{
		ID: "stale", TenantID: "t1", TemplateID: "tpl", RequirementID: "r1",
		Source: types.SourceMissingItem, Title: "Stale", Status: types.TaskOpen,
		Priority: types.PriorityNormal, DueAt: &due,
	})
	if err != nil {
		t.Fatal(err)
	}
	result = e.reconcile()
	if result.Completed != 1 {
		t.Errorf("got completed=%d, want 1", result.Completed)
	}
}

func TestOpenTaskPriorityNotRefreshed(t *testing.T) {
	// An already-open task keeps its priority even when the requirement's
	// severity changes underneath it.
	e := newEnv(t)
	e.addRequirement("r1", true)
	e.reconcile() // creates open task with priority normal (missing)

	// Requirement escalates from missing to expired.
	if err := e.store.PutDocument(e.ctx, &types.Document{ID: "d1", TenantID: "t1", Status: types.DocExpired}); err != nil {
		t.Fatal(err)
	}
	if err := e.store.UpsertLink(e.ctx, &types.Link{TenantID: "t1", RequirementID: "r1", DocumentID: "d1"}); err != nil {
		t.Fatal(err)
	}

	result := e.reconcile()
	if result.Created != 0 || result.Reopened != 0 {
		t.Fatalf("open task should be untouched, got %+v", result)
	}
	task := e.machineTasks()[0]
	if task.Priority != types.PriorityNormal {
		t.Errorf("open task was re-prioritized to %s", task.Priority)
	}
}

func TestReconcileIgnoresUserTasks(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)
	e.satisfy("r1")

	err := e.store.CreateTask(e.ctx, &types.Task{
		ID: "user-1", TenantID: "t1", TemplateID: "tpl", RequirementID: "r1",
		Source: types.SourceUser, Title: "Call the vet", Status: types.TaskOpen,
		Priority: types.PriorityNormal,
	})
	if err != nil {
		t.Fatal(err)
	}

	result := e.reconcile()
	if result.Completed != 0 {
		t.Errorf("reconcile touched a user task: %+v", result)
	}
	task, err := e.store.GetTask(e.ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != types.TaskOpen {
		t.Errorf("user task status changed to %s", task.Status)
	}
}

func TestReconcileAuditEvent(t *testing.T) {
	e := newEnv(t)
	e.addRequirement("r1", true)
	e.addRequirement("r2", true)
	e.satisfy("r1")

	e.reconcile()
	events := e.sink.Events()
	if len(events) != 1 {
		t.Fatalf("got %d audit events, want 1", len(events))
	}
	ev := events[0]
	if ev.Kind != audit.KindReconcile || ev.Tenant != "t1" || ev.Template != "tpl" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Counts.Created != 1 || ev.Counts.Missing != 1 {
		t.Errorf("got counts %+v, want created=1 missing=1", ev.Counts)
	}
	if ev.Actor != "tester" {
		t.Errorf("got actor %s, want tester", ev.Actor)
	}
}

// faultyStore fails CreateTask for one requirement to exercise partial
// failure collection.
type faultyStore struct {
	*memory.Store
	failFor string
}

var errTransient = errors.New("transient store error")

func (f *faultyStore) CreateTask(ctx context.Context, task *types.Task) error {
	if task.RequirementID == f.failFor {
		return errTransient
	}
	return f.Store.CreateTask(ctx, task)
}

func TestReconcilePartialFailure(t *testing.T) {
	mem := memory.New()
	faulty := &faultyStore{Store: mem, failFor: "r2"}
	sink := &audit.MemorySink{}

	engine := NewEngine(faulty, sink, "tester")
	engine.Now = func() time.Time { return testNow }
	engine.RetryElapsed = 10 * time.Millisecond

	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		err := mem.CreateRequirement(ctx, &types.Requirement{
			ID: id, TemplateID: "tpl", Title: "Requirement " + id, Required: true,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	result, err := engine.Reconcile(ctx, "t1", "tpl")
	if err != nil {
		t.Fatalf("partial failure should not abort the pass: %v", err)
	}
	if result.Created != 2 {
		t.Errorf("got created=%d, want 2 (r1 and r3)", result.Created)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	f := result.Failures[0]
	if f.RequirementID != "r2" || f.Op != "create" {
		t.Errorf("got failure %+v, want requirement r2 op create", f)
	}
	if !errors.Is(f, errTransient) {
		t.Errorf("failure should wrap the store error")
	}

	// The failed requirement self-corrects on the next run.
	result, err = engine.Reconcile(ctx, "t1", "tpl")
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 0 || len(result.Failures) != 1 {
		t.Errorf("second run: created=%d failures=%d, want 0/1", result.Created, len(result.Failures))
	}
	faulty.failFor = ""
	result, err = engine.Reconcile(ctx, "t1", "tpl")
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 1 || len(result.Failures) != 0 {
		t.Errorf("healed run: created=%d failures=%d, want 1/0", result.Created, len(result.Failures))
	}
}
