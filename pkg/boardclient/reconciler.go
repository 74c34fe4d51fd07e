package boardclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EditState is the per-task edit lifecycle.
type EditState int

const (
	// Viewing: no local edit in flight.
	Viewing EditState = iota
	// Editing: one field has an optimistic local value awaiting the
	// server's verdict.
	Editing
	// Conflicting: the server rejected the edit; both versions are held
	// until the user picks a resolution.
	Conflicting
)

// Updater is the slice of the transport the reconciler drives. *Client
// satisfies it; tests use a fake.
type Updater interface {
	UpdateTask(ctx context.Context, roomID, taskID string, req UpdateRequest) (UpdateResult, error)
}

// edit tracks one in-flight field edit on one task.
type edit struct {
	state    EditState
	field    string
	before   any           // pre-edit value, restored on revert
	request  UpdateRequest // original changes, resubmitted on Overwrite
	conflict *ConflictError
}

// Board is the local replica of one room's state.
type Board struct {
	Room    Room
	Members []UserRef
	Tasks   map[string]Task
	Logs    []LogEntry

	logLimit int
}

// Reconciler keeps a Board consistent under optimistic local edits, server
// conflicts, and broadcast events from other users. One field per task may
// be edited at a time.
type Reconciler struct {
	mu        sync.Mutex
	transport Updater
	board     *Board
	edits     map[string]*edit // task id -> in-flight edit
}

// NewReconciler builds a Reconciler over the freshly opened board state.
// logLimit bounds the local activity window; <=0 keeps the server's.
func NewReconciler(transport Updater, state BoardState, logLimit int) *Reconciler {
	tasks := make(map[string]Task, len(state.Tasks))
	for _, t := range state.Tasks {
		tasks[t.ID] = t
	}
	if logLimit <= 0 {
		logLimit = len(state.Logs)
		if logLimit == 0 {
			logLimit = 20
		}
	}
	return &Reconciler{
		transport: transport,
		board: &Board{
			Room:     state.Room,
			Members:  state.Members,
			Tasks:    tasks,
			Logs:     state.Logs,
			logLimit: logLimit,
		},
		edits: make(map[string]*edit),
	}
}

// Task returns a copy of the local task and whether it exists.
func (r *Reconciler) Task(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.board.Tasks[id]
	return t, ok
}

// Logs returns a copy of the local activity window, newest first.
func (r *Reconciler) Logs() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.board.Logs...)
}

// State reports the edit state for a task.
func (r *Reconciler) State(taskID string) EditState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.edits[taskID]; ok {
		return e.state
	}
	return Viewing
}

// Conflict returns the held conflict payload for a task in Conflicting.
func (r *Reconciler) Conflict(taskID string) (*ConflictError, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.edits[taskID]; ok && e.state == Conflicting {
		return e.conflict, true
	}
	return nil, false
}

// StartEdit begins editing one field of a task, snapshotting the current
// value so a failed submit can revert. Only one field per task at a time.
func (r *Reconciler) StartEdit(taskID, field string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.board.Tasks[taskID]
	if !ok {
		return fmt.Errorf("unknown task %s", taskID)
	}
	if e, busy := r.edits[taskID]; busy && e.state != Viewing {
		return fmt.Errorf("task %s already has an edit in flight on %s", taskID, e.field)
	}
	before, err := fieldValue(t, field)
	if err != nil {
		return err
	}
	r.edits[taskID] = &edit{state: Editing, field: field, before: before}
	return nil
}

// Submit applies value optimistically to the edited field and issues the
// conditional update.
//
// Success replaces the optimistic value with the server's confirmed diff
// and returns to Viewing. A version conflict reverts to the pre-edit value
// and enters Conflicting with the server's payload held for resolution.
// Any other error reverts to Viewing and is returned.
func (r *Reconciler) Submit(ctx context.Context, taskID string, value any) (UpdateResult, error) {
	r.mu.Lock()
	e, ok := r.edits[taskID]
	if !ok || e.state != Editing {
		r.mu.Unlock()
		return UpdateResult{}, fmt.Errorf("task %s has no active edit", taskID)
	}
	t, ok := r.board.Tasks[taskID]
	if !ok {
		delete(r.edits, taskID)
		r.mu.Unlock()
		return UpdateResult{}, fmt.Errorf("task %s no longer exists", taskID)
	}

	// Optimistic apply: the UI shows the new value immediately.
	updated, err := withFieldValue(t, e.field, value)
	if err != nil {
		r.mu.Unlock()
		return UpdateResult{}, err
	}
	r.board.Tasks[taskID] = updated

	version := t.Version
	req, err := fieldRequest(e.field, value, &version)
	if err != nil {
		r.board.Tasks[taskID] = t
		r.mu.Unlock()
		return UpdateResult{}, err
	}
	e.request = req
	roomID := r.board.Room.ID
	r.mu.Unlock()

	res, err := r.transport.UpdateTask(ctx, roomID, taskID, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settle(taskID, e, res, err)
}

// settle finishes a submit or an overwrite under the lock.
func (r *Reconciler) settle(taskID string, e *edit, res UpdateResult, err error) (UpdateResult, error) {
	if err == nil {
		if t, ok := r.board.Tasks[taskID]; ok {
			r.board.Tasks[taskID] = applyChanges(t, res.Changes)
		}
		r.appendLog(res.Log)
		delete(r.edits, taskID)
		return res, nil
	}

	// Revert the optimistic value either way.
	if t, ok := r.board.Tasks[taskID]; ok {
		if reverted, rerr := withFieldValue(t, e.field, e.before); rerr == nil {
			r.board.Tasks[taskID] = reverted
		}
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		e.state = Conflicting
		e.conflict = conflict
		return UpdateResult{}, err
	}
	delete(r.edits, taskID)
	return UpdateResult{}, err
}

// Overwrite resolves a conflict by resubmitting the original changes with
// force set, claiming the server's current version.
func (r *Reconciler) Overwrite(ctx context.Context, taskID string) (UpdateResult, error) {
	r.mu.Lock()
	e, ok := r.edits[taskID]
	if !ok || e.state != Conflicting {
		r.mu.Unlock()
		return UpdateResult{}, fmt.Errorf("task %s has no conflict to overwrite", taskID)
	}
	req := e.request
	req.Force = true
	req.Version = nil
	roomID := r.board.Room.ID
	r.mu.Unlock()

	res, err := r.transport.UpdateTask(ctx, roomID, taskID, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settle(taskID, e, res, err)
}

// UseServer resolves a conflict by adopting the server's task as-is. No
// network call: the authoritative copy arrived with the conflict.
func (r *Reconciler) UseServer(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.edits[taskID]
	if !ok || e.state != Conflicting {
		return fmt.Errorf("task %s has no conflict to resolve", taskID)
	}
	r.board.Tasks[taskID] = e.conflict.ServerTask
	delete(r.edits, taskID)
	return nil
}

// Cancel abandons the current edit or conflict, keeping the last
// server-known value (the optimistic value was already reverted on
// failure paths; an active edit reverts here).
func (r *Reconciler) Cancel(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.edits[taskID]
	if !ok {
		return
	}
	if e.state == Editing {
		if t, exists := r.board.Tasks[taskID]; exists {
			if reverted, err := withFieldValue(t, e.field, e.before); err == nil {
				r.board.Tasks[taskID] = reverted
			}
		}
	}
	delete(r.edits, taskID)
}

// ApplyEvent merges a broadcast into the local board. Remote changes need
// no conflict check (this client sent no competing version), with one
// guard: a field currently being edited keeps its local edit buffer.
func (r *Reconciler) ApplyEvent(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case EventTaskCreated:
		var res CreateResult
		if err := ev.Decode(&res); err != nil {
			return err
		}
		r.board.Tasks[res.Task.ID] = res.Task
		r.appendLog(res.Log)

	case EventTaskUpdated:
		var res UpdateResult
		if err := ev.Decode(&res); err != nil {
			return err
		}
		t, ok := r.board.Tasks[res.ID]
		if !ok {
			return nil // deleted locally already
		}
		changes := res.Changes
		if e, editing := r.edits[res.ID]; editing && e.state == Editing {
			// Preserve the field under edit; everything else merges.
			changes = make(map[string]any, len(res.Changes))
			for k, v := range res.Changes {
				if k != e.field {
					changes[k] = v
				}
			}
		}
		r.board.Tasks[res.ID] = applyChanges(t, changes)
		r.appendLog(res.Log)

	case EventTaskDeleted:
		var res DeleteResult
		if err := ev.Decode(&res); err != nil {
			return err
		}
		delete(r.board.Tasks, res.ID)
		delete(r.edits, res.ID)
		r.appendLog(res.Log)
	}
	return nil
}

// appendLog prepends an entry to the local window, trimming to the limit.
func (r *Reconciler) appendLog(entry LogEntry) {
	if entry.ID == "" {
		return
	}
	r.board.Logs = append([]LogEntry{entry}, r.board.Logs...)
	if len(r.board.Logs) > r.board.logLimit {
		r.board.Logs = r.board.Logs[:r.board.logLimit]
	}
}
