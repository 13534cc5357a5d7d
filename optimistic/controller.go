// Package optimistic keeps a local list of remote records responsive by
// applying every mutation immediately and reconciling it with the server
// afterwards.
package optimistic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Remote is the server side of one resource.
type Remote[R any] interface {
	List(ctx context.Context) ([]R, error)
	Create(ctx context.Context, fields R) (R, error)
	Update(ctx context.Context, id int64, rec R) (R, error)
	Delete(ctx context.Context, id int64) error
}

// Editor produces replacement fields for a record. ok is false when the user
// cancels.
type Editor[R any] interface {
	Edit(ctx context.Context, current R) (edited R, ok bool, err error)
}

// EditorFunc adapts a function to Editor.
type EditorFunc[R any] func(ctx context.Context, current R) (R, bool, error)

func (f EditorFunc[R]) Edit(ctx context.Context, current R) (R, bool, error) {
	return f(ctx, current)
}

// Controller owns the collection of one resource and mediates all mutations.
type Controller[R Record[R]] struct {
	name   string
	remote Remote[R]
	policy Policy
	logger *slog.Logger
	now    func() time.Time

	onFailure func(*Failure)
	onChange  func()
	reconcile func(local, echo R) R

	mu          sync.Mutex
	coll        *Collection[R]
	initialized bool
	lastTempID  int64
}

// Option configures a Controller.
type Option[R Record[R]] func(*Controller[R])

// WithPolicy sets the failure compensation policy.
func WithPolicy[R Record[R]](p Policy) Option[R] {
	return func(c *Controller[R]) { c.policy = p }
}

// WithLogger sets the logger.
func WithLogger[R Record[R]](l *slog.Logger) Option[R] {
	return func(c *Controller[R]) { c.logger = l }
}

// WithClock sets the time source used for temporary ids.
func WithClock[R Record[R]](now func() time.Time) Option[R] {
	return func(c *Controller[R]) { c.now = now }
}

// WithFailureHandler registers fn to receive every remote failure.
func WithFailureHandler[R Record[R]](fn func(*Failure)) Option[R] {
	return func(c *Controller[R]) { c.onFailure = fn }
}

// WithChangeHandler registers fn to run after every change to the collection.
// fn runs without the controller lock held.
func WithChangeHandler[R Record[R]](fn func()) Option[R] {
	return func(c *Controller[R]) { c.onChange = fn }
}

// WithUpdateReconciler sets how a server echo is merged into the local record
// after a successful update when the policy asks for it. The default takes the
// echo wholesale, keeping the local id.
func WithUpdateReconciler[R Record[R]](fn func(local, echo R) R) Option[R] {
	return func(c *Controller[R]) { c.reconcile = fn }
}

// NewController creates a controller for the resource called name.
func NewController[R Record[R]](name string, remote Remote[R], opts ...Option[R]) *Controller[R] {
	c := &Controller[R]{
		name:   name,
		remote: remote,
		logger: slog.Default(),
		now:    time.Now,
		coll:   NewCollection[R](),
		reconcile: func(local, echo R) R {
			return echo.WithID(local.RecordID())
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("resource", name)
	return c
}

// Name returns the resource name.
func (c *Controller[R]) Name() string { return c.name }

// Policy returns the active compensation policy.
func (c *Controller[R]) Policy() Policy { return c.policy }

// Initialize loads the collection on first call. Later calls do nothing.
// On failure the collection stays empty and the failure is returned.
func (c *Controller[R]) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh replaces the collection with the server's current list.
func (c *Controller[R]) Refresh(ctx context.Context) error {
	recs, err := c.remote.List(ctx)
	if err != nil {
		return c.fail(ctx, OpFetch, 0, Keep, err)
	}
	c.mu.Lock()
	c.coll.Replace(recs)
	c.mu.Unlock()
	c.logger.DebugContext(ctx, "collection loaded", "count", len(recs))
	c.changed()
	return nil
}

// Snapshot returns a copy of the current entries.
func (c *Controller[R]) Snapshot() []Entry[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.Snapshot()
}

// Records returns a copy of the current records.
func (c *Controller[R]) Records() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.Records()
}

// Get looks up id, following temporary ids that have since been confirmed.
func (c *Controller[R]) Get(id int64) (Entry[R], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coll.Get(id)
}

// Create prepends fields under a temporary id, then asks the server to create
// the record. On success the temporary id is replaced by the server's id.
func (c *Controller[R]) Create(ctx context.Context, fields R) (Entry[R], error) {
	if err := fields.Validate(); err != nil {
		return Entry[R]{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c.mu.Lock()
	tempID := c.nextTempID()
	pending := fields.WithID(tempID)
	c.coll.Prepend(pending)
	c.mu.Unlock()
	c.changed()

	created, err := c.remote.Create(ctx, fields)
	if err != nil {
		comp := c.policy.Create
		switch comp {
		case Revert:
			c.mu.Lock()
			c.coll.Remove(tempID)
			c.mu.Unlock()
			c.changed()
		case Refetch:
			c.refetch(ctx)
		}
		return Entry[R]{Value: pending, State: Pending}, c.fail(ctx, OpCreate, tempID, comp, err)
	}

	serverID := created.RecordID()
	c.mu.Lock()
	ok := c.coll.Confirm(tempID, serverID)
	c.mu.Unlock()
	if !ok {
		c.logger.WarnContext(ctx, "created record no longer present locally", "temp_id", tempID, "id", serverID)
		return Entry[R]{Value: fields.WithID(serverID), State: Confirmed}, nil
	}
	c.logger.DebugContext(ctx, "create confirmed", "temp_id", tempID, "id", serverID)
	c.changed()
	return Entry[R]{Value: pending.WithID(serverID), State: Confirmed}, nil
}

// Update asks ed for new fields of id, applies them at once and sends them to
// the server.
func (c *Controller[R]) Update(ctx context.Context, id int64, ed Editor[R]) error {
	current, ok := c.Get(id)
	if !ok {
		return ErrNotFound
	}
	edited, ok, err := ed.Edit(ctx, current.Value)
	if err != nil {
		return fmt.Errorf("edit %s %d: %w", c.name, id, err)
	}
	if !ok || edited.Validate() != nil {
		return ErrEditCanceled
	}

	var reconcile func(local, echo R) R
	if c.policy.ReconcileUpdate {
		reconcile = c.reconcile
	}
	return c.Mutate(ctx, OpUpdate, id,
		func(R) R { return edited },
		c.remote.Update,
		reconcile,
	)
}

// Mutate is the general optimistic update: change is applied to the record at
// once, send delivers the new record to the server, and reconcile (if non-nil)
// merges the server echo back in. Failures are compensated with the policy's
// Update setting.
func (c *Controller[R]) Mutate(
	ctx context.Context,
	op Op,
	id int64,
	change func(R) R,
	send func(ctx context.Context, id int64, rec R) (R, error),
	reconcile func(local, echo R) R,
) error {
	c.mu.Lock()
	entry, ok := c.coll.Get(id)
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	prev := entry.Value
	curID := entry.ID()
	next := change(prev).WithID(curID)
	c.coll.Apply(curID, next)
	c.mu.Unlock()
	c.changed()

	if entry.State == Pending && c.policy.SkipPending {
		c.logger.DebugContext(ctx, "record pending confirmation, change kept local", "op", op, "id", curID)
		return nil
	}

	echo, err := send(ctx, curID, next)
	if err != nil {
		comp := c.policy.Update
		switch comp {
		case Revert:
			c.mu.Lock()
			c.coll.Apply(curID, prev)
			c.mu.Unlock()
			c.changed()
		case Refetch:
			c.refetch(ctx)
		}
		return c.fail(ctx, op, curID, comp, err)
	}

	if reconcile != nil {
		c.mu.Lock()
		cur, ok := c.coll.Get(curID)
		if ok {
			c.coll.Apply(curID, reconcile(cur.Value, echo).WithID(cur.ID()))
		}
		c.mu.Unlock()
		if ok {
			c.changed()
		}
	}
	return nil
}

// Delete removes id locally and then on the server. Deleting an id that is
// not present is a no-op.
func (c *Controller[R]) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	entry, idx, ok := c.coll.Remove(id)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	c.changed()

	if entry.State == Pending && c.policy.SkipPending {
		c.logger.DebugContext(ctx, "record pending confirmation, delete kept local", "id", entry.ID())
		return nil
	}

	if err := c.remote.Delete(ctx, entry.ID()); err != nil {
		comp := c.policy.Delete
		switch comp {
		case Revert:
			c.mu.Lock()
			if !c.coll.Has(entry.ID()) {
				c.coll.Insert(idx, entry)
			}
			c.mu.Unlock()
			c.changed()
		case Refetch:
			c.refetch(ctx)
		}
		return c.fail(ctx, OpDelete, entry.ID(), comp, err)
	}
	return nil
}

// refetch is the compensating re-read; its own failure is reported separately.
func (c *Controller[R]) refetch(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.WarnContext(ctx, "compensating refetch failed", "error", err)
	}
}

// nextTempID returns a millisecond timestamp not used by any id seen so far.
// Caller holds c.mu.
func (c *Controller[R]) nextTempID() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastTempID {
		id = c.lastTempID + 1
	}
	for c.coll.Has(id) {
		id++
	}
	c.lastTempID = id
	return id
}

func (c *Controller[R]) fail(ctx context.Context, op Op, id int64, comp Compensation, err error) error {
	f := &Failure{
		OperationID:  uuid.New(),
		Resource:     c.name,
		Op:           op,
		RecordID:     id,
		Compensation: comp,
		Err:          err,
	}
	c.logger.ErrorContext(ctx, "remote operation failed",
		"op", op,
		"id", id,
		"compensation", comp.String(),
		"operation_id", f.OperationID.String(),
		"error", err,
	)
	if c.onFailure != nil {
		c.onFailure(f)
	}
	return f
}

func (c *Controller[R]) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
