package optimistic

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errBoom = errors.New("boom")

// item is a minimal record used by the controller tests.
type item struct {
	ID   int64
	Name string
	Done bool
}

func (i item) RecordID() int64 { return i.ID }

func (i item) WithID(id int64) item {
	i.ID = id
	return i
}

func (i item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("name required")
	}
	return nil
}

// fakeRemote records calls and lets each test script the responses.
type fakeRemote struct {
	mu sync.Mutex

	list    []item
	listErr error
	nextID  int64

	createErr error
	updateErr error
	deleteErr error
	// echo overrides the value returned from Update.
	echo func(item) item

	// gate, when set, blocks create until closed.
	gate chan struct{}
	// updateGate, when set, blocks update until closed.
	updateGate chan struct{}

	calls map[string]int
}

func newFakeRemote(list ...item) *fakeRemote {
	return &fakeRemote{list: list, nextID: 100, calls: make(map[string]int)}
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) List(ctx context.Context) ([]item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]item, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeRemote) Create(ctx context.Context, fields item) (item, error) {
	f.mu.Lock()
	gate := f.gate
	f.calls["create"]++
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return item{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return item{}, f.createErr
	}
	created := fields.WithID(f.nextID)
	f.nextID++
	f.list = append([]item{created}, f.list...)
	return created, nil
}

func (f *fakeRemote) Update(ctx context.Context, id int64, rec item) (item, error) {
	f.mu.Lock()
	gate := f.updateGate
	f.calls["update"]++
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return item{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return item{}, f.updateErr
	}
	if f.echo != nil {
		return f.echo(rec), nil
	}
	return rec, nil
}

func (f *fakeRemote) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, it := range f.list {
		if it.ID == id {
			f.list = append(f.list[:i:i], f.list[i+1:]...)
			break
		}
	}
	return nil
}

func rename(name string) Editor[item] {
	return EditorFunc[item](func(ctx context.Context, cur item) (item, bool, error) {
		if name == "" {
			return item{}, false, nil
		}
		cur.Name = name
		return cur, true, nil
	})
}
