package optimistic

import (
	"fmt"

	"github.com/google/uuid"
)

// Compensation is what the controller does to local state when a remote call fails.
type Compensation int

const (
	// Keep leaves the optimistic state applied.
	Keep Compensation = iota
	// Revert undoes the mutation on the affected record only.
	Revert
	// Refetch replaces the collection with a fresh read from the server.
	Refetch
)

func (c Compensation) String() string {
	switch c {
	case Revert:
		return "revert"
	case Refetch:
		return "refetch"
	default:
		return "keep"
	}
}

// Policy selects failure compensation per operation.
type Policy struct {
	Create Compensation
	Update Compensation // also used by Toggle
	Delete Compensation
	// SkipPending suppresses remote update/delete for records still awaiting
	// create confirmation; the change stays local.
	SkipPending bool
	// ReconcileUpdate overwrites the local record with the server echo after
	// a successful update.
	ReconcileUpdate bool
}

// Unified reverts every failed mutation and never sends changes for pending records.
var Unified = Policy{
	Create:      Revert,
	Update:      Revert,
	Delete:      Revert,
	SkipPending: true,
}

// Op names a controller operation.
type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpToggle Op = "toggle"
	OpDelete Op = "delete"
)

// Failure reports a remote operation that failed and what was done about it.
type Failure struct {
	OperationID  uuid.UUID
	Resource     string
	Op           Op
	RecordID     int64
	Compensation Compensation
	Err          error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s %s %d failed (%s): %v", f.Resource, f.Op, f.RecordID, f.Compensation, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
