package optimistic

// Record is implemented by the resource types a Collection can hold.
type Record[R any] interface {
	RecordID() int64
	WithID(id int64) R
	Validate() error
}

// State tags an entry as confirmed by the server or pending confirmation.
type State int

const (
	Confirmed State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "confirmed"
}

// Entry is one record plus its confirmation state. While pending, the record's
// id is a temporary id assigned locally.
type Entry[R Record[R]] struct {
	Value R
	State State
}

// ID returns the entry's current id.
func (e Entry[R]) ID() int64 { return e.Value.RecordID() }

// Collection is an ordered list of entries keyed by id. Newest optimistic
// insertions come first. It is not safe for concurrent use; Controller
// serializes access.
type Collection[R Record[R]] struct {
	entries []Entry[R]
	// aliases maps confirmed temporary ids to their server ids.
	aliases map[int64]int64
}

// NewCollection returns an empty collection.
func NewCollection[R Record[R]]() *Collection[R] {
	return &Collection[R]{aliases: make(map[int64]int64)}
}

// Len returns the number of entries.
func (c *Collection[R]) Len() int { return len(c.entries) }

// Replace discards all entries and aliases and installs recs as confirmed.
func (c *Collection[R]) Replace(recs []R) {
	entries := make([]Entry[R], len(recs))
	for i, r := range recs {
		entries[i] = Entry[R]{Value: r, State: Confirmed}
	}
	c.entries = entries
	c.aliases = make(map[int64]int64)
}

// Prepend inserts a pending entry at the front.
func (c *Collection[R]) Prepend(r R) {
	c.entries = append([]Entry[R]{{Value: r, State: Pending}}, c.entries...)
}

// Resolve follows temporary-id aliases to the id currently in use.
func (c *Collection[R]) Resolve(id int64) int64 {
	if to, ok := c.aliases[id]; ok {
		return to
	}
	return id
}

// Index returns the position of id or -1.
func (c *Collection[R]) Index(id int64) int {
	id = c.Resolve(id)
	for i, e := range c.entries {
		if e.ID() == id {
			return i
		}
	}
	return -1
}

// Get returns the entry for id.
func (c *Collection[R]) Get(id int64) (Entry[R], bool) {
	i := c.Index(id)
	if i < 0 {
		return Entry[R]{}, false
	}
	return c.entries[i], true
}

// Has reports whether any entry or alias uses id.
func (c *Collection[R]) Has(id int64) bool {
	if _, ok := c.aliases[id]; ok {
		return true
	}
	return c.Index(id) >= 0
}

// Apply overwrites the record for id, keeping its state and its current id,
// and returns the previous value. A value captured while the entry was still
// pending does not bring back the temporary id.
func (c *Collection[R]) Apply(id int64, r R) (R, bool) {
	i := c.Index(id)
	if i < 0 {
		var zero R
		return zero, false
	}
	prev := c.entries[i].Value
	c.entries[i].Value = r.WithID(prev.RecordID())
	return prev, true
}

// Confirm marks the pending entry tempID as confirmed under serverID.
func (c *Collection[R]) Confirm(tempID, serverID int64) bool {
	i := c.Index(tempID)
	if i < 0 {
		return false
	}
	c.entries[i].Value = c.entries[i].Value.WithID(serverID)
	c.entries[i].State = Confirmed
	if tempID != serverID {
		c.aliases[tempID] = serverID
	}
	return true
}

// Remove deletes the entry for id and returns it with its former position.
func (c *Collection[R]) Remove(id int64) (Entry[R], int, bool) {
	i := c.Index(id)
	if i < 0 {
		return Entry[R]{}, -1, false
	}
	e := c.entries[i]
	c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
	return e, i, true
}

// Insert puts e back at position i, clamped to the current length.
func (c *Collection[R]) Insert(i int, e Entry[R]) {
	if i < 0 {
		i = 0
	}
	if i > len(c.entries) {
		i = len(c.entries)
	}
	entries := make([]Entry[R], 0, len(c.entries)+1)
	entries = append(entries, c.entries[:i]...)
	entries = append(entries, e)
	entries = append(entries, c.entries[i:]...)
	c.entries = entries
}

// Snapshot returns a copy of the entries.
func (c *Collection[R]) Snapshot() []Entry[R] {
	out := make([]Entry[R], len(c.entries))
	copy(out, c.entries)
	return out
}

// Records returns a copy of the record values in order.
func (c *Collection[R]) Records() []R {
	out := make([]R, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Value
	}
	return out
}
