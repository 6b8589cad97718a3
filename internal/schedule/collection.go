package schedule

import (
	"fmt"
	"time"
)

// Collection is the ordered sequence of entries. Order is insertion order
// and is never re-sorted.
type Collection []Entry

// Indexed pairs an entry with its positional id at query time.
type Indexed struct {
	ID    int   `json:"id" yaml:"id"`
	Entry Entry `json:"entry" yaml:"entry"`
}

func (c Collection) Len() int { return len(c) }

// Get returns the entry at id.
func (c Collection) Get(id int) (Entry, error) {
	if id < 0 || id >= len(c) {
		return Entry{}, outOfRange(id, len(c))
	}
	return c[id], nil
}

// Add appends e and returns its id.
func (c *Collection) Add(e Entry) int {
	*c = append(*c, e)
	return len(*c) - 1
}

// Append adds a batch in order and returns the id of the first new entry.
func (c *Collection) Append(batch ...Entry) int {
	first := len(*c)
	*c = append(*c, batch...)
	return first
}

// Edit applies p to the entry at id and returns the updated entry.
// The collection is untouched when id is invalid or p is empty.
func (c *Collection) Edit(id int, p Patch) (Entry, error) {
	cur, err := c.Get(id)
	if err != nil {
		return Entry{}, err
	}
	if p.Empty() {
		return Entry{}, NewError(InvalidArgument, "fields", "", fmt.Errorf("nothing to update"))
	}
	updated := p.Apply(cur)
	(*c)[id] = updated
	return updated, nil
}

// Delete removes the entry at id; later entries shift down by one.
func (c *Collection) Delete(id int) (Entry, error) {
	removed, err := c.Get(id)
	if err != nil {
		return Entry{}, err
	}
	cur := *c
	out := make(Collection, 0, len(cur)-1)
	out = append(out, cur[:id]...)
	out = append(out, cur[id+1:]...)
	*c = out
	return removed, nil
}

// Extend pushes the end of the entry at id later by d and marks it 延期.
func (c *Collection) Extend(id int, d time.Duration) (Entry, error) {
	cur, err := c.Get(id)
	if err != nil {
		return Entry{}, err
	}
	if d <= 0 {
		return Entry{}, NewError(InvalidDuration, "by", d.String(), fmt.Errorf("must be > 0"))
	}
	cur.End = cur.End.Add(d)
	cur.Status = StatusPostponed
	(*c)[id] = cur
	return cur, nil
}

// Clone returns an independent copy.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	return append(Collection(nil), c...)
}
