package output

import (
	"errors"
	"fmt"
)

// ErrNonMonotonic is returned when a snapshot does not advance in time
var ErrNonMonotonic = errors.New("snapshot time does not advance")

// Snapshot is one accepted solution state
type Snapshot struct {
	Step         int
	Time         float64
	X            []float64
	Iterations   int
	ResidualNorm float64
}

// Writer receives snapshots in strictly increasing time order, nothing written is ever changed
type Writer interface {
	Append(s Snapshot) error
}

// clock enforces strictly increasing snapshot times
type clock struct {
	started bool
	last    float64
}

func (c *clock) advance(t float64) error {
	if c.started && !(t > c.last) {
		return fmt.Errorf("%w: t = %g after t = %g", ErrNonMonotonic, t, c.last)
	}
	c.started, c.last = true, t
	return nil
}

// Trajectory keeps every snapshot in memory
type Trajectory struct {
	Snapshots []Snapshot
	clock
}

func (tr *Trajectory) Append(s Snapshot) error {
	if err := tr.advance(s.Time); err != nil {
		return err
	}
	s.X = append([]float64(nil), s.X...)
	tr.Snapshots = append(tr.Snapshots, s)
	return nil
}

func (tr *Trajectory) Len() int { return len(tr.Snapshots) }

func (tr *Trajectory) Last() (s Snapshot, ok bool) {
	if len(tr.Snapshots) == 0 {
		return
	}
	return tr.Snapshots[len(tr.Snapshots)-1], true
}

func (tr *Trajectory) Times() (times []float64) {
	times = make([]float64, len(tr.Snapshots))
	for i, s := range tr.Snapshots {
		times[i] = s.Time
	}
	return
}

type tee []Writer

// Tee appends every snapshot to all writers in order, stopping at the first failure
func Tee(writers ...Writer) Writer {
	var t tee
	for _, w := range writers {
		if w != nil {
			t = append(t, w)
		}
	}
	return t
}

func (t tee) Append(s Snapshot) error {
	for _, w := range t {
		if err := w.Append(s); err != nil {
			return err
		}
	}
	return nil
}
