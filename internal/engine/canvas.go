package engine

import (
	"maps"
	"slices"

	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

// Canvas is the replay buffer of a room: every relayed segment, per
// originating connection, in emission order. It exists only so late joiners
// can rebuild remote overlays; delivery itself never depends on it.
type Canvas struct {
	limit    int
	segments map[string][]wire.Segment
}

// NewCanvas keeps at most limit segments per originator; limit <= 0 means
// unbounded.
func NewCanvas(limit int) *Canvas {
	return &Canvas{limit: limit, segments: map[string][]wire.Segment{}}
}

// Append records a segment and reports whether it was retained.
func (c *Canvas) Append(origin string, seg wire.Segment) bool {
	if c.limit > 0 && len(c.segments[origin]) >= c.limit {
		return false
	}
	c.segments[origin] = append(c.segments[origin], seg)
	return true
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (c *Canvas) Snapshot() map[string][]wire.Segment {
	out := make(map[string][]wire.Segment, len(c.segments))
	for id, segs := range c.segments {
		out[id] = slices.Clone(segs)
	}
	return out
}

func (c *Canvas) Clear() {
	clear(c.segments)
}

func (c *Canvas) Len() int {
	n := 0
	for _, segs := range c.segments {
		n += len(segs)
	}
	return n
}

func (c *Canvas) Origins() []string {
	return slices.Sorted(maps.Keys(c.segments))
}
