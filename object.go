package quadfill

// Object is one instance of a frame. Its expanded shards land at
// [ShardOffset, ShardOffset+len(frame.Shards)) of the shard arena (six
// vertices each) and its segments at [SegmentOffset,
// SegmentOffset+len(frame.Segments)) of the segment arena. Clip depths
// of its shards are raised by ClipOffset.
type Object struct {
	Frame           int32
	WorldFromObject Mat4

	ClipOffset    uint32
	ShardOffset   int32
	SegmentOffset int32
}

// Placement is the slice of both output arenas one object owns.
type Placement struct {
	Shards     Range
	Segments   Range
	ClipOffset uint32
}

// Placement returns the arena slices o writes, given its frame.
func (o Object) Placement(m *Model) Placement {
	fr := m.Frames[o.Frame]
	return Placement{
		Shards:     Range{Lo: o.ShardOffset, Hi: o.ShardOffset + fr.Shards.Len()},
		Segments:   Range{Lo: o.SegmentOffset, Hi: o.SegmentOffset + fr.Segments.Len()},
		ClipOffset: o.ClipOffset,
	}
}

// Arena hands out non-overlapping placements in the shard and segment
// output arenas, and stacks clip depths so that later objects draw above
// earlier ones. The zero value is an empty arena.
type Arena struct {
	shards   int32
	segments int32
	clip     uint32
}

// Place reserves room for one instance of frame f.
func (a *Arena) Place(m *Model, f int) Placement {
	fr := m.Frames[f]
	p := Placement{
		Shards:     Range{Lo: a.shards, Hi: a.shards + fr.Shards.Len()},
		Segments:   Range{Lo: a.segments, Hi: a.segments + fr.Segments.Len()},
		ClipOffset: a.clip,
	}
	a.shards = p.Shards.Hi
	a.segments = p.Segments.Hi
	a.clip += m.FrameClipSize(f)
	return p
}

// Object places an instance of frame f and returns it with the given
// transform.
func (a *Arena) Object(m *Model, f int, worldFromObject Mat4) Object {
	p := a.Place(m, f)
	return Object{
		Frame:           int32(f), //nolint:gosec // frame counts fit int32
		WorldFromObject: worldFromObject,
		ClipOffset:      p.ClipOffset,
		ShardOffset:     p.Shards.Lo,
		SegmentOffset:   p.Segments.Lo,
	}
}

// Shards returns the number of shards reserved so far.
func (a *Arena) Shards() int32 { return a.shards }

// Segments returns the number of segments reserved so far.
func (a *Arena) Segments() int32 { return a.segments }

// ClipDepths returns the number of clip-depth slots reserved so far.
func (a *Arena) ClipDepths() uint32 { return a.clip }

// Reset empties the arena.
func (a *Arena) Reset() { *a = Arena{} }
