package quadfill

import (
	"cmp"
	"fmt"
	"slices"
)

// Validate checks the model's internal references: segment vertex
// indices, shard and frame ranges, and clip depths. The pipelines assume
// a valid model and do not check again.
func (m *Model) Validate() error {
	nv := uint32(len(m.Vertices)) //nolint:gosec // buffer lengths fit uint32
	for i, s := range m.Segments {
		if s.A >= nv || s.B >= nv || (s.Kind == Quadratic && s.C >= nv) {
			return fmt.Errorf("%w: segment %d", ErrVertexIndex, i)
		}
	}

	allSegments := Range{Hi: int32(len(m.Segments))} //nolint:gosec // see above
	for i, sh := range m.Shards {
		if sh.Segments.Hi < sh.Segments.Lo || !allSegments.Contains(sh.Segments) {
			return fmt.Errorf("%w: shard %d segments %v", ErrRangeOutOfBounds, i, sh.Segments)
		}
		if sh.ClipDepth > MaxClipDepth {
			return fmt.Errorf("%w: shard %d depth %d", ErrClipDepthOverflow, i, sh.ClipDepth)
		}
	}

	allShards := Range{Hi: int32(len(m.Shards))} //nolint:gosec // see above
	for i, fr := range m.Frames {
		if fr.Shards.Hi < fr.Shards.Lo || !allShards.Contains(fr.Shards) {
			return fmt.Errorf("%w: frame %d (%s) shards %v", ErrRangeOutOfBounds, i, fr.Name, fr.Shards)
		}
		if fr.Segments.Hi < fr.Segments.Lo || !allSegments.Contains(fr.Segments) {
			return fmt.Errorf("%w: frame %d (%s) segments %v", ErrRangeOutOfBounds, i, fr.Name, fr.Segments)
		}
		for j := fr.Shards.Lo; j < fr.Shards.Hi; j++ {
			if !fr.Segments.Contains(m.Shards[j].Segments) {
				return fmt.Errorf("%w: frame %d (%s) shard %d segments %v outside %v",
					ErrRangeOutOfBounds, i, fr.Name, j, m.Shards[j].Segments, fr.Segments)
			}
		}
	}
	return nil
}

// ValidateObjects checks that every object references an existing frame,
// that its placement lies inside out, that no two placements overlap, and
// that biased clip depths stay within 24 bits.
func ValidateObjects(m *Model, objects []Object, out *Output) error {
	shardArena := Range{Hi: int32(out.Shards())}    //nolint:gosec // buffer lengths fit int32
	segArena := Range{Hi: int32(len(out.Segments))} //nolint:gosec // see above

	type span struct {
		r   Range
		obj int
	}
	shards := make([]span, 0, len(objects))
	segs := make([]span, 0, len(objects))

	for i, obj := range objects {
		if obj.Frame < 0 || int(obj.Frame) >= len(m.Frames) {
			return fmt.Errorf("%w: object %d frame %d", ErrFrameIndex, i, obj.Frame)
		}
		p := obj.Placement(m)
		if !shardArena.Contains(p.Shards) {
			return fmt.Errorf("%w: object %d shards %v, arena holds %d",
				ErrOutputTooSmall, i, p.Shards, shardArena.Hi)
		}
		if !segArena.Contains(p.Segments) {
			return fmt.Errorf("%w: object %d segments %v, arena holds %d",
				ErrOutputTooSmall, i, p.Segments, segArena.Hi)
		}
		if uint64(obj.ClipOffset)+uint64(m.FrameClipSize(int(obj.Frame))) > MaxClipDepth+1 {
			return fmt.Errorf("%w: object %d clip offset %d", ErrClipDepthOverflow, i, obj.ClipOffset)
		}
		shards = append(shards, span{p.Shards, i})
		segs = append(segs, span{p.Segments, i})
	}

	check := func(kind string, spans []span) error {
		spans = slices.DeleteFunc(spans, func(s span) bool { return s.r.Empty() })
		slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.r.Lo, b.r.Lo) })
		for i := 1; i < len(spans); i++ {
			if spans[i-1].r.Overlaps(spans[i].r) {
				return fmt.Errorf("%w: objects %d and %d share %s indices %v and %v",
					ErrOverlappingPlacement, spans[i-1].obj, spans[i].obj, kind, spans[i-1].r, spans[i].r)
			}
		}
		return nil
	}
	if err := check("shard", shards); err != nil {
		return err
	}
	return check("segment", segs)
}

// ValidateBatch checks a direct-rasterizer batch: origin table size, quad
// origin indices, segment ranges, vertex indices and clip depths.
func ValidateBatch(b QuadBatch) error {
	if len(b.Origins) > MaxOrigins {
		return fmt.Errorf("%w: %d origins, at most %d", ErrTooManyOrigins, len(b.Origins), MaxOrigins)
	}
	origins := uint32(max(len(b.Origins), 1)) //nolint:gosec // bounded by MaxOrigins

	nv := uint32(len(b.Vertices)) //nolint:gosec // buffer lengths fit uint32
	for i, s := range b.Segments {
		if s.A >= nv || s.B >= nv || (s.Kind == Quadratic && s.C >= nv) {
			return fmt.Errorf("%w: segment %d", ErrVertexIndex, i)
		}
	}

	all := Range{Hi: int32(len(b.Segments))} //nolint:gosec // see above
	for i, q := range b.Quads {
		if q.OriginIndex >= origins {
			return fmt.Errorf("%w: quad %d origin %d", ErrOriginIndex, i, q.OriginIndex)
		}
		if q.Segments.Hi < q.Segments.Lo || !all.Contains(q.Segments) {
			return fmt.Errorf("%w: quad %d segments %v", ErrRangeOutOfBounds, i, q.Segments)
		}
		if q.ClipDepth > MaxClipDepth {
			return fmt.Errorf("%w: quad %d depth %d", ErrClipDepthOverflow, i, q.ClipDepth)
		}
	}
	return nil
}
