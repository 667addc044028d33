package quadfill

import "fmt"

// ModelBatch builds a direct-rasterizer batch that draws objects straight
// from the model's shared buffers. Each object becomes one origin whose
// tex space is the object's model space, so at most MaxOrigins objects
// fit in one batch. Quads keep the model's segment indices; clip depths
// are biased by the object's ClipOffset.
func ModelBatch(m *Model, objects []Object) (QuadBatch, error) {
	if len(objects) > MaxOrigins {
		return QuadBatch{}, fmt.Errorf("%w: %d objects, at most %d", ErrTooManyOrigins, len(objects), MaxOrigins)
	}

	b := QuadBatch{
		Vertices: m.Vertices,
		Segments: m.Segments,
	}
	for oi, obj := range objects {
		o, err := NewOrigin(obj.WorldFromObject)
		if err != nil {
			return QuadBatch{}, fmt.Errorf("object %d: %w", oi, err)
		}
		b.Origins = append(b.Origins, o)

		fr := m.Frames[obj.Frame]
		for i := fr.Shards.Lo; i < fr.Shards.Hi; i++ {
			sh := m.Shards[i]
			b.Quads = append(b.Quads, Quad{
				BB:          sh.BB,
				Color:       sh.Color,
				Segments:    sh.Segments,
				ClipDepth:   sh.ClipDepth + obj.ClipOffset,
				OriginIndex: uint32(oi), //nolint:gosec // bounded by MaxOrigins
			})
		}
	}
	return b, nil
}
