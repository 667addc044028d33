package quadfill

import "errors"

// Producer validation errors. The pipelines never return these; they are
// reported by Model.Validate, ValidateObjects and ValidateBatch so that
// callers can check buffers before handing them over.
var (
	ErrRangeOutOfBounds     = errors.New("quadfill: range out of bounds")
	ErrVertexIndex          = errors.New("quadfill: vertex index out of bounds")
	ErrClipDepthOverflow    = errors.New("quadfill: clip depth exceeds 24 bits")
	ErrOverlappingPlacement = errors.New("quadfill: overlapping object placement")
	ErrFrameIndex           = errors.New("quadfill: frame index out of bounds")
	ErrOriginIndex          = errors.New("quadfill: origin index out of bounds")
	ErrTooManyOrigins       = errors.New("quadfill: too many origins")
	ErrSingularTransform    = errors.New("quadfill: singular transform")
	ErrEmptyViewport        = errors.New("quadfill: empty viewport")
	ErrOutputTooSmall       = errors.New("quadfill: output arena too small")
)
