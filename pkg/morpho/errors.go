package morpho

import "errors"

var (
	// ErrEmptyBranch is returned by morphometric queries on a branch with
	// zero points.
	ErrEmptyBranch = errors.New("empty branch")

	// ErrInvalidDetach is returned by [Branch.DetachChild] when the argument
	// is not currently a child of the receiver. The operation is rejected
	// without partial mutation.
	ErrInvalidDetach = errors.New("invalid detach: branch is not a child")

	// ErrLengthMismatch is returned when per-point arrays (radii, tags,
	// labels, properties) do not match the branch's point count.
	ErrLengthMismatch = errors.New("per-point array length mismatch")

	// ErrIndexOutOfBounds is returned by [NewSet] when an index references a
	// loader outside [0, len(loaders)).
	ErrIndexOutOfBounds = errors.New("morphology index out of bounds")
)
