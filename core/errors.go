package core

import "github.com/pkg/errors"

var (
	// ErrBuilderConsumed is returned when a block builder is used after a
	// consuming call.
	ErrBuilderConsumed = errors.New("block builder already consumed")

	// ErrIndexOutOfRange is returned when an intermediate-state query names
	// an extrinsic index outside the pending list.
	ErrIndexOutOfRange = errors.New("extrinsic index out of range")

	// ErrUnknownParent is returned when a block references a parent the
	// chain does not know.
	ErrUnknownParent = errors.New("unknown parent block")
)
