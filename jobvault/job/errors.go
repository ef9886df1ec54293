package job

import "errors"

var (
	// ErrInvalidStorePolicy is returned by Run for an unrecognized policy.
	ErrInvalidStorePolicy = errors.New("jobvault: invalid store policy")
	// ErrMetadataNotFound is returned by Get for an absent metadata key.
	ErrMetadataNotFound = errors.New("jobvault: no such metadata key")
)
