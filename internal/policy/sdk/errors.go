package sdk

import "errors"

// Sentinel errors a Policy implementation or the registry may return,
// mirroring the shape of internal/engine/sdk's ErrEngineNotFound family.
var (
	ErrPolicyNotFound      = errors.New("policy: not found")
	ErrPolicyAlreadyExists = errors.New("policy: already registered")
	ErrPolicyNotInitialized = errors.New("policy: not initialized")
	ErrInvalidWeights      = errors.New("policy: invalid weights returned")
)
