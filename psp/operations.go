package psp

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/logger"
)

// ProviderOperationRequest carries the parameters of a provider-specific
// operation.
type ProviderOperationRequest struct {
	OperationName string            `json:"operation_name" validate:"required"`
	Parameters    map[string]any    `json:"parameters,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ProviderOperationResponse is the result of a provider-specific operation.
type ProviderOperationResponse struct {
	OperationName string            `json:"operation_name"`
	Success       bool              `json:"success"`
	Result        map[string]any    `json:"result,omitempty"`
	Message       string            `json:"message,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// OperationMetadata documents a provider-specific operation.
type OperationMetadata struct {
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Example     map[string]any    `json:"example,omitempty"`
}

// OperationHandler executes one provider-specific operation.
type OperationHandler func(ctx context.Context, req ProviderOperationRequest) (map[string]any, error)

type registeredOperation struct {
	handler OperationHandler
	meta    OperationMetadata
}

// OperationRegistry is a ProviderSpecificPort backed by registered handlers.
// Adapters create one, register their operations at construction and return
// it from ProviderSpecific.
type OperationRegistry struct {
	provider string
	mu       sync.RWMutex
	ops      map[string]registeredOperation
	log      *logger.Logger
}

// NewOperationRegistry creates an empty registry for provider.
func NewOperationRegistry(provider string) *OperationRegistry {
	return &OperationRegistry{
		provider: provider,
		ops:      make(map[string]registeredOperation),
		log:      logger.Get("psp"),
	}
}

// Register adds or replaces the handler for name.
func (r *OperationRegistry) Register(name string, handler OperationHandler, meta OperationMetadata) {
	r.mu.Lock()
	r.ops[name] = registeredOperation{handler: handler, meta: meta}
	r.mu.Unlock()
	r.log.Debug("provider operation registered", logger.Fields(
		logger.FieldProvider, r.provider,
		logger.FieldOperation, name,
	))
}

// ExecuteOperation runs the handler registered for name. Unknown names
// return UNSUPPORTED_OPERATION. A handler error yields the error, not a
// response with Success false.
func (r *OperationRegistry) ExecuteOperation(ctx context.Context, name string, req ProviderOperationRequest) (*ProviderOperationResponse, error) {
	r.mu.RLock()
	op, ok := r.ops[name]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("unsupported provider operation", logger.Fields(
			logger.FieldProvider, r.provider,
			logger.FieldOperation, name,
		))
		return nil, errors.UnsupportedOperation(r.provider, name)
	}

	if req.OperationName == "" {
		req.OperationName = name
	}
	result, err := op.handler(ctx, req)
	if err != nil {
		r.log.Error("provider operation failed", logger.MergeWithError(logger.Fields(
			logger.FieldProvider, r.provider,
			logger.FieldOperation, name,
		), err))
		return nil, err
	}
	return &ProviderOperationResponse{
		OperationName: name,
		Success:       true,
		Result:        result,
		Metadata:      req.Metadata,
	}, nil
}

// SupportsOperation reports whether name is registered.
func (r *OperationRegistry) SupportsOperation(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ops[name]
	return ok
}

// SupportedOperations returns the registered names in sorted order.
func (r *OperationRegistry) SupportedOperations() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// OperationMetadata describes name. The description, parameters and example
// are returned in Result under the keys of the same names.
func (r *OperationRegistry) OperationMetadata(name string) (*ProviderOperationResponse, error) {
	r.mu.RLock()
	op, ok := r.ops[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnsupportedOperation(r.provider, name)
	}
	return &ProviderOperationResponse{
		OperationName: name,
		Success:       true,
		Message:       op.meta.Description,
		Result: map[string]any{
			"description": op.meta.Description,
			"parameters":  op.meta.Parameters,
			"example":     op.meta.Example,
		},
	}, nil
}
