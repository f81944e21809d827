package provider

import "context"

// RequestResponse is a provider call with one input and one output, such as
// a provider-specific operation.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func adapts a function to an always available RequestResponse.
type Func[I, O any] struct {
	ProviderName string
	Fn           func(ctx context.Context, input I) (O, error)
}

func (f Func[I, O]) Name() string                     { return f.ProviderName }
func (f Func[I, O]) IsAvailable(context.Context) bool { return true }

// Execute calls Fn.
func (f Func[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.Fn(ctx, input)
}
