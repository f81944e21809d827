package provider

import "context"

// Initializable providers are set up by Manager.Initialize before they are
// stored, for example to verify credentials against the provider's API. A
// failing Init keeps the provider out of the manager.
type Initializable interface {
	Init(ctx context.Context) error
}

// Closeable providers release their resources in Manager.CloseAll, which
// pspd runs as a shutdown hook.
type Closeable interface {
	Close(ctx context.Context) error
}
