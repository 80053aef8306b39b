package ports

import (
	"context"
	"io"
)

// AssetStore persists report images outside the report record. References
// are opaque to callers; only the store knows how to resolve them.
type AssetStore interface {
	// Store writes the binary and returns its reference. The original
	// filename is used only to preserve the extension.
	Store(ctx context.Context, filename string, src io.Reader) (string, error)
	// Release deletes the binary behind ref. Releasing an unknown
	// reference is not an error.
	Release(ctx context.Context, ref string) error
}

// AssetReleaser is the fire-and-forget side of asset deletion. Enqueue must
// never block the caller; failures are logged and counted, not returned.
type AssetReleaser interface {
	Enqueue(ref string)
}
