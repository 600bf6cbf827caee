package artifact

import "context"

// Store is the narrow persistence port artifact consults: a keyed blob
// store over the warehouse, addressed by the naming contract's full
// artifact name. The pipeline never reads or writes the warehouse
// directly — every stage goes through Store for its own artifacts and the
// manifest.
type Store interface {
	Put(ctx context.Context, name string, payload []byte) error
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}
