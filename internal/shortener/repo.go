package shortener

import "context"

// Repository defines the persistence operations for Link entities.
// It abstracts the underlying data store. Implementations classify their
// failures with errx: NotFound when Get finds no row, Conflict when Insert
// hits an existing id, Storage for everything else. Each call is a single
// row operation and must be atomic at the storage layer; no further locking
// is done above it.
type Repository interface {
	Get(ctx context.Context, id string) (Link, error)
	Insert(ctx context.Context, link Link) (Link, error)
	// UpdateTarget reports the number of rows changed; zero means no link
	// with that id exists.
	UpdateTarget(ctx context.Context, id, targetURL string) (int64, error)
}
