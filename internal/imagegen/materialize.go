package imagegen

import (
	"bytes"
	"context"

	"github.com/hpungsan/slidecraft/internal/storage"
)

// Materializer turns raw image bytes into a URL that stays fetchable.
type Materializer interface {
	Materialize(ctx context.Context, data []byte, mime string) (string, error)
}

// StorageMaterializer saves images into the media store and returns their
// "/uploads/<name>" reference.
type StorageMaterializer struct {
	store storage.Store
}

// NewStorageMaterializer creates a StorageMaterializer.
func NewStorageMaterializer(store storage.Store) *StorageMaterializer {
	return &StorageMaterializer{store: store}
}

// Materialize stores data under a fresh name.
func (m *StorageMaterializer) Materialize(ctx context.Context, data []byte, mime string) (string, error) {
	name := storage.NewName(storage.ExtensionFor(mime))
	if err := m.store.Save(ctx, name, bytes.NewReader(data), mime); err != nil {
		return "", err
	}
	return storage.Ref(name), nil
}
