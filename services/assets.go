package services

import (
	"os"
	"sync"
)

// AssetCache loads the invoice background image once and shares the
// bytes across every render in the process. A failed load is not cached,
// so the next render retries the read.
type AssetCache struct {
	mu   sync.Mutex
	path string
	data []byte
}

func NewAssetCache(path string) *AssetCache {
	return &AssetCache{path: path}
}

func (a *AssetCache) Background() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data != nil {
		return a.data, nil
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, &AssetLoadError{Path: a.path, Err: err}
	}
	a.data = data
	return data, nil
}
