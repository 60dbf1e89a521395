package media

// CachedRepository pairs a Repository with an LRU keyed by picture
// id, so repeated UI reads of the same image skip the filesystem.
type CachedRepository struct {
	*Repository
	cache *LRU
}

func NewCachedRepository(root string, capacity int) *CachedRepository {
	return &CachedRepository{
		Repository: NewRepository(root),
		cache:      NewLRU(capacity),
	}
}

// OpenCached reads relPath, serving from the LRU under cacheKey
// (normally the picture id) when present.
func (c *CachedRepository) OpenCached(cacheKey, relPath string) ([]byte, error) {
	if b, ok := c.cache.Borrow(cacheKey); ok {
		defer c.cache.Release(cacheKey)
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	}
	b, err := c.Open(relPath)
	if err != nil {
		return nil, err
	}
	c.cache.Put(cacheKey, b)
	return b, nil
}

// StoreCached writes b and seeds the LRU with it under cacheKey,
// avoiding a redundant read-back immediately after a download.
func (c *CachedRepository) StoreCached(cacheKey, rawURL string, b []byte) (string, error) {
	rel, err := c.Store(rawURL, b)
	if err != nil {
		return "", err
	}
	c.cache.Put(cacheKey, b)
	return rel, nil
}

// InvalidateCached evicts cacheKey from the LRU and deletes relPath —
// Cleanup's single entry point for removing one stored variant.
func (c *CachedRepository) InvalidateCached(cacheKey, relPath string) error {
	c.cache.Invalidate(cacheKey)
	return c.Delete(relPath)
}
