// Package cache provides a small generic LRU cache.
//
//	fonts := cache.New[string, *text.Font](8)
//	f, err := fonts.GetOrCreate(path, func() (*text.Font, error) {
//	    return loadFont(path)
//	})
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
