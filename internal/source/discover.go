package source

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// DiscoverListings walks root and returns every regular file whose path
// relative to root matches pattern. Patterns use doublestar syntax, so
// "*-[0-9][0-9][0-9][0-9]" matches only top-level files and "**/icml-*"
// recurses. The result is sorted.
func DiscoverListings(root, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid listing pattern %q", pattern)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("listing root: %w", err)
	}

	var (
		mu      sync.Mutex
		matches []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel))
		if ok {
			mu.Lock()
			matches = append(matches, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	slices.Sort(matches)
	return matches, nil
}
