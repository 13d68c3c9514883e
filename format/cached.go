package format

import (
	"context"
	"os"

	"github.com/gnolang/keyfmt/internal/cache"
)

// CachedProcessor wraps next so files the cache knows to be formatted are
// not parsed again. Their result reports no change.
func CachedProcessor(c *cache.Cache, next Processor) Processor {
	return func(ctx context.Context, engine FormatEngine, path string) (Result, error) {
		if c.Fresh(path) {
			content, err := os.ReadFile(path)
			if err == nil {
				return Result{Path: path, Before: content, After: content}, nil
			}
		}

		res, err := next(ctx, engine, path)
		if err != nil {
			return res, err
		}
		// Changed files are marked only once written, by the caller.
		if !res.Changed() {
			c.Mark(path, res.After)
		}
		return res, nil
	}
}
