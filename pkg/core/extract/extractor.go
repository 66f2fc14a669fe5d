// Package extract turns decoded document text into a canonical statement.
//
// The Chain runs an AI-backed primary extractor and falls back to the local
// keyword extractor on any error, panic or unusable reply, so callers always
// get a statement back.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"deal_diligence/pkg/core/logger"
	"deal_diligence/pkg/models"
)

// Extractor maps one document's text to a statement. A nil statement with a
// nil error means the document held no usable data.
type Extractor interface {
	Extract(ctx context.Context, text, filename string) (*models.Statement, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, text, filename string) (*models.Statement, error)

func (f ExtractorFunc) Extract(ctx context.Context, text, filename string) (*models.Statement, error) {
	return f(ctx, text, filename)
}

// ErrUnusableReply is returned by the primary when the model reply cannot be
// decoded into a statement.
var ErrUnusableReply = errors.New("extract: model reply is not a statement")

// Chain is the primary + fallback extraction chain.
type Chain struct {
	Primary  Extractor // nil disables the AI pass
	Fallback Extractor // nil only in tests
	cache    *cache.Cache
}

// NewChain builds a chain whose primary results are cached for ttl.
// A zero ttl disables caching.
func NewChain(primary, fallback Extractor, ttl time.Duration) *Chain {
	c := &Chain{Primary: primary, Fallback: fallback}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// Extract never surfaces a primary failure. It returns an error only when ctx
// is done.
func (c *Chain) Extract(ctx context.Context, text, filename string) (*models.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logger.Log.WithField("filename", filename)

	if c.Primary != nil {
		key := cacheKey(text, filename)
		if c.cache != nil {
			if hit, ok := c.cache.Get(key); ok {
				log.Debug("extraction cache hit")
				return hit.(*models.Statement).Clone(), nil
			}
		}

		stmt, err := c.runPrimary(ctx, text, filename)
		switch {
		case err == nil && stmt != nil:
			if c.cache != nil {
				c.cache.SetDefault(key, stmt.Clone())
			}
			return stmt, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.WithError(err).Warn("primary extraction failed, using local fallback")
		default:
			log.Warn("primary extraction returned no data, using local fallback")
		}
	}

	if c.Fallback == nil {
		return nil, nil
	}
	return c.Fallback.Extract(ctx, text, filename)
}

func (c *Chain) runPrimary(ctx context.Context, text, filename string) (stmt *models.Statement, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(logrus.Fields{"filename": filename, "panic": r}).Error("primary extractor panicked")
			stmt, err = nil, fmt.Errorf("primary extractor panic: %v", r)
		}
	}()
	return c.Primary.Extract(ctx, text, filename)
}

func cacheKey(text, filename string) string {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
