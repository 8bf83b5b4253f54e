package vies

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Validator is the contract shared by Client and CachedValidator.
type Validator interface {
	Validate(ctx context.Context, country, number string) (bool, error)
}

// CachedValidator memoizes registry answers. Failures are never cached so an
// outage does not pin a buyer to the fallback rate.
type CachedValidator struct {
	next  Validator
	cache *expirable.LRU[string, bool]
}

// NewCachedValidator wraps next with an LRU of size entries living ttl.
func NewCachedValidator(next Validator, size int, ttl time.Duration) *CachedValidator {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedValidator{
		next:  next,
		cache: expirable.NewLRU[string, bool](size, nil, ttl),
	}
}

func (c *CachedValidator) Validate(ctx context.Context, country, number string) (bool, error) {
	cc, vat := normalize(country, number)
	key := cc + ":" + vat
	if valid, ok := c.cache.Get(key); ok {
		return valid, nil
	}
	valid, err := c.next.Validate(ctx, country, number)
	if err != nil {
		return false, err
	}
	c.cache.Add(key, valid)
	return valid, nil
}

// Len reports the number of cached answers.
func (c *CachedValidator) Len() int {
	return c.cache.Len()
}
