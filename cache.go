package outline

import (
	"strconv"
)

// BatchCache memoizes a partition keyed by the selection signature.
// An entry is reused until the signature changes, MaxAge frames pass or Invalidate is called.
type BatchCache struct {
	// MaxAge is the number of reuses before a forced recompute. Zero uses [CacheMaxAge].
	MaxAge int

	valid     bool
	signature string
	batches   []Batch
	age       int
	scratch   []byte

	hits      uint64
	recompute uint64
}

// Signature returns the cache key of a selection: its length followed by the
// identities of up to the first 10 objects, joined by underscores.
func Signature(selection []Object) string {
	return string(appendSignature(nil, selection))
}

func appendSignature(b []byte, selection []Object) []byte {
	b = strconv.AppendInt(b, int64(len(selection)), 10)
	for i, obj := range selection {
		if i == signatureIDs {
			break
		}
		b = append(b, '_')
		b = strconv.AppendUint(b, obj.ID(), 10)
	}
	return b
}

// Batches returns the cached batches for selection or calls compute to refresh them.
// The returned slice is shared with the cache and must not be modified.
func (c *BatchCache) Batches(selection []Object, compute func() []Batch) []Batch {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = CacheMaxAge
	}
	c.scratch = appendSignature(c.scratch[:0], selection)
	if c.valid && c.age < maxAge && string(c.scratch) == c.signature {
		c.age++
		c.hits++
		return c.batches
	}
	c.batches = compute()
	c.signature = string(c.scratch)
	c.age = 0
	c.valid = true
	c.recompute++
	log().Debug("outline: batches recomputed", "signature", c.signature, "batches", len(c.batches))
	return c.batches
}

// Invalidate drops the cached entry. Use when objects moved without the selection changing.
func (c *BatchCache) Invalidate() {
	c.valid = false
	c.signature = ""
	c.batches = nil
	c.age = 0
}

// Age returns how many times the current entry has been reused.
func (c *BatchCache) Age() int { return c.age }

// CacheHits returns the total amount of calls served from the cache.
func (c *BatchCache) CacheHits() uint64 { return c.hits }

// Recomputes returns the total amount of calls that invoked compute.
func (c *BatchCache) Recomputes() uint64 { return c.recompute }
