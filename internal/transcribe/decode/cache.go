package decode

import "fmt"

// Cache stores attention key/value projections keyed by module name
// (e.g. "k_0", "v_0"). Self-attention states grow one step per decoded
// token; cross-attention states cover the whole audio context and are
// computed once.
type Cache struct {
	maxPositions int
	entries      map[string]Tensor
}

// NewCache builds a cache. maxPositions is the decoder's positional
// embedding count: a stored tensor longer than that along the step axis
// can only be a cross-attention projection, which is replaced wholesale
// instead of concatenated.
func NewCache(maxPositions int) *Cache {
	return &Cache{
		maxPositions: maxPositions,
		entries:      make(map[string]Tensor),
	}
}

// Save merges one module's new hidden state into the cache and returns
// the stored value. The first write for a module, and any tensor wider
// than the positional embedding table, replaces the entry; anything else
// is appended along the step axis.
func (c *Cache) Save(module string, output Tensor) (Tensor, error) {
	existing, ok := c.entries[module]
	if !ok || output.Steps > c.maxPositions {
		c.entries[module] = output
		return output, nil
	}
	merged, err := Concat(existing, output)
	if err != nil {
		return Tensor{}, fmt.Errorf("cache save %s: %w", module, err)
	}
	c.entries[module] = merged
	return merged, nil
}

// Get returns the cached tensor for a module.
func (c *Cache) Get(module string) (Tensor, bool) {
	t, ok := c.entries[module]
	return t, ok
}

// Snapshot returns the current cache contents for feeding a decode step.
func (c *Cache) Snapshot() map[string]Tensor {
	out := make(map[string]Tensor, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Rearrange reorders every entry along the batch axis so the cache
// follows surviving beam candidates.
func (c *Cache) Rearrange(indices []int) error {
	for module, tensor := range c.entries {
		taken, err := tensor.Take(indices)
		if err != nil {
			return fmt.Errorf("cache rearrange %s: %w", module, err)
		}
		c.entries[module] = taken
	}
	return nil
}

// Reset clears all entries. Call between independent audio windows.
func (c *Cache) Reset() {
	c.entries = make(map[string]Tensor)
}

// Len returns the number of cached modules.
func (c *Cache) Len() int {
	return len(c.entries)
}
