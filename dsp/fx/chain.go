package fx

import "fmt"

// Chain runs filters in order over the same buffer.
type Chain struct {
	filters []Filter
}

// NewChain returns a chain over filters. Nil entries are skipped.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{}
	for _, f := range filters {
		c.Append(f)
	}
	return c
}

// Append adds f to the end of the chain.
func (c *Chain) Append(f Filter) {
	if f != nil {
		c.filters = append(c.filters, f)
	}
}

// Len returns the number of filters.
func (c *Chain) Len() int { return len(c.filters) }

// Filters returns the filters in processing order.
func (c *Chain) Filters() []Filter { return c.filters }

// RequiresSampleHistory reports whether any filter in the chain does.
func (c *Chain) RequiresSampleHistory() bool {
	for _, f := range c.filters {
		if f.RequiresSampleHistory() {
			return true
		}
	}
	return false
}

// Process runs every filter over buf and stops at the first error.
func (c *Chain) Process(buf Buffer) error {
	for i, f := range c.filters {
		if err := f.Process(buf); err != nil {
			return fmt.Errorf("fx chain stage %d (%s): %w", i, f.Kind(), err)
		}
	}
	return nil
}

// Reset clears the history of every filter.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		f.Reset()
	}
}

// ApplyOneShot filters an isolated snippet, such as a sound loaded once from
// a bank. Filters that need continuity across buffers are refused.
func ApplyOneShot(f Filter, buf Buffer) error {
	if f.RequiresSampleHistory() {
		return fmt.Errorf("%w: %s", ErrRequiresHistory, f.Kind())
	}
	f.Reset()
	return f.Process(buf)
}
