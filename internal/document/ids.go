package document

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues entry identifiers. kind is "experience" or "education".
type IDGenerator interface {
	NewID(kind string) string
}

// UUIDGenerator issues random UUIDs. It is the default generator.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID(string) string {
	return uuid.NewString()
}

// SequenceGenerator issues "<kind>-<n>" identifiers from a monotonic counter.
// It is safe for concurrent use.
type SequenceGenerator struct {
	next atomic.Uint64
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID(kind string) string {
	return fmt.Sprintf("%s-%d", kind, g.next.Add(1))
}
