package core

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID prefixes per entity kind.
const (
	PrefixClient  = "c"
	PrefixStaff   = "s"
	PrefixSession = "sess"
	PrefixPayment = "pay"
)

// IDGenerator mints identifiers for new entities.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator produces "<prefix><uuid-v4>" identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + uuid.NewString()
}

// SequenceGenerator produces "<prefix><n>" from a monotonic counter.
// Intended for tests and deterministic fixtures.
type SequenceGenerator struct {
	n atomic.Int64
}

func (g *SequenceGenerator) NewID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, g.n.Add(1))
}

// NewSequenceGenerator returns a generator whose first id ends in last+1.
func NewSequenceGenerator(last int64) *SequenceGenerator {
	g := &SequenceGenerator{}
	g.n.Store(last)
	return g
}
