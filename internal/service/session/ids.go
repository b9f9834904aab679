package session

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out session IDs unique across processes: a random
// per-process instance prefix plus a monotonic counter.
type IDGenerator struct {
	instance string
	counter  uint64
}

// NewIDGenerator creates a generator with a fresh instance prefix.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{instance: strings.SplitN(uuid.NewString(), "-", 2)[0]}
}

// NewIDGeneratorWithInstance creates a generator with a fixed prefix.
func NewIDGeneratorWithInstance(instance string) *IDGenerator {
	return &IDGenerator{instance: instance}
}

// Next returns the next session ID.
func (g *IDGenerator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-rec-%d", g.instance, n)
}
