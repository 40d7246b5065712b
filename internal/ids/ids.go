// Package ids generates identifiers for persisted entities
package ids

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// DefaultNode is the snowflake node used until SetNode is called
const DefaultNode int64 = 1

var (
	node        atomic.Pointer[snowflake.Node]
	defaultNode = sync.OnceValue(func() *snowflake.Node {
		n, err := snowflake.NewNode(DefaultNode)
		if err != nil {
			panic(fmt.Sprintf("snowflake node %d: %v", DefaultNode, err))
		}
		return n
	})
)

// SetNode sets the snowflake node id used for payment numbers.
// It fails when id is outside the range snowflake accepts.
func SetNode(id int64) error {
	n, err := snowflake.NewNode(id)
	if err != nil {
		return fmt.Errorf("failed to create snowflake node %d: %w", id, err)
	}
	node.Store(n)
	return nil
}

// New returns a random UUID string for entities and sessions
func New() string {
	return uuid.New().String()
}

// NewAuditID returns a time-sortable KSUID for audit entries
func NewAuditID() string {
	return ksuid.New().String()
}

// NewPaymentID returns a snowflake id usable as a gateway order number
func NewPaymentID() string {
	n := node.Load()
	if n == nil {
		n = defaultNode()
	}
	return n.Generate().String()
}
