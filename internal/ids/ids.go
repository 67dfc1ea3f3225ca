// Package ids generates human-facing record numbers.
package ids

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator issues numbers of the form PREFIX-<snowflake>.
// Numbers are unique per node and sort by issue time.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for nodeID (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node id %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// Next returns a new number carrying prefix.
func (g *Generator) Next(prefix string) string {
	return prefix + "-" + g.node.Generate().String()
}
