// Package idgen issues unique 64-bit entity identifiers.
//
// IDs are snowflake values: time-ordered, collision-free across
// concurrent callers, and safe to mint from multiple instances as long
// as each instance is configured with a distinct node id.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator mints entity ids. Safe for concurrent use.
type Generator struct {
	node *snowflake.Node
}

// New builds a Generator for the given node id.
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("idgen: creating snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// NextID returns a new unique id.
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
