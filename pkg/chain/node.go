package chain

import "fmt"

// DefaultTokenBudget is used when a node does not set one.
const DefaultTokenBudget = 16

// Generator decides whether a node calls the backend. Returning a nil ModelInput
// means "no call"; an error is reserved for missing required fields.
type Generator func(c Context) (ModelInput, error)

// Updater applies trimmed backend output to a context and returns the result.
type Updater func(output string, c Context) Context

// Node is one immutable step of a prompt tree.
type Node struct {
	name        string
	generate    Generator
	update      Updater
	tokenBudget int
	children    []*Node
}

// NodeOption configures a Node at construction time.
type NodeOption func(*Node)

// WithTokenBudget sets the maximum output length requested for the node's call.
func WithTokenBudget(tokens int) NodeOption {
	return func(n *Node) {
		n.tokenBudget = tokens
	}
}

// WithChildren sets the ordered children evaluated after the node's update.
func WithChildren(children ...*Node) NodeOption {
	return func(n *Node) {
		n.children = append([]*Node(nil), children...)
	}
}

// NewNode builds a node. The node must not be modified afterwards.
func NewNode(name string, generate Generator, update Updater, opts ...NodeOption) *Node {
	n := &Node{
		name:        name,
		generate:    generate,
		update:      update,
		tokenBudget: DefaultTokenBudget,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) TokenBudget() int {
	return n.tokenBudget
}

// Children returns a copy of the node's children.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Validate checks the node and all of its descendants.
func (n *Node) Validate() error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidTree)
	}
	if n.generate == nil {
		return fmt.Errorf("%w: node %q has no generator", ErrInvalidTree, n.name)
	}
	if n.update == nil {
		return fmt.Errorf("%w: node %q has no updater", ErrInvalidTree, n.name)
	}
	if n.tokenBudget <= 0 {
		return fmt.Errorf("%w: node %q has non-positive token budget %d", ErrInvalidTree, n.name, n.tokenBudget)
	}
	for _, child := range n.children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}
