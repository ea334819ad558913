// Package chain evaluates declarative prompt trees against a shared answer context.
//
// Invariants:
// - A node's children run only after the node's own backend call succeeded and its updater ran.
// - Every branch works on its own Context copy; children are folded back with Merge.
// - The first error anywhere in the tree aborts the whole traversal and no partial context is returned.
//
// Usage:
//
//	exec, _ := chain.NewExecutor(chain.ExecutorConfig{Backend: client})
//	root := chain.NewNode("extract", gen, upd, chain.WithTokenBudget(250), chain.WithChildren(child))
//	final, err := exec.Execute(ctx, root, chain.Context{chain.KeyTranscript: text})
package chain
