// # internal/ast/collect.go
package ast

import "iter"

// Collect returns a lazy sequence of nodes matched by match, in pre-order.
// When prune returns true for a node, its subtree still yields the node itself
// (if matched) but descent stops there. A nil prune descends everywhere.
func Collect(source *Source, match func(Node) bool, prune func(Node) bool) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var walk func(n Node) bool
		walk = func(n Node) bool {
			if match(n) {
				if !yield(n) {
					return false
				}
			}
			if prune != nil && prune(n) {
				return true
			}
			for _, child := range Children(n) {
				if !walk(child) {
					return false
				}
			}
			return true
		}
		for _, statement := range source.Statements {
			if !walk(statement) {
				return
			}
		}
	}
}
