// Package tsparse wraps the tree-sitter Python grammar in a pooled
// parser, per spec §4.B's mandate that Python alone gets full-AST
// extraction while the other lexical languages use regex/brace
// scanning.
package tsparse

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var (
	languageOnce sync.Once
	pyLanguage   *tree_sitter.Language
	parserPool   *sync.Pool
)

func initLanguage() {
	languageOnce.Do(func() {
		pyLanguage = tree_sitter.NewLanguage(tree_sitter_python.Language())
		parserPool = &sync.Pool{
			New: func() any {
				p := tree_sitter.NewParser()
				if err := p.SetLanguage(pyLanguage); err != nil {
					panic(fmt.Sprintf("tsparse: set language: %v", err))
				}
				return p
			},
		}
	})
}

// Parse parses Python source into a tree-sitter AST. The caller must
// call tree.Close() when done. Parsers are pooled via sync.Pool to
// avoid a per-file allocation.
func Parse(source []byte) (*tree_sitter.Tree, error) {
	initLanguage()

	p, _ := parserPool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("tsparse: failed to acquire parser")
	}
	defer parserPool.Put(p)

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tsparse: parse failed")
	}
	return tree, nil
}

// WalkFunc is called for each node during a depth-first traversal.
// Returning false skips the node's children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST rooted at node in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the source text spanned by node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
