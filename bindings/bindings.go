// Package bindings exposes the Earthfile tree-sitter grammar.
//
// The grammar sources are not committed; run `go generate ./bindings` to
// fetch them into ../tree-sitter-earthfile.
package bindings

//go:generate git clone --depth 1 https://github.com/glehmann/tree-sitter-earthfile ../tree-sitter-earthfile

// #cgo CFLAGS: -std=c11 -fPIC
// #include "../tree-sitter-earthfile/src/parser.c"
// #include "../tree-sitter-earthfile/src/scanner.c"
import "C"

import "unsafe"

// Get the tree-sitter Language for the Earthfile grammar.
func Language() unsafe.Pointer {
	return unsafe.Pointer(C.tree_sitter_earthfile())
}
