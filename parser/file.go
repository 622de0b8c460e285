package parser

import (
	"fmt"
	"os"
)

// ReadSource reads a source file into memory
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified source path
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(data), nil
}

// ParseFile reads and parses a source file, returning the expression tree
// and the source text (needed for error-line rendering downstream).
func ParseFile(path string) (*Node, string, error) {
	source, err := ReadSource(path)
	if err != nil {
		return nil, "", err
	}
	tree, err := ParseSource(source, path)
	return tree, source, err
}
