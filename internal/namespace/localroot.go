// Package namespace maps logical cluster paths onto the physical paths of
// the locally mounted storage.
package namespace

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidPath is returned for logical paths that cannot be mapped.
var ErrInvalidPath = errors.New("namespace: invalid logical path")

// LocalRoot prefixes logical paths with the directory where the cluster's
// namespace is mounted on this node. An empty root maps paths onto
// themselves.
type LocalRoot struct {
	root string
}

// NewLocalRoot returns a translator rooted at root. Trailing slashes are
// dropped.
func NewLocalRoot(root string) *LocalRoot {
	root = strings.TrimSpace(root)
	if root != "" && root != "/" {
		root = path.Clean(root)
	} else {
		root = ""
	}
	return &LocalRoot{root: root}
}

// Root returns the configured root, "" when none.
func (l *LocalRoot) Root() string {
	return l.root
}

// Translate returns root + logical. The logical path must be absolute and
// must not climb out of the root through "..".
func (l *LocalRoot) Translate(_ context.Context, logical string) (string, error) {
	if logical == "" || logical[0] != '/' {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, logical)
	}
	if strings.ContainsRune(logical, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidPath, logical)
	}
	for _, elem := range strings.Split(logical, "/") {
		if elem == ".." {
			return "", fmt.Errorf("%w: %q escapes the namespace", ErrInvalidPath, logical)
		}
	}
	return l.root + path.Clean(logical), nil
}
