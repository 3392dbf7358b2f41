// Package backup provides keeper.BackupStore implementations: in memory,
// a local directory, and an S3 bucket.
package backup

import (
	"fmt"
	"path"
	"strings"

	"onepass/internal/keeper"
)

// validateName rejects names that could escape the store's namespace.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return &keeper.Error{Kind: keeper.ErrValidation, Msg: fmt.Sprintf("invalid backup name %q", name)}
	}
	return nil
}

func notFound(name string) error {
	return &keeper.Error{Kind: keeper.ErrNotFound, Msg: fmt.Sprintf("backup %s not found", name)}
}
