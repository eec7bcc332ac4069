// # internal/frontend/frontend.go
package frontend

import (
	"context"

	"focal/internal/model"
)

// Frontend produces the declaration model the extraction pipeline consumes.
// Implementations own language parsing; the pipeline only sees closed
// modules with qualified names and reference sets.
type Frontend interface {
	ListModules(ctx context.Context) ([]*model.Module, error)
}
