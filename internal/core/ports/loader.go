// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/mason/internal/core/graph"

// Loader defines the interface for constructing the project graph. The
// core never parses configuration text itself; a loader hands it a fully
// populated, frozen Project tree and key registry.
//
//go:generate go run go.uber.org/mock/mockgen -source=loader.go -destination=mocks/mock_loader.go -package=mocks
type Loader interface {
	// Load reads the build configuration rooted at the given directory
	// and returns the project graph.
	Load(root string) (*graph.Project, error)
}
