// Package resolver defines the injected artifact-resolution collaborator
// (§6): given root coordinates and a classpath scope, it produces a fully
// classified ArtifactGraph. Resolving against a real package repository is
// explicitly out of scope (§1); this package only defines the interface
// plus a simple in-memory resolver useful for tests and for callers that
// already have a fully-built dependency graph (e.g. from a build tool
// plugin host).
package resolver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
)

// Resolver produces the initial ArtifactGraph for a build (§6: "Resolver
// interface").
type Resolver interface {
	Resolve(ctx context.Context, rootCoords artifact.Coords, scope artifact.ClasspathScope) (*Graph, error)
}

// Graph is the DAG of artifacts produced by a Resolver: a Root artifact
// plus everything transitively reachable from it.
type Graph struct {
	Root *artifact.Artifact
}

// Static is a Resolver backed by an already-constructed graph, useful for
// tests and for hosts (build-tool plugins) that perform resolution
// themselves and only need this package's scheduler/pipeline.
type Static struct {
	Graph *Graph
}

func (s Static) Resolve(ctx context.Context, rootCoords artifact.Coords, scope artifact.ClasspathScope) (*Graph, error) {
	if s.Graph == nil || s.Graph.Root == nil {
		return nil, errors.New("resolver: static resolver has no graph configured")
	}
	if s.Graph.Root.Coords != rootCoords {
		return nil, errors.Errorf("resolver: static graph root %s does not match requested %s", s.Graph.Root.Coords, rootCoords)
	}
	return s.Graph, nil
}

// ValidateAcyclic walks the graph rooted at g.Root and returns a GraphError
// if a cycle is found (§3 invariant: "The graph is acyclic. A cycle during
// traversal is a fatal build error.").
func ValidateAcyclic(g *Graph) error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var walk func(a *artifact.Artifact) error
	walk = func(a *artifact.Artifact) error {
		key := a.Coords.String()
		if visiting[key] {
			return errors.Errorf("resolver: cycle detected at %s", key)
		}
		if visited[key] {
			return nil
		}
		visiting[key] = true
		for _, dep := range a.DirectDeps {
			if err := walk(dep); err != nil {
				return err
			}
		}
		visiting[key] = false
		visited[key] = true
		return nil
	}
	return walk(g.Root)
}
