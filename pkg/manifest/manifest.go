// Package manifest decodes a caller-supplied JSON artifact manifest (the
// format a build-tool plugin host would hand to this module) into an
// artifact.Artifact graph, validating the document against the JSON Schema
// in internal/pkg/config before construction. The schema checks the
// top-level node only; nested dependency nodes are checked just for a
// known kind while the graph is built.
package manifest

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/j2clbuild/buildgraph/internal/pkg/config"
	"github.com/j2clbuild/buildgraph/pkg/artifact"
)

// Node is the wire shape of one artifact in the manifest document.
type Node struct {
	Group         string            `json:"group"`
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Classifier    string            `json:"classifier"`
	Kind          string            `json:"kind"`
	ArtifactFile  string            `json:"artifactFile"`
	SourceRoots   []string          `json:"sourceRoots"`
	ShadeMappings []shadeMappingDoc `json:"shadeMappings"`
	Dependencies  []Node            `json:"dependencies"`
}

type shadeMappingDoc struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

// Decode validates raw against the manifest schema, then builds an
// artifact.Artifact graph rooted at the document's top level. req is
// attached to every artifact so Hash() can reach the global parameters.
func Decode(raw json.RawMessage, req *artifact.BuildRequest) (*artifact.Artifact, error) {
	if errs := config.ValidateManifest(raw); len(errs) > 0 {
		return nil, errors.Errorf("manifest: %d schema violation(s), first: %v", len(errs), errs[0])
	}

	var root Node
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, errors.Wrap(err, "manifest: decoding document")
	}

	seen := make(map[string]*artifact.Artifact)
	return buildNode(root, req, seen)
}

func buildNode(n Node, req *artifact.BuildRequest, seen map[string]*artifact.Artifact) (*artifact.Artifact, error) {
	coords := artifact.Coords{Group: n.Group, Name: n.Name, Version: n.Version, Classifier: n.Classifier}
	key := coords.String()
	if existing, ok := seen[key]; ok {
		return existing, nil
	}

	kind, err := parseKind(n.Kind)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest: artifact %s", key)
	}

	mappings := make([]artifact.ShadeMapping, 0, len(n.ShadeMappings))
	for _, m := range n.ShadeMappings {
		mappings = append(mappings, artifact.ShadeMapping{Find: m.Find, Replace: m.Replace})
	}

	a := &artifact.Artifact{
		Coords:        coords,
		Kind:          kind,
		ShadeMappings: mappings,
		ArtifactFile:  n.ArtifactFile,
		SourceRoots:   n.SourceRoots,
		Request:       req,
	}
	seen[key] = a

	for _, dep := range n.Dependencies {
		depArtifact, err := buildNode(dep, req, seen)
		if err != nil {
			return nil, err
		}
		a.DirectDeps = append(a.DirectDeps, depArtifact)
	}

	return a, nil
}

func parseKind(s string) (artifact.Kind, error) {
	switch s {
	case "", "dependency":
		return artifact.Dependency, nil
	case "root":
		return artifact.Root, nil
	case "javac-bootstrap":
		return artifact.JavacBootstrap, nil
	case "jre-binary":
		return artifact.JreBinary, nil
	case "ignored":
		return artifact.Ignored, nil
	default:
		return 0, errors.Errorf("unknown kind %q", s)
	}
}
