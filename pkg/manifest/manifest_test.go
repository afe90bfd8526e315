package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
)

func newReq(t *testing.T) *artifact.BuildRequest {
	t.Helper()
	return artifact.NewBuildRequest(t.TempDir(), t.TempDir())
}

func TestDecodeRejectsInvalidManifest(t *testing.T) {
	_, err := Decode([]byte(`{"group":"g"}`), newReq(t))
	assert.Error(t, err)
}

func TestDecodeBuildsRootWithDependency(t *testing.T) {
	raw := []byte(`{
		"group": "g", "name": "root", "version": "1.0", "kind": "root",
		"dependencies": [
			{"group": "g", "name": "dep", "version": "1.0"}
		]
	}`)

	root, err := Decode(raw, newReq(t))
	require.NoError(t, err)
	assert.Equal(t, artifact.Root, root.Kind)
	require.Len(t, root.DirectDeps, 1)
	assert.Equal(t, "dep", root.DirectDeps[0].Coords.Name)
	assert.Equal(t, artifact.Dependency, root.DirectDeps[0].Kind)
}

func TestDecodeDedupesSharedDependencyByCoords(t *testing.T) {
	raw := []byte(`{
		"group": "g", "name": "root", "version": "1.0", "kind": "root",
		"dependencies": [
			{"group": "g", "name": "left", "version": "1.0", "dependencies": [
				{"group": "g", "name": "shared", "version": "1.0"}
			]},
			{"group": "g", "name": "right", "version": "1.0", "dependencies": [
				{"group": "g", "name": "shared", "version": "1.0"}
			]}
		]
	}`)

	root, err := Decode(raw, newReq(t))
	require.NoError(t, err)
	require.Len(t, root.DirectDeps, 2)
	left, right := root.DirectDeps[0], root.DirectDeps[1]
	require.Len(t, left.DirectDeps, 1)
	require.Len(t, right.DirectDeps, 1)
	assert.Same(t, left.DirectDeps[0], right.DirectDeps[0])
}

func TestDecodeCarriesShadeMappingsAndArtifactFile(t *testing.T) {
	raw := []byte(`{
		"group": "g", "name": "dep", "version": "1.0", "artifactFile": "/x/dep.jar",
		"shadeMappings": [{"find": "com.old", "replace": "com.new"}]
	}`)

	n, err := Decode(raw, newReq(t))
	require.NoError(t, err)
	assert.Equal(t, "/x/dep.jar", n.ArtifactFile)
	require.Len(t, n.ShadeMappings, 1)
	assert.Equal(t, artifact.ShadeMapping{Find: "com.old", Replace: "com.new"}, n.ShadeMappings[0])
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	raw := []byte(`{"group": "g", "name": "n", "version": "1.0", "kind": "not-a-kind"}`)
	_, err := Decode(raw, newReq(t))
	assert.Error(t, err)
}
