// Package config loads build-wide defaults from a layered YAML document,
// adapted from pkg/pipeline's two-pass default-then-override decode
// (a built-in default document decoded first, then an optional
// workspace-local override decoded over the same struct), and validates a
// fully-populated manifest against a JSON Schema using gojsonschema,
// adapted from pkg/builds' Validate pattern.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	schema "github.com/xeipuuv/gojsonschema"
	yaml "gopkg.in/yaml.v3"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
)

// Defaults is the decoded shape of the request-wide defaults document:
// every field BuildRequest needs that isn't supplied per-artifact.
type Defaults struct {
	ClasspathScope    string            `yaml:"classpathScope"`
	OptimizationLevel string            `yaml:"optimizationLevel"`
	Defines           map[string]string `yaml:"defines"`
	Externs           []string          `yaml:"externs"`
	Formatting        struct {
		PrettyPrint bool `yaml:"prettyPrint"`
		SourceMaps  bool `yaml:"sourceMaps"`
	} `yaml:"formatting"`
	LanguageOut string `yaml:"languageOut"`
	Parallelism int     `yaml:"parallelism"`
}

// builtinDefaults is decoded first, establishing a complete baseline; an
// optional override document is then decoded over the same struct so that
// it may supply only the fields it wants to change.
const builtinDefaults = `
classpathScope: compile
optimizationLevel: ADVANCED
parallelism: 4
formatting:
  prettyPrint: false
  sourceMaps: true
languageOut: ECMASCRIPT5
`

// Load decodes builtinDefaults, then (if present) overridePath over the
// same struct, mirroring pkg/pipeline's ReadConfig layering.
func Load(overridePath string) (*Defaults, error) {
	var d Defaults
	if err := decodeKnownFields([]byte(builtinDefaults), &d); err != nil {
		return nil, errors.Wrap(err, "config: decoding builtin defaults")
	}

	if overridePath == "" {
		return &d, nil
	}
	buf, err := os.ReadFile(overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &d, nil
		}
		return nil, errors.Wrapf(err, "config: reading override %s", overridePath)
	}
	if err := decodeKnownFields(buf, &d); err != nil {
		return nil, errors.Wrapf(err, "config: decoding override %s", overridePath)
	}
	return &d, nil
}

func decodeKnownFields(buf []byte, out *Defaults) error {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// ApplyTo copies the decoded defaults onto a fresh BuildRequest's
// corresponding fields, leaving BaseCacheDir/TargetDir/TestID/Logger to the
// caller.
func (d *Defaults) ApplyTo(req *artifact.BuildRequest) {
	req.ClasspathScope = artifact.ClasspathScope(d.ClasspathScope)
	req.OptimizationLevel = d.OptimizationLevel
	if len(d.Defines) > 0 {
		req.Defines = d.Defines
	}
	req.Externs = d.Externs
	req.Formatting = artifact.FormattingOptions{
		PrettyPrint: d.Formatting.PrettyPrint,
		SourceMaps:  d.Formatting.SourceMaps,
	}
	req.LanguageOut = d.LanguageOut
	if d.Parallelism > 0 {
		req.Parallelism = d.Parallelism
	}
}

// manifestSchema is the JSON Schema a caller-supplied artifact manifest
// (coordinates, dependency list, shade mappings) must satisfy before it is
// turned into an artifact.Artifact graph.
const manifestSchema = `{
  "type": "object",
  "required": ["group", "name", "version"],
  "properties": {
    "group": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string", "minLength": 1},
    "classifier": {"type": "string"},
    "kind": {"type": "string", "enum": ["dependency", "root", "javac-bootstrap", "jre-binary", "ignored"]},
    "artifactFile": {"type": "string"},
    "sourceRoots": {"type": "array", "items": {"type": "string"}},
    "shadeMappings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["find", "replace"],
        "properties": {
          "find": {"type": "string"},
          "replace": {"type": "string"}
        }
      }
    },
    "dependencies": {"type": "array"}
  }
}`

// ValidateManifest checks a raw artifact-manifest document (as produced by
// a build-tool plugin host) against manifestSchema before it is decoded
// into an artifact.Artifact graph.
func ValidateManifest(raw json.RawMessage) []error {
	result, err := schema.Validate(
		schema.NewStringLoader(manifestSchema),
		schema.NewBytesLoader(raw),
	)
	if err != nil {
		return []error{errors.Wrap(err, "config: schema validation failed to run")}
	}
	if result.Valid() {
		return nil
	}
	var errs []error
	for _, desc := range result.Errors() {
		errs = append(errs, errors.Errorf("manifest invalid: %s", desc))
	}
	return errs
}
