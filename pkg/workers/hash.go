package workers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/j2clbuild/buildgraph/pkg/artifact"
	"github.com/j2clbuild/buildgraph/pkg/cache"
	"github.com/j2clbuild/buildgraph/pkg/steps"
)

// runHash computes the artifact hash and always returns Success (§4.4
// Hash: "computes the artifact hash; always Success"). The computed value
// itself is not written into the slot — it IS the slot's own directory
// name (§3 StepSlot) — so this worker's only job is to force evaluation
// and surface a GraphError/IoError from within Hash() as a Failed result.
func runHash(ctx context.Context, a *artifact.Artifact, slot *cache.Slot, logger *logrus.Logger) (steps.Result, error) {
	if _, err := a.Hash(); err != nil {
		return steps.Failed, err
	}
	return steps.Success, nil
}
