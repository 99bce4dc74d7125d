// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"time"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

// resultBuilder accumulates a pass result. It only ever appends; build
// returns the finished result and stamps the finish time.
type resultBuilder struct {
	result *types.RegistrationResult
	phases []string
}

func newResultBuilder(uuid, bucket string) *resultBuilder {
	r := types.NewRegistrationResult(uuid, bucket)
	r.StartedAt = time.Now().UTC()
	return &resultBuilder{result: r}
}

func (b *resultBuilder) addPhase(phase string) {
	b.phases = append(b.phases, phase)
}

func (b *resultBuilder) addError(e types.AssetError) {
	b.result.Errors = append(b.result.Errors, e)
}

// addOutcome records the outcome of one asset and its error, if any. A
// store outage is a pass error recorded once, so assets failed by it only
// carry it in their outcome.
func (b *resultBuilder) addOutcome(kind types.AssetKind, label string, out types.AssetOutcome) {
	m := b.result.Outcomes(kind)
	if m == nil {
		return
	}
	m[label] = out
	if out.Error != nil && out.Error.Kind != types.ErrorStoreUnavailable {
		b.addError(*out.Error)
	}
}

func (b *resultBuilder) build() *types.RegistrationResult {
	b.result.Phases = append([]string(nil), b.phases...)
	b.result.FinishedAt = time.Now().UTC()
	return b.result
}
