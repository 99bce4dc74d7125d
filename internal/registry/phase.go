// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

// Phase is a state of one registration pass. A pass visits the phases in
// declaration order and may skip ahead, never back.
type Phase string

const (
	PhaseResolving         Phase = "RESOLVING"
	PhaseSubmittingPrimary Phase = "SUBMITTING_PRIMARY"
	PhaseAwaitingMedia     Phase = "AWAITING_MEDIA"
	PhaseRenderingHTML     Phase = "RENDERING_HTML"
	PhaseSubmittingHTML    Phase = "SUBMITTING_HTML"
	PhaseAwaitingAll       Phase = "AWAITING_ALL"
	PhaseDone              Phase = "DONE"
)

// PhaseHook observes phase transitions of a pass. It runs on the pass
// goroutine and must not block.
type PhaseHook func(bucket string, phase Phase)
