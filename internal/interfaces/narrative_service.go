package interfaces

import (
	"context"

	"github.com/johnjames-bit/psiema/internal/psi"
)

// NarrativeResult carries generated commentary and its provenance.
type NarrativeResult struct {
	// Text is the commentary
	Text string
	// Source names the provider that produced it ("claude", "gemini", "template")
	Source string
}

// NarrativeService turns a computed analysis into readable commentary.
// Implementations fall back to a deterministic template when no LLM
// provider is configured or reachable.
type NarrativeService interface {
	Narrate(ctx context.Context, ticker string, analysis *psi.Analysis) (*NarrativeResult, error)
}
