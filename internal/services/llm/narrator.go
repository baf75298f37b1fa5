package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/interfaces"
	"github.com/johnjames-bit/psiema/internal/psi"
)

const narratorSystemInstruction = "You are a market analysis assistant. " +
	"Summarize the supplied oscillation reading for a retail investor in " +
	"two short paragraphs. Be factual, mention the regime and any anomaly, " +
	"and do not give financial advice."

// Narrator produces reading commentary through a primary provider with a
// fallback tier, degrading to a deterministic template when no provider
// is available or both tiers fail.
type Narrator struct {
	primary  Provider
	fallback Provider
	config   *common.NarrativeConfig
	logger   arbor.ILogger
}

// NewNarrator creates a narrator from explicit providers. Either provider
// may be nil.
func NewNarrator(config *common.NarrativeConfig, primary, fallback Provider, logger arbor.ILogger) *Narrator {
	return &Narrator{
		primary:  primary,
		fallback: fallback,
		config:   config,
		logger:   logger,
	}
}

// NewNarratorFromConfig builds providers from config tiers. Providers with
// missing API keys are skipped rather than failing startup.
func NewNarratorFromConfig(ctx context.Context, config *common.Config, logger arbor.ILogger) *Narrator {
	build := func(tier string) Provider {
		switch tier {
		case "claude":
			provider, err := NewClaudeProvider(&config.Claude, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("Claude provider unavailable")
				return nil
			}
			return provider
		case "gemini":
			provider, err := NewGeminiProvider(ctx, &config.Gemini, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("Gemini provider unavailable")
				return nil
			}
			return provider
		default:
			return nil
		}
	}

	primaryTier := config.Narrative.PrimaryTier
	if primaryTier == "" {
		primaryTier = "claude"
	}
	fallbackTier := config.Narrative.FallbackTier
	if fallbackTier == "" {
		fallbackTier = "gemini"
	}

	return NewNarrator(&config.Narrative, build(primaryTier), build(fallbackTier), logger)
}

// Narrate generates commentary for an analysis, recording which tier
// produced it. Template output is always available, so Narrate only
// returns an error for nil input.
func (n *Narrator) Narrate(ctx context.Context, ticker string, analysis *psi.Analysis) (*interfaces.NarrativeResult, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis is required")
	}

	if n.config != nil && !n.config.Enabled {
		return &interfaces.NarrativeResult{
			Text:   templateNarrative(ticker, analysis),
			Source: "template",
		}, nil
	}

	request := &ContentRequest{
		Prompt:            buildPrompt(ticker, analysis),
		SystemInstruction: narratorSystemInstruction,
	}

	for _, provider := range []Provider{n.primary, n.fallback} {
		if provider == nil {
			continue
		}
		response, err := provider.GenerateContent(ctx, request)
		if err != nil {
			n.logger.Warn().
				Str("provider", string(provider.GetProviderType())).
				Err(err).
				Msg("Narrative provider failed")
			continue
		}
		return &interfaces.NarrativeResult{
			Text:   response.Text,
			Source: string(response.Provider),
		}, nil
	}

	return &interfaces.NarrativeResult{
		Text:   templateNarrative(ticker, analysis),
		Source: "template",
	}, nil
}

// Close releases both provider tiers.
func (n *Narrator) Close() error {
	if n.primary != nil {
		n.primary.Close()
	}
	if n.fallback != nil {
		n.fallback.Close()
	}
	return nil
}

// buildPrompt renders the analysis into provider input.
func buildPrompt(ticker string, analysis *psi.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ticker: %s\n", ticker)
	fmt.Fprintf(&b, "Reading: %s\n", analysis.Reading.Label)
	fmt.Fprintf(&b, "Regime: %s\n", analysis.Regime)
	if analysis.Pathogen != nil {
		fmt.Fprintf(&b, "Pathogen: %s (stage %s, severity %.2f)\n",
			analysis.Pathogen.Name, analysis.Pathogen.Stage, analysis.Pathogen.Severity)
	}
	if !math.IsNaN(analysis.Anomaly.Current) {
		fmt.Fprintf(&b, "Anomaly z-score: %.3f\n", analysis.Anomaly.Current)
	}
	fmt.Fprintf(&b, "Data fidelity grade: %s\n", analysis.Fidelity.Grade)
	fmt.Fprintf(&b, "\nFull reading:\n%s\n", analysis.Summary.Text)

	return b.String()
}

// templateNarrative is the deterministic offline fallback.
func templateNarrative(ticker string, analysis *psi.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s over %d periods: %s. %s",
		ticker, analysis.Summary.Periods, analysis.Reading.Label, analysis.Reading.Description)
	fmt.Fprintf(&b, " The convergence regime is %s.", analysis.Regime)
	if analysis.Pathogen != nil {
		fmt.Fprintf(&b, " Warning: %s detected at stage %s (severity %.2f).",
			analysis.Pathogen.Name, analysis.Pathogen.Stage, analysis.Pathogen.Severity)
	}
	if analysis.Fidelity.Grade != "" {
		fmt.Fprintf(&b, " Data fidelity grade: %s.", analysis.Fidelity.Grade)
	}

	return b.String()
}
