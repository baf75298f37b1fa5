package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/johnjames-bit/psiema/internal/common"
	"github.com/johnjames-bit/psiema/internal/psi"
)

type fakeProvider struct {
	providerType ProviderType
	text         string
	err          error
	calls        int
}

func (f *fakeProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ContentResponse{Text: f.text, Provider: f.providerType}, nil
}

func (f *fakeProvider) GetProviderType() ProviderType { return f.providerType }
func (f *fakeProvider) Close() error                  { return nil }

func testAnalysis() *psi.Analysis {
	return &psi.Analysis{
		Regime: psi.RegimeBreathing,
		Reading: psi.Reading{
			Label:       "Breathing",
			Description: "Normal oscillation within expected bounds.",
		},
		Fidelity: psi.FidelityReport{Grade: "A"},
		Summary: psi.Summary{
			Periods: 60,
			Text:    "reading over 60 periods",
		},
	}
}

func enabledConfig() *common.NarrativeConfig {
	return &common.NarrativeConfig{Enabled: true}
}

func TestNarratePrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{providerType: ProviderClaude, text: "claude says breathing"}
	fallback := &fakeProvider{providerType: ProviderGemini, text: "gemini says breathing"}
	narrator := NewNarrator(enabledConfig(), primary, fallback, arbor.NewLogger())

	result, err := narrator.Narrate(context.Background(), "AAPL.US", testAnalysis())
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if result.Source != "claude" {
		t.Errorf("expected source claude, got %q", result.Source)
	}
	if result.Text != "claude says breathing" {
		t.Errorf("unexpected text: %q", result.Text)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not be consulted when primary succeeds")
	}
}

func TestNarrateFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeProvider{providerType: ProviderClaude, err: fmt.Errorf("429 quota")}
	fallback := &fakeProvider{providerType: ProviderGemini, text: "gemini says breathing"}
	narrator := NewNarrator(enabledConfig(), primary, fallback, arbor.NewLogger())

	result, err := narrator.Narrate(context.Background(), "AAPL.US", testAnalysis())
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if result.Source != "gemini" {
		t.Errorf("expected source gemini, got %q", result.Source)
	}
	if primary.calls != 1 {
		t.Errorf("expected primary to be tried once, got %d", primary.calls)
	}
}

func TestNarrateTemplateWhenAllProvidersFail(t *testing.T) {
	primary := &fakeProvider{providerType: ProviderClaude, err: fmt.Errorf("network down")}
	fallback := &fakeProvider{providerType: ProviderGemini, err: fmt.Errorf("network down")}
	narrator := NewNarrator(enabledConfig(), primary, fallback, arbor.NewLogger())

	result, err := narrator.Narrate(context.Background(), "AAPL.US", testAnalysis())
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if result.Source != "template" {
		t.Errorf("expected template fallback, got %q", result.Source)
	}
	if !strings.Contains(result.Text, "Breathing") {
		t.Errorf("expected template to mention reading label, got %q", result.Text)
	}
	if !strings.Contains(result.Text, "BREATHING") {
		t.Errorf("expected template to mention regime, got %q", result.Text)
	}
}

func TestNarrateTemplateWhenNoProviders(t *testing.T) {
	narrator := NewNarrator(enabledConfig(), nil, nil, arbor.NewLogger())

	result, err := narrator.Narrate(context.Background(), "AAPL.US", testAnalysis())
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if result.Source != "template" {
		t.Errorf("expected template source, got %q", result.Source)
	}
}

func TestNarrateDisabledSkipsProviders(t *testing.T) {
	primary := &fakeProvider{providerType: ProviderClaude, text: "should not be used"}
	narrator := NewNarrator(&common.NarrativeConfig{Enabled: false}, primary, nil, arbor.NewLogger())

	result, err := narrator.Narrate(context.Background(), "AAPL.US", testAnalysis())
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if result.Source != "template" {
		t.Errorf("expected template source, got %q", result.Source)
	}
	if primary.calls != 0 {
		t.Error("providers should not be consulted when narration is disabled")
	}
}

func TestNarrateNilAnalysis(t *testing.T) {
	narrator := NewNarrator(enabledConfig(), nil, nil, arbor.NewLogger())
	if _, err := narrator.Narrate(context.Background(), "AAPL.US", nil); err == nil {
		t.Error("expected error for nil analysis")
	}
}

func TestTemplateNarrativeIncludesPathogen(t *testing.T) {
	analysis := testAnalysis()
	analysis.Pathogen = &psi.Pathogen{
		Name:     "Ponzi Virus",
		Severity: 0.42,
		Stage:    psi.StageII,
	}

	text := templateNarrative("AAPL.US", analysis)
	if !strings.Contains(text, "Ponzi Virus") {
		t.Errorf("expected pathogen in template, got %q", text)
	}
	if !strings.Contains(text, "stage II") {
		t.Errorf("expected stage in template, got %q", text)
	}
}

func TestBuildPromptMentionsCoreFields(t *testing.T) {
	prompt := buildPrompt("AAPL.US", testAnalysis())
	for _, want := range []string{"AAPL.US", "Breathing", "BREATHING", "Data fidelity grade: A"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
}
