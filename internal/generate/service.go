// Package generate turns catalog item metadata into bilingual video
// scripts by way of an LLM provider: prompt construction, response cleanup,
// quality control, and an Arabic translation pass.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/auc-library-labs/scriptorium/internal/gemini"
	"github.com/auc-library-labs/scriptorium/internal/models"
	"github.com/auc-library-labs/scriptorium/internal/ollama"
	"github.com/auc-library-labs/scriptorium/internal/openai"
	"github.com/auc-library-labs/scriptorium/internal/providers"
)

// Service generates scripts through a single LLM provider.
type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewService wraps the given provider. model may be empty only when the
// provider ignores it.
func NewService(provider providers.Provider, model string) *Service {
	return &Service{
		provider:    provider,
		model:       model,
		temperature: 0.7,
	}
}

// NewServiceFromEnv selects the provider and model from the environment,
// defaulting to a local Ollama instance.
func NewServiceFromEnv() (*Service, error) {
	providerName := os.Getenv("GENERATION_PROVIDER")
	if providerName == "" {
		providerName = "ollama"
	}

	var (
		provider providers.Provider
		model    string
	)
	switch providerName {
	case "ollama":
		provider = ollama.New()
		model = os.Getenv("OLLAMA_MODEL")
		if model == "" {
			model = "llama3:8b"
		}
	case "openai":
		provider = openai.New()
		model = os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o"
		}
	case "gemini":
		provider = gemini.New()
		model = os.Getenv("GEMINI_MODEL")
		if model == "" {
			model = "gemini-1.5-flash"
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return NewService(provider, model), nil
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.model
}

// Healthy reports whether the backing provider is reachable. Providers
// without a probe are assumed reachable.
func (s *Service) Healthy(ctx context.Context) bool {
	if p, ok := s.provider.(interface{ Healthy(context.Context) bool }); ok {
		return p.Healthy(ctx)
	}
	return true
}

// Generate produces a script for one item. The returned result always
// carries the quality-control verdict; translation runs only when QC
// passes, and a failed translation is recorded in the result rather than
// failing the call.
func (s *Service) Generate(ctx context.Context, artifactType string, item models.Item) (*models.ScriptResult, error) {
	factualSummary := ""
	if artifactType == ArtifactPublicationDeepDive {
		summary, err := s.complete(ctx, buildFactualSummaryPrompt(&item))
		if err != nil {
			return nil, fmt.Errorf("factual summary generation failed: %w", err)
		}
		factualSummary = summary
	}

	raw, err := s.complete(ctx, buildScriptPrompt(&item, artifactType, factualSummary))
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	script := CleanRawScript(raw)
	qcPassed, qcMessage := QualityCheck(script)

	result := &models.ScriptResult{
		EnglishScript: script,
		QCPassed:      qcPassed,
		QCMessage:     qcMessage,
	}

	if qcPassed {
		result.ArabicScript = s.translate(ctx, script)
	}

	return result, nil
}

// RegenerateRequest describes a targeted re-run of generation for an
// existing result, incorporating user feedback. Channels not flagged for
// regeneration keep their original text verbatim.
type RegenerateRequest struct {
	Item              models.Item
	ArtifactType      string
	UserComments      string
	OriginalEnglish   string
	OriginalArabic    string
	RegenerateEnglish bool
	RegenerateArabic  bool
}

// Regenerate re-runs generation per the request. The result is marked
// Regenerated for display purposes.
func (s *Service) Regenerate(ctx context.Context, req RegenerateRequest) (*models.ScriptResult, error) {
	result := &models.ScriptResult{
		EnglishScript: req.OriginalEnglish,
		ArabicScript:  req.OriginalArabic,
		QCPassed:      true,
		QCMessage:     "Quality check passed.",
		Regenerated:   true,
	}

	if req.RegenerateEnglish {
		raw, err := s.complete(ctx, buildRegeneratePrompt(&req.Item, req.OriginalEnglish, req.UserComments))
		if err != nil {
			return nil, fmt.Errorf("script regeneration failed: %w", err)
		}
		script := CleanRawScript(raw)
		qcPassed, qcMessage := QualityCheck(script)
		result.EnglishScript = script
		result.QCPassed = qcPassed
		result.QCMessage = qcMessage

		// A fresh English script invalidates the old translation.
		if req.RegenerateArabic || req.OriginalArabic != "" {
			if qcPassed {
				result.ArabicScript = s.translate(ctx, script)
			} else {
				result.ArabicScript = ""
			}
		}
		return result, nil
	}

	if req.RegenerateArabic {
		draftPrompt := buildRegeneratePrompt(&req.Item, req.OriginalArabic, req.UserComments)
		draft, err := s.complete(ctx, draftPrompt)
		if err != nil {
			return nil, fmt.Errorf("translation regeneration failed: %w", err)
		}
		result.ArabicScript = strings.TrimSpace(draft)
	}

	return result, nil
}

// translate produces the refined Arabic rendition of an English script.
// Failures are folded into the returned text, mirroring how the batch view
// displays them; translation never fails the surrounding generation.
func (s *Service) translate(ctx context.Context, englishScript string) string {
	draft, err := s.complete(ctx, buildTranslationPrompt(englishScript))
	if err != nil {
		slog.Warn("Translation failed", "err", err)
		return "Translation failed: " + err.Error()
	}

	refined, err := s.complete(ctx, buildRefinementPrompt(draft))
	if err != nil {
		slog.Warn("Translation refinement failed, keeping draft", "err", err)
		return strings.TrimSpace(draft)
	}

	// The refinement prompt asks the model to answer after this marker;
	// some models echo the whole prompt back.
	if idx := strings.LastIndex(refined, "Polished Arabic Script:"); idx != -1 {
		refined = refined[idx+len("Polished Arabic Script:"):]
	} else if idx := strings.LastIndex(refined, "--- END DRAFT ---"); idx != -1 {
		refined = refined[idx+len("--- END DRAFT ---"):]
	}
	return strings.TrimSpace(refined)
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	return s.provider.Complete(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      prompt,
	})
}
