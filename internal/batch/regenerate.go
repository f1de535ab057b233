package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/auc-library-labs/scriptorium/internal/generate"
	"github.com/auc-library-labs/scriptorium/internal/results"
)

// Regeneration validation failures.
var (
	ErrEmptyComments = errors.New("regeneration comments must not be empty")
	ErrNoChannel     = errors.New("select at least one script to regenerate")
)

// Regenerator reworks one completed result in place, guided by user
// comments. The existing entry is only replaced after the new content is
// fully produced, so a failed regeneration leaves the prior result intact.
type Regenerator struct {
	generator Generator
	cache     *results.Cache
}

// NewRegenerator wires a Regenerator to the generator and the result cache.
func NewRegenerator(gen Generator, cache *results.Cache) *Regenerator {
	return &Regenerator{generator: gen, cache: cache}
}

// Regenerate reruns generation for the entry at index. At least one of
// english or arabic must be set, and comments must be non-empty. Channels
// left unselected carry over from the existing result byte for byte.
func (r *Regenerator) Regenerate(ctx context.Context, index int, artifactType, comments string, english, arabic bool) error {
	if strings.TrimSpace(comments) == "" {
		return ErrEmptyComments
	}
	if !english && !arabic {
		return ErrNoChannel
	}

	entry, err := r.cache.Get(index)
	if err != nil {
		return err
	}
	if entry.Failed() {
		return fmt.Errorf("result for %q is a failure and cannot be regenerated", entry.ItemID)
	}

	result, err := r.generator.Regenerate(ctx, generate.RegenerateRequest{
		Item:              entry.Item,
		ArtifactType:      artifactType,
		UserComments:      comments,
		OriginalEnglish:   entry.Result.EnglishScript,
		OriginalArabic:    entry.Result.ArabicScript,
		RegenerateEnglish: english,
		RegenerateArabic:  arabic,
	})
	if err != nil {
		return fmt.Errorf("regenerating %q: %w", entry.ItemID, err)
	}

	return r.cache.Replace(index, result, "")
}
