package mistakes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"timeback/internal/language"
	"timeback/internal/logging"
	"timeback/internal/services"
	"timeback/internal/transcript"
)

// Cleaner returns text with disfluencies removed. It must only drop words.
type Cleaner interface {
	Clean(ctx context.Context, instruction, text string) (string, error)
}

// Completer is the chat call an LLMCleaner needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMCleaner adapts a chat model to Cleaner.
type LLMCleaner struct {
	client Completer
}

// NewLLMCleaner wraps a chat client.
func NewLLMCleaner(client Completer) *LLMCleaner {
	return &LLMCleaner{client: client}
}

// Clean sends instruction as the system prompt and text as the user prompt.
func (c *LLMCleaner) Clean(ctx context.Context, instruction, text string) (string, error) {
	return c.client.Complete(ctx, instruction, text)
}

// Instruction builds the cleanup prompt for the enabled categories.
func Instruction(cats Categories, lang string) string {
	var b strings.Builder
	b.WriteString("You edit raw speech transcripts")
	if name := language.DisplayName(language.OrDefault(lang, DefaultLanguage)); name != "" {
		fmt.Fprintf(&b, " in %s", name)
	}
	b.WriteString(". Delete only these disfluencies: ")
	b.WriteString(strings.Join(cats.Names(), ", "))
	b.WriteString(".\nRules:\n")
	b.WriteString("- Only delete words. Never add, reorder, rephrase, translate or correct words.\n")
	b.WriteString("- Keep every remaining word exactly as written.\n")
	b.WriteString("- When a phrase is repeated or restarted, delete the earlier attempt and keep the last one.\n")
	b.WriteString("- If nothing needs deleting, return the text unchanged.\n")
	b.WriteString("Return only the edited transcript, with no commentary.")
	return b.String()
}

const (
	// DefaultChunkWords is how many words go to the cleaner per request.
	DefaultChunkWords = 400
	// DefaultChunkOverlap is how many words consecutive chunks share.
	DefaultChunkOverlap = 40
	// DefaultCleanupConcurrency caps concurrent cleaner requests.
	DefaultCleanupConcurrency = 4

	// minMatchedShare rejects chunks where the cleaner rewrote the text.
	minMatchedShare = 0.5
	// maxRemovedShare rejects chunks where the cleaner deleted most words.
	maxRemovedShare = 0.5
)

// Cleanup classification confidences.
const (
	cleanupFillerConfidence         = 0.85
	cleanupRepeatedWordConfidence   = 0.90
	cleanupRepeatedPhraseConfidence = 0.85
	cleanupSelfCorrectionConfidence = 0.80
	cleanupFalseStartConfidence     = 0.75
)

// CleanupDetector recovers removed words from a cleaned transcript.
type CleanupDetector struct {
	cleaner     Cleaner
	categories  Categories
	language    string
	chunkWords  int
	overlap     int
	concurrency int
	logger      *slog.Logger
}

// CleanupOption customizes the detector.
type CleanupOption func(*CleanupDetector)

// WithChunking sets the chunk size and overlap in words.
func WithChunking(words, overlap int) CleanupOption {
	return func(d *CleanupDetector) {
		if words > 0 {
			d.chunkWords = words
		}
		if overlap >= 0 {
			d.overlap = overlap
		}
	}
}

// WithCleanupConcurrency caps concurrent cleaner requests.
func WithCleanupConcurrency(n int) CleanupOption {
	return func(d *CleanupDetector) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewCleanupDetector constructs a detector around cleaner.
func NewCleanupDetector(cleaner Cleaner, cats Categories, lang string, logger *slog.Logger, opts ...CleanupOption) *CleanupDetector {
	d := &CleanupDetector{
		cleaner:     cleaner,
		categories:  cats,
		language:    lang,
		chunkWords:  DefaultChunkWords,
		overlap:     DefaultChunkOverlap,
		concurrency: DefaultCleanupConcurrency,
		logger:      logging.NewComponentLogger(logger, "mistakes"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type chunkVote struct {
	span    transcript.Span
	removed []bool
	ok      bool
}

// Detect sends words to the cleaner in overlapping chunks and returns one
// mistake per run of removed words. A word inside an overlap counts as
// removed only when every chunk covering it removed it; a failed or rejected
// chunk votes to keep its words. Detect fails only when every chunk failed.
func (d *CleanupDetector) Detect(ctx context.Context, words []transcript.Word, table *FillerTable) ([]Mistake, error) {
	if len(words) == 0 || d.cleaner == nil || len(d.categories.Names()) == 0 {
		return nil, nil
	}
	logger := logging.WithContext(ctx, d.logger)
	tokens := transcript.Tokens(words)
	spans := transcript.Chunk(len(words), d.chunkWords, d.overlap)
	instruction := Instruction(d.categories, d.language)

	votes := make([]chunkVote, len(spans))
	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for k, span := range spans {
		votes[k].span = span
		g.Go(func() error {
			cleaned, err := d.cleaner.Clean(gctx, instruction, transcript.Text(words[span.Start:span.End]))
			if err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return err
				}
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				logging.WarnWithContext(logger, "cleanup chunk failed", "cleanup_chunk_failed",
					logging.Int("chunk", k),
					logging.Error(err),
					logging.String(logging.FieldImpact, "words in this chunk are kept"),
				)
				return nil
			}
			removed, matched := DiffRemoved(tokens[span.Start:span.End], transcript.Split(cleaned))
			if share := removedShare(removed); matched < minMatchedShare || share > maxRemovedShare {
				logging.WarnWithContext(logger, "cleanup chunk rejected", "cleanup_chunk_rejected",
					logging.Int("chunk", k),
					logging.Float64("matched_share", matched),
					logging.Float64("removed_share", share),
					logging.String(logging.FieldImpact, "words in this chunk are kept"),
				)
				return nil
			}
			votes[k].removed = removed
			votes[k].ok = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(failures) == len(spans) {
		return nil, services.Wrap(services.ErrService, "mistakes", "cleanup", fmt.Sprintf("all %d chunk(s) failed", len(spans)), failures[0])
	}

	removed := consensus(len(words), votes)
	out := groupRemovals(words, tokens, removed, table)
	logger.Debug("cleanup diff complete",
		logging.Int("chunks", len(spans)),
		logging.Int("failed_chunks", len(failures)),
		logging.Int("mistakes", len(out)),
	)
	return out, nil
}

// consensus combines chunk votes. Index i is removed only if at least one
// chunk covers it and every covering chunk succeeded and removed it.
func consensus(n int, votes []chunkVote) []bool {
	covered := make([]int, n)
	agreed := make([]int, n)
	for _, v := range votes {
		for i := v.span.Start; i < v.span.End; i++ {
			covered[i]++
			if v.ok && v.removed[i-v.span.Start] {
				agreed[i]++
			}
		}
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = covered[i] > 0 && agreed[i] == covered[i]
	}
	return out
}

func removedShare(removed []bool) float64 {
	if len(removed) == 0 {
		return 0
	}
	var count int
	for _, r := range removed {
		if r {
			count++
		}
	}
	return float64(count) / float64(len(removed))
}

func groupRemovals(words []transcript.Word, tokens []string, removed []bool, table *FillerTable) []Mistake {
	var out []Mistake
	for i := 0; i < len(removed); {
		if !removed[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(removed) && removed[j+1] {
			j++
		}
		kind, confidence := classifyRemoval(tokens, i, j, table)
		texts := make([]string, 0, j-i+1)
		for k := i; k <= j; k++ {
			texts = append(texts, words[k].Text)
		}
		out = append(out, Mistake{
			Kind:       kind,
			Start:      words[i].Start,
			End:        words[j].End,
			Text:       joinText(texts),
			Reason:     "removed by transcript cleanup",
			Confidence: confidence,
			Sources:    []Source{SourceCleanup},
		})
		i = j + 1
	}
	return out
}

// classifyRemoval names a run of removed tokens [from, to].
func classifyRemoval(tokens []string, from, to int, table *FillerTable) (Kind, float64) {
	span := tokens[from : to+1]
	n := len(span)
	if table != nil && allFiller(span, table) {
		return KindFillerWord, cleanupFillerConfidence
	}
	if n == 1 {
		if (from > 0 && tokens[from-1] == span[0]) || (to+1 < len(tokens) && tokens[to+1] == span[0]) {
			return KindRepeatedWord, cleanupRepeatedWordConfidence
		}
	} else {
		if to+1+n <= len(tokens) && slices.Equal(span, tokens[to+1:to+1+n]) {
			return KindRepeatedPhrase, cleanupRepeatedPhraseConfidence
		}
		if from-n >= 0 && slices.Equal(span, tokens[from-n:from]) {
			return KindRepeatedPhrase, cleanupRepeatedPhraseConfidence
		}
	}
	if table != nil && slices.ContainsFunc(span, table.Correction) {
		return KindSelfCorrection, cleanupSelfCorrectionConfidence
	}
	return KindFalseStart, cleanupFalseStartConfidence
}

// allFiller reports whether span is made only of filler words and phrases.
func allFiller(span []string, table *FillerTable) bool {
	for i := 0; i < len(span); {
		if table.IsFiller(span[i]) {
			i++
			continue
		}
		matched := false
		for _, phrase := range table.Phrases() {
			if i+len(phrase) <= len(span) && slices.Equal(span[i:i+len(phrase)], phrase) {
				i += len(phrase)
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
