package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"
	"commentary-ai/pkg/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Hard bounds on the proportional rescale: drift past these means the
// response is rejected rather than stretched beyond recognition.
const (
	rescaleMinRatio = 0.5
	rescaleMaxRatio = 2.0
)

// Scripter turns a ContentSummary into a timed narration script through a
// single structured LLM call. Implements types.ScriptGenerator.
type Scripter struct {
	chat           types.ChatCompleter
	maxRetries     int
	tolerancePct   float64
	perCallTimeout time.Duration
}

func NewScripter(chat types.ChatCompleter, maxRetries int, tolerancePct float64, perCallTimeout time.Duration) *Scripter {
	if tolerancePct <= 0 {
		tolerancePct = 15
	}
	return &Scripter{
		chat:           chat,
		maxRetries:     maxRetries,
		tolerancePct:   tolerancePct,
		perCallTimeout: perCallTimeout,
	}
}

func (s *Scripter) Generate(ctx context.Context, summary types.ContentSummary, targetTotalDuration float64) (types.Script, error) {
	if targetTotalDuration <= 0 {
		return types.Script{}, errors.New(errors.CodeInvalidParams, "target duration must be positive")
	}

	prompt := buildScriptPrompt(summary, targetTotalDuration, s.tolerancePct)
	systemPrompt := "You write tightly timed voice-over scripts and always answer with strict JSON."

	var lastErr error
	userPrompt := prompt
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return types.Script{}, errors.Wrap(errors.CodeCancelled, "script generation cancelled", ctx.Err())
		}

		response, err := s.complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return types.Script{}, errors.Wrap(errors.CodeCancelled, "script generation cancelled", ctx.Err())
			}
			if errors.IsRetryable(err) {
				log.GetLogger().Warn("retrying script generation",
					zap.Int("attempt", attempt+1), zap.Error(err))
				select {
				case <-ctx.Done():
					return types.Script{}, errors.Wrap(errors.CodeCancelled, "script generation cancelled", ctx.Err())
				case <-time.After(backoffDelay(attempt)):
				}
				continue
			}
			return types.Script{}, errors.Wrap(errors.CodeScriptGenerationFailed, "script generation failed", err)
		}

		segments, err := parseScript(response)
		if err == nil {
			err = validateScript(segments, targetTotalDuration, s.tolerancePct)
		}
		if err != nil {
			lastErr = err
			log.GetLogger().Warn("script response rejected",
				zap.Int("attempt", attempt+1), zap.Error(err))
			// Malformed output is never resent blindly; the follow-up
			// names what was wrong.
			userPrompt = prompt + fmt.Sprintf(types.RepromptSuffix, errors.GetMessage(err))
			continue
		}

		script := types.Script{Segments: rescaleSegments(segments, targetTotalDuration)}
		script.TotalDuration = lo.SumBy(script.Segments, func(seg types.ScriptSegment) float64 {
			return seg.TargetDuration
		})
		log.GetLogger().Info("script generated",
			zap.Int("segments", len(script.Segments)),
			zap.Float64("total_duration", script.TotalDuration))
		return script, nil
	}

	return types.Script{}, errors.Wrap(errors.CodeScriptGenerationFailed, "script generation failed after retries", lastErr)
}

// complete runs one chat call under the per-call timeout. A deadline hit
// counts as a transient provider error for retry purposes.
func (s *Scripter) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if s.perCallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.perCallTimeout)
	}
	defer cancel()

	response, err := s.chat.ChatCompletion(callCtx, systemPrompt, userPrompt)
	if err != nil && ctx.Err() == nil && callCtx.Err() == context.DeadlineExceeded {
		return "", errors.Wrap(errors.CodeProviderTransient, "chat call timed out", err)
	}
	return response, err
}

func buildScriptPrompt(summary types.ContentSummary, targetTotalDuration, tolerancePct float64) string {
	var content strings.Builder
	content.WriteString("Top labels: ")
	content.WriteString(strings.Join(lo.Map(summary.Labels, func(l types.Label, _ int) string {
		return fmt.Sprintf("%s (%.2f)", l.Name, l.Confidence)
	}), ", "))
	if len(summary.Objects) > 0 {
		content.WriteString("\nVisible objects: ")
		content.WriteString(strings.Join(lo.Map(summary.Objects, func(l types.Label, _ int) string {
			return l.Name
		}), ", "))
	}
	if len(summary.SceneTags) > 0 {
		content.WriteString("\nScene mood: ")
		content.WriteString(strings.Join(summary.SceneTags, ", "))
	}

	return fmt.Sprintf(types.ScriptPrompt,
		types.PersonaFor(summary.Category),
		content.String(),
		targetTotalDuration,
		tolerancePct)
}

func parseScript(response string) ([]types.ScriptSegment, error) {
	raw := util.ExtractJsonFromText(response)
	var segments []types.ScriptSegment
	if err := json.Unmarshal([]byte(raw), &segments); err != nil {
		return nil, errors.Wrap(errors.CodeProviderResponseMalformed, "script response is not a JSON array of segments", err)
	}
	return segments, nil
}

// validateScript enforces the segment invariants: contiguous indexes from
// 0, non-empty text, positive durations, and a total within tolerance of
// the target.
func validateScript(segments []types.ScriptSegment, targetTotalDuration, tolerancePct float64) error {
	if len(segments) == 0 {
		return errors.New(errors.CodeScriptInvalid, "script has no segments")
	}

	total := 0.0
	for i, seg := range segments {
		if seg.Index != i {
			return errors.New(errors.CodeScriptInvalid,
				fmt.Sprintf("segment indexes must be contiguous from 0, got %d at position %d", seg.Index, i))
		}
		if strings.TrimSpace(seg.Text) == "" {
			return errors.New(errors.CodeScriptInvalid, fmt.Sprintf("segment %d has empty text", i))
		}
		if seg.TargetDuration <= 0 {
			return errors.New(errors.CodeScriptInvalid, fmt.Sprintf("segment %d has non-positive duration", i))
		}
		total += seg.TargetDuration
	}

	drift := math.Abs(total-targetTotalDuration) / targetTotalDuration * 100
	if drift > tolerancePct {
		return errors.New(errors.CodeScriptInvalid,
			fmt.Sprintf("segment durations sum to %.1fs, outside %.0f%% of the %.1fs target", total, tolerancePct, targetTotalDuration))
	}

	ratio := targetTotalDuration / total
	if ratio < rescaleMinRatio || ratio > rescaleMaxRatio {
		return errors.New(errors.CodeScriptInvalid,
			fmt.Sprintf("rescale ratio %.2f outside [%.1f, %.1f]", ratio, rescaleMinRatio, rescaleMaxRatio))
	}
	return nil
}

// rescaleSegments closes small drift deterministically: every duration is
// multiplied by the exact ratio target/sum.
func rescaleSegments(segments []types.ScriptSegment, targetTotalDuration float64) []types.ScriptSegment {
	total := lo.SumBy(segments, func(seg types.ScriptSegment) float64 {
		return seg.TargetDuration
	})
	if total <= 0 {
		return segments
	}
	ratio := targetTotalDuration / total

	rescaled := make([]types.ScriptSegment, len(segments))
	for i, seg := range segments {
		seg.TargetDuration = seg.TargetDuration * ratio
		rescaled[i] = seg
	}
	return rescaled
}
