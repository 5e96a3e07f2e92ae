package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"commentary-ai/internal/category"
	"commentary-ai/internal/types"
	"commentary-ai/log"
	"commentary-ai/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxSummaryLabels  = 12
	maxSummaryObjects = 12
	maxSummaryTags    = 8
)

// Analyzer fans sampled frames out to the vision capability and folds the
// per-frame results into one ContentSummary. Implements
// types.ContentAnalyzer.
type Analyzer struct {
	vision              types.VisionAnalyzer
	table               *category.Table
	concurrency         int
	maxRetries          int
	perCallTimeout      time.Duration
	limiter             *rate.Limiter
	confidenceThreshold float64
}

func NewAnalyzer(vision types.VisionAnalyzer, table *category.Table, concurrency, maxRetries int, perCallTimeout time.Duration, limiter *rate.Limiter, confidenceThreshold float64) *Analyzer {
	return &Analyzer{
		vision:              vision,
		table:               table,
		concurrency:         concurrency,
		maxRetries:          maxRetries,
		perCallTimeout:      perCallTimeout,
		limiter:             limiter,
		confidenceThreshold: confidenceThreshold,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, frames []types.Frame) (types.ContentSummary, error) {
	if len(frames) == 0 {
		return types.ContentSummary{}, errors.ErrAnalysisUnavailable
	}

	results, err := fanOut(ctx, len(frames), a.concurrency, a.limiter, a.maxRetries, a.perCallTimeout,
		func(callCtx context.Context, index int) (types.FrameAnalysis, error) {
			analysis, callErr := a.vision.AnalyzeImage(callCtx, frames[index].Path)
			if callErr != nil {
				return types.FrameAnalysis{}, callErr
			}
			analysis.FrameIndex = frames[index].Index
			return analysis, nil
		})
	if err != nil {
		return types.ContentSummary{}, err
	}

	analyses := make([]types.FrameAnalysis, 0, len(results))
	var lastErr error
	for _, r := range results {
		if r.Err != nil {
			// Dropped frames are tolerable as long as any frame succeeds.
			log.GetLogger().Warn("frame analysis dropped",
				zap.Int("frame", r.Index), zap.Error(r.Err))
			lastErr = r.Err
			continue
		}
		analyses = append(analyses, r.Value)
	}
	if len(analyses) == 0 {
		return types.ContentSummary{}, errors.Wrap(errors.CodeAnalysisUnavailable, "content analysis failed for every frame", lastErr)
	}

	summary := aggregateAnalyses(analyses, len(frames))
	summary.Category = a.table.Infer(summary.Labels, a.confidenceThreshold)

	log.GetLogger().Info("content analysis complete",
		zap.Int("frames_analyzed", summary.FramesAnalyzed),
		zap.Int("frames_dropped", summary.FramesDropped),
		zap.String("category", string(summary.Category)))
	return summary, nil
}

// aggregateAnalyses merges per-frame labels and objects by
// frequency-weighted confidence. Deterministic: results are sorted by
// weight then name, so frame order never changes the outcome.
func aggregateAnalyses(analyses []types.FrameAnalysis, totalFrames int) types.ContentSummary {
	labelWeights := map[string]float64{}
	objectWeights := map[string]float64{}
	tagCounts := map[string]int{}

	for _, analysis := range analyses {
		for _, label := range analysis.Labels {
			name := strings.ToLower(strings.TrimSpace(label.Name))
			if name == "" {
				continue
			}
			labelWeights[name] += label.Confidence
		}
		for _, object := range analysis.Objects {
			name := strings.ToLower(strings.TrimSpace(object.Name))
			if name == "" {
				continue
			}
			objectWeights[name] += object.Confidence
		}
		for _, tag := range analysis.SceneTags {
			name := strings.ToLower(strings.TrimSpace(tag))
			if name == "" {
				continue
			}
			tagCounts[name]++
		}
	}

	frameCount := float64(len(analyses))
	return types.ContentSummary{
		Labels:         rankWeights(labelWeights, frameCount, maxSummaryLabels),
		Objects:        rankWeights(objectWeights, frameCount, maxSummaryObjects),
		SceneTags:      rankCounts(tagCounts, maxSummaryTags),
		FramesAnalyzed: len(analyses),
		FramesDropped:  totalFrames - len(analyses),
	}
}

func rankWeights(weights map[string]float64, frameCount float64, limit int) []types.Label {
	ranked := make([]types.Label, 0, len(weights))
	for name, weight := range weights {
		confidence := weight / frameCount
		if confidence > 1 {
			confidence = 1
		}
		ranked = append(ranked, types.Label{Name: name, Confidence: confidence})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankCounts(counts map[string]int, limit int) []string {
	type tagCount struct {
		name  string
		count int
	}
	ranked := make([]tagCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, tagCount{name: name, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	names := make([]string, len(ranked))
	for i, tc := range ranked {
		names[i] = tc.name
	}
	return names
}
