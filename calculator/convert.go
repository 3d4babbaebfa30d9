package calculator

import (
	"github.com/vajain-rhods/openvino-model-server/api"
	"github.com/vajain-rhods/openvino-model-server/pipeline"
)

// toPipelineConfig adapts the HTTP-facing derived parameter bundle to the
// engine-facing GenerationConfig, keeping the two packages independent.
func toPipelineConfig(cfg api.GenerationConfig) pipeline.GenerationConfig {
	return pipeline.GenerationConfig{
		NumGroups:          cfg.NumGroups,
		GroupSize:          cfg.GroupSize,
		NumReturnSequences: cfg.NumReturnSequences,
		DoSample:           cfg.DoSample,
		MaxTokens:          cfg.MaxTokens,
		Temperature:        cfg.Temperature,
		TopP:               cfg.TopP,
		TopK:               cfg.TopK,
		RepetitionPenalty:  cfg.RepetitionPenalty,
		LengthPenalty:      cfg.LengthPenalty,
		DiversityPenalty:   cfg.DiversityPenalty,
		Seed:               cfg.Seed,
		IgnoreEOS:          cfg.IgnoreEOS,
	}
}
