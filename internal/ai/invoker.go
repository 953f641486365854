package ai

import (
	"context"
	"time"

	"github.com/mosS-Green/plugins/internal/logger"
)

// ModelInvoker performs one request/response exchange and classifies the result.
type ModelInvoker struct {
	generator Generator
	registry  *ToolRegistry
	logger    logger.Logger
}

func NewModelInvoker(generator Generator, registry *ToolRegistry, l logger.Logger) *ModelInvoker {
	return &ModelInvoker{
		generator: generator,
		registry:  registry,
		logger:    l,
	}
}

func (m *ModelInvoker) Invoke(ctx context.Context, turns []Turn, cfg ModelConfig) (Outcome, error) {
	var tools []ToolDescriptor
	if m.registry != nil {
		tools = m.registry.Advertise(cfg.EnabledTools)
	}

	log := m.logger.WithFields(logger.Fields{
		"model": cfg.Model,
		"turns": len(turns),
		"tools": len(tools),
	})
	log.Debug("Invoking model")

	start := time.Now()
	resp, err := m.generator.Generate(ctx, turns, cfg, tools)
	if err != nil {
		log.WithError(err).Error("Model request failed")
		return Outcome{}, ensureAIError(err, ErrorTypeBackendUnavailable, cfg.Model)
	}

	outcome := Classify(resp)
	log.WithFields(logger.Fields{
		"outcome":  outcome.Kind.String(),
		"duration": time.Since(start).String(),
	}).Debug("Model responded")

	if outcome.Kind == OutcomeMalformed {
		log.WithField("reason", outcome.Reason).Warn("Malformed model response")
		return outcome, NewError(ErrorTypeMalformedResponse, outcome.Reason, nil).WithModel(cfg.Model)
	}
	return outcome, nil
}
