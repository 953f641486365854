package ai

import (
	"context"
	"time"

	"github.com/mosS-Green/plugins/internal/logger"
)

type AskRequest struct {
	Instruction  string
	Context      PromptContext
	Media        MediaReference
	Config       ModelConfig
	Quote        bool
	AddCitations bool
	Caller       Caller
}

type Orchestrator struct {
	ingestor   *MediaIngestor
	assembler  *PromptAssembler
	loop       *ToolDispatchLoop
	mediaLimit int64
	logger     logger.Logger
}

type OrchestratorOptions struct {
	MediaLimit int64
}

func NewOrchestrator(
	ingestor *MediaIngestor,
	assembler *PromptAssembler,
	loop *ToolDispatchLoop,
	opts OrchestratorOptions,
	l logger.Logger,
) *Orchestrator {
	if opts.MediaLimit <= 0 {
		opts.MediaLimit = DefaultMediaSizeLimit
	}
	return &Orchestrator{
		ingestor:   ingestor,
		assembler:  assembler,
		loop:       loop,
		mediaLimit: opts.MediaLimit,
		logger:     l,
	}
}

// Ask runs one request end to end. A malformed backend answer is reported as
// the failure sentinel rather than an error; every other failure is an *AIError
// or a context error.
func (o *Orchestrator) Ask(ctx context.Context, req AskRequest) (*AnswerResult, error) {
	cfg := req.Config.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := o.logger.WithFields(logger.Fields{
		"model":     cfg.Model,
		"user_id":   req.Caller.UserID,
		"chat_id":   req.Caller.ChatID,
		"has_media": req.Media != nil,
	})
	start := time.Now()

	var asset *MediaAsset
	if req.Media != nil {
		a, release, err := o.ingestor.Ingest(ctx, req.Media, o.mediaLimit)
		defer release()
		if err != nil {
			log.WithError(err).Warn("Media ingestion failed")
			return nil, err
		}
		asset = a
	}

	turn := o.assembler.Assemble(req.Instruction, req.Context, asset)
	res, err := o.loop.Run(ctx, Conversation{turn}, cfg, req.Caller)
	if err != nil {
		if IsErrorType(err, ErrorTypeMalformedResponse) {
			log.WithError(err).Warn("Returning failure text for malformed response")
			answer := AnswerResult{Text: Format(FailureText, req.Quote)}
			return &answer, nil
		}
		return nil, err
	}

	answer := Extract(res.Answer.Candidate, req.AddCitations)
	answer.Text = Format(answer.Text, req.Quote)

	log.WithFields(logger.Fields{
		"invocations": res.Invocations,
		"tool_rounds": res.ToolRounds,
		"has_image":   answer.HasImage(),
		"duration":    time.Since(start).String(),
	}).Info("Ask completed")
	return &answer, nil
}
