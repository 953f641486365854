package ai

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mosS-Green/plugins/internal/logger"
)

type DispatchOptions struct {
	MaxTurns    int
	ToolTimeout time.Duration
}

// ToolDispatchLoop drives the model until it stops asking for tools.
type ToolDispatchLoop struct {
	invoker  *ModelInvoker
	registry *ToolRegistry
	opts     DispatchOptions
	logger   logger.Logger
}

func NewToolDispatchLoop(invoker *ModelInvoker, registry *ToolRegistry, opts DispatchOptions, l logger.Logger) *ToolDispatchLoop {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxToolTurns
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	return &ToolDispatchLoop{
		invoker:  invoker,
		registry: registry,
		opts:     opts,
		logger:   l,
	}
}

// LoopResult is the terminal answer plus the history that produced it.
type LoopResult struct {
	Answer      Outcome
	History     Conversation
	Invocations int
	ToolRounds  int
}

func (l *ToolDispatchLoop) Run(ctx context.Context, history Conversation, cfg ModelConfig, caller Caller) (*LoopResult, error) {
	log := l.logger.WithFields(logger.Fields{
		"model":   cfg.Model,
		"user_id": caller.UserID,
	})

	result := &LoopResult{History: history}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := l.invoker.Invoke(ctx, result.History, cfg)
		result.Invocations++
		if err != nil {
			return result, err
		}

		switch outcome.Kind {
		case OutcomeBlocked:
			log.WithField("reason", outcome.Reason).Warn("Prompt blocked")
			return result, NewError(ErrorTypeBlocked, outcome.Reason, nil).WithModel(cfg.Model)
		case OutcomeAnswer:
			result.Answer = outcome
			log.WithFields(logger.Fields{
				"invocations": result.Invocations,
				"tool_rounds": result.ToolRounds,
			}).Debug("Dispatch loop finished")
			return result, nil
		case OutcomeToolCall:
			if result.ToolRounds >= l.opts.MaxTurns {
				log.WithField("max_turns", l.opts.MaxTurns).Warn("Tool turn ceiling reached")
				return result, NewError(
					ErrorTypeTurnCeiling,
					fmt.Sprintf("model still requested tools after %d rounds", l.opts.MaxTurns),
					nil,
				).WithModel(cfg.Model)
			}
			result.ToolRounds++

			modelTurn := Turn{Role: RoleModel, Parts: outcome.Candidate.Parts}
			toolTurn := l.executeBatch(ctx, outcome.Calls, caller, log.WithField("round", result.ToolRounds))
			result.History = result.History.Append(modelTurn, toolTurn)
		default:
			return result, NewError(ErrorTypeMalformedResponse, outcome.Reason, nil).WithModel(cfg.Model)
		}
	}
}

// executeBatch runs every call of one model turn concurrently and returns a
// tool turn whose results line up with the calls by position.
func (l *ToolDispatchLoop) executeBatch(ctx context.Context, calls []FunctionCall, caller Caller, log logger.Logger) Turn {
	type toolResult struct {
		index int
		part  Part
	}

	resultChan := make(chan toolResult, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, call FunctionCall) {
			defer wg.Done()
			text := l.executeCall(ctx, call, caller, log.WithField("tool", call.Name))
			part := ResultPart(call.Name, text)
			part.Result.ID = call.ID
			resultChan <- toolResult{index: idx, part: part}
		}(i, call)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	parts := make([]Part, len(calls))
	for result := range resultChan {
		parts[result.index] = result.part
	}

	return Turn{Role: RoleTool, Parts: parts}
}

func (l *ToolDispatchLoop) executeCall(ctx context.Context, call FunctionCall, caller Caller, log logger.Logger) string {
	desc, err := l.registry.Resolve(call.Name)
	if err != nil {
		log.WithField("error_type", ErrorTypeUnknownTool).Warn("Model requested unknown tool")
		return fmt.Sprintf(UnknownFunctionFmt, call.Name)
	}

	args := cloneArgs(call.Args)
	if desc.NeedsCallerIdentity {
		if _, ok := args[CallerIdentityParam]; !ok {
			args[CallerIdentityParam] = caller.UserID
		}
	}
	for _, name := range desc.Required() {
		if _, ok := args[name]; !ok {
			err := fmt.Errorf("missing required argument %q", name)
			log.WithError(err).WithField("error_type", ErrorTypeToolExecutionFailed).Warn("Tool call rejected")
			return fmt.Sprintf(ToolErrorFmt, call.Name, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.ToolTimeout)
	defer cancel()

	type handlerResult struct {
		out string
		err error
	}
	// Buffered so a handler that outlives its deadline does not block on send.
	done := make(chan handlerResult, 1)

	start := time.Now()
	log.WithField("args", args).Info("Running tool...")
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("error_type", ErrorTypeToolExecutionFailed).Error(fmt.Sprintf("recovered from panic: %v", r))
				done <- handlerResult{err: fmt.Errorf("%v", r)}
			}
		}()
		out, err := desc.Handler(ctx, args)
		done <- handlerResult{out: out, err: err}
	}()

	var res handlerResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		log.WithError(res.err).WithField("error_type", ErrorTypeToolExecutionFailed).Error("Tool execution failed")
		return fmt.Sprintf(ToolErrorFmt, call.Name, res.err)
	}
	log.WithField("duration", time.Since(start).String()).Debug("Tool finished")
	if res.out == "" {
		return fmt.Sprintf(ToolErrorFmt, call.Name, ErrEmptyToolResult)
	}
	return res.out
}

// Int64Arg reads an integer argument that may arrive as a JSON number,
// a Go integer or a decimal string.
func Int64Arg(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", key, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("argument %q has unsupported type %T", key, v)
	}
}

// StringArg reads a string argument; missing values yield "".
func StringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
