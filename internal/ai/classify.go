package ai

type OutcomeKind int

const (
	OutcomeMalformed OutcomeKind = iota
	OutcomeBlocked
	OutcomeToolCall
	OutcomeAnswer
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBlocked:
		return "blocked"
	case OutcomeToolCall:
		return "tool_call"
	case OutcomeAnswer:
		return "answer"
	default:
		return "malformed"
	}
}

// Outcome is the classified form of a backend response.
type Outcome struct {
	Kind OutcomeKind
	// Reason explains Blocked and Malformed outcomes.
	Reason string
	// Calls is set for ToolCall outcomes.
	Calls []FunctionCall
	// Candidate is the first candidate for ToolCall and Answer outcomes.
	Candidate *Candidate
	Response  *Response
}

// Classify decides what a response means. A pending function call always wins
// over text in the same candidate.
func Classify(resp *Response) Outcome {
	if resp == nil {
		return Outcome{Kind: OutcomeMalformed, Reason: "empty response"}
	}
	if len(resp.Candidates) == 0 {
		if resp.BlockReason != "" {
			reason := resp.BlockReason
			if resp.BlockMessage != "" {
				reason += ": " + resp.BlockMessage
			}
			return Outcome{Kind: OutcomeBlocked, Reason: reason, Response: resp}
		}
		return Outcome{Kind: OutcomeMalformed, Reason: "no candidates", Response: resp}
	}

	candidate := &resp.Candidates[0]
	if len(candidate.Parts) == 0 {
		return Outcome{Kind: OutcomeMalformed, Reason: "candidate has no parts", Response: resp, Candidate: candidate}
	}

	var calls []FunctionCall
	for _, part := range candidate.Parts {
		if part.Kind == PartFunctionCall && part.Call != nil {
			calls = append(calls, *part.Call)
		}
	}
	if len(calls) > 0 {
		return Outcome{Kind: OutcomeToolCall, Calls: calls, Candidate: candidate, Response: resp}
	}

	return Outcome{Kind: OutcomeAnswer, Candidate: candidate, Response: resp}
}
