package ai

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type PartKind int

const (
	PartText PartKind = iota
	PartMedia
	PartFunctionCall
	PartFunctionResult
	PartBlob
)

func (k PartKind) String() string {
	switch k {
	case PartText:
		return "text"
	case PartMedia:
		return "media"
	case PartFunctionCall:
		return "function_call"
	case PartFunctionResult:
		return "function_result"
	case PartBlob:
		return "blob"
	default:
		return fmt.Sprintf("part(%d)", int(k))
	}
}

type MediaRef struct {
	// URI is the backend handle returned after upload.
	URI      string
	MIMEType string
}

type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
}

type FunctionResult struct {
	ID     string
	Name   string
	Result string
}

type Blob struct {
	Data     []byte
	MIMEType string
}

// Part is one element of a turn. Kind selects which of the payload fields is set.
type Part struct {
	Kind   PartKind
	Text   string
	Media  *MediaRef
	Call   *FunctionCall
	Result *FunctionResult
	Blob   *Blob

	// Thought marks reasoning text that must not reach the user.
	Thought bool
	// Signature is an opaque backend token that must be echoed with the part.
	Signature []byte
}

func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

func MediaPart(uri, mimeType string) Part {
	return Part{Kind: PartMedia, Media: &MediaRef{URI: uri, MIMEType: mimeType}}
}

func CallPart(name string, args map[string]any) Part {
	return Part{Kind: PartFunctionCall, Call: &FunctionCall{Name: name, Args: args}}
}

func ResultPart(name, result string) Part {
	return Part{Kind: PartFunctionResult, Result: &FunctionResult{Name: name, Result: result}}
}

func BlobPart(data []byte, mimeType string) Part {
	return Part{Kind: PartBlob, Blob: &Blob{Data: data, MIMEType: mimeType}}
}

type Turn struct {
	Role  string
	Parts []Part
}

func (t Turn) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range t.Parts {
		if p.Kind == PartFunctionCall && p.Call != nil {
			calls = append(calls, *p.Call)
		}
	}
	return calls
}

// Conversation is the ordered turn history of a single request.
type Conversation []Turn

func (c Conversation) Append(turns ...Turn) Conversation {
	return append(c, turns...)
}

// Validate checks that every tool turn answers the model turn right before it,
// one result per call, matched by name and position.
func (c Conversation) Validate() error {
	for i, turn := range c {
		if !slices.Contains(SupportedRoles, turn.Role) {
			return fmt.Errorf("turn %d: unsupported role %q", i, turn.Role)
		}
		if turn.Role != RoleTool {
			continue
		}
		if i == 0 || c[i-1].Role != RoleModel {
			return fmt.Errorf("turn %d: tool turn must follow a model turn", i)
		}
		calls := c[i-1].FunctionCalls()
		if len(calls) == 0 {
			return fmt.Errorf("turn %d: preceding model turn has no function calls", i)
		}
		if len(calls) != len(turn.Parts) {
			return fmt.Errorf("turn %d: %d results for %d calls", i, len(turn.Parts), len(calls))
		}
		for j, part := range turn.Parts {
			if part.Kind != PartFunctionResult || part.Result == nil {
				return fmt.Errorf("turn %d part %d: expected function result, got %s", i, j, part.Kind)
			}
			if part.Result.Name != calls[j].Name {
				return fmt.Errorf("turn %d part %d: result %q does not match call %q", i, j, part.Result.Name, calls[j].Name)
			}
		}
	}
	return nil
}

type Citation struct {
	Title string
	URL   string
}

// AnswerResult is the final product of one Ask call.
type AnswerResult struct {
	Text          string
	Image         []byte
	ImageMIMEType string
	Citations     []Citation
}

func (r AnswerResult) HasImage() bool {
	return len(r.Image) > 0
}

type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaVideoNote MediaKind = "video_note"
	MediaAnimation MediaKind = "animation"
	MediaVoice     MediaKind = "voice"
	MediaAudio     MediaKind = "audio"
	MediaDocument  MediaKind = "document"
	MediaSticker   MediaKind = "sticker"
)

type AssetState string

const (
	AssetDownloaded AssetState = "downloaded"
	AssetUploaded   AssetState = "uploaded"
	AssetReady      AssetState = "ready"
)

type MediaAsset struct {
	Kind       MediaKind
	LocalPath  string
	RemoteName string
	URI        string
	MIMEType   string
	SizeBytes  int64
	State      AssetState
}

// Caller identifies who triggered the request.
type Caller struct {
	UserID    int64
	ChatID    int64
	FirstName string
	Username  string
}

// PromptContext is extra text placed before the instruction.
type PromptContext interface {
	ContextText() string
}

type TextContext string

func (t TextContext) ContextText() string {
	return string(t)
}

type TranscriptLine struct {
	Author string
	Text   string
}

// Transcript is a slice of chat history rendered as a delimited block.
type Transcript struct {
	Lines []TranscriptLine
}

func (t Transcript) Empty() bool {
	return len(t.Lines) == 0
}

func (t Transcript) ContextText() string {
	lines := make([]string, 0, len(t.Lines))
	for _, line := range t.Lines {
		lines = append(lines, fmt.Sprintf("[%s]: %s", line.Author, line.Text))
	}
	return "[Conversation Start]\n" + strings.Join(lines, "\n\n") + "\n[Conversation End]"
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return maps.Clone(args)
}
