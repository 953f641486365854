package ai

import "strings"

const (
	PromptVideo    = "Summarize video and audio from the file"
	PromptPhoto    = "Summarize the image file"
	PromptAudio    = "Transcribe this audio. Use ONLY english alphabet to express hindi. Do not translate.Do not write anything extra than the transcription. Use proper punctuation, and formatting.\n\nIMPORTANT - ROMANISE ALL LANGUAGES TO ENGLISH ALPHABET."
	PromptFallback = "Analyse the file and explain."
)

var defaultMediaPrompts = map[MediaKind]string{
	MediaVideo:     PromptVideo,
	MediaVideoNote: PromptVideo,
	MediaAnimation: PromptVideo,
	MediaPhoto:     PromptPhoto,
	MediaSticker:   PromptPhoto,
	MediaVoice:     PromptAudio,
	MediaAudio:     PromptAudio,
}

// PromptAssembler builds the opening user turn of a conversation.
type PromptAssembler struct {
	mediaPrompts map[MediaKind]string
}

func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{mediaPrompts: defaultMediaPrompts}
}

// DefaultInstruction returns the instruction used when media arrives
// without any text.
func (a *PromptAssembler) DefaultInstruction(kind MediaKind) string {
	if p, ok := a.mediaPrompts[kind]; ok {
		return p
	}
	return PromptFallback
}

func (a *PromptAssembler) Assemble(instruction string, pctx PromptContext, asset *MediaAsset) Turn {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" && asset != nil {
		instruction = a.DefaultInstruction(asset.Kind)
	}

	text := instruction
	if c := contextText(pctx); c != "" {
		text = c + "\n\n" + instruction
	}

	turn := Turn{Role: RoleUser}
	if asset != nil {
		turn.Parts = append(turn.Parts, MediaPart(asset.URI, asset.MIMEType))
	}
	turn.Parts = append(turn.Parts, TextPart(text))
	return turn
}

func contextText(pctx PromptContext) string {
	switch c := pctx.(type) {
	case nil:
		return ""
	case Transcript:
		if c.Empty() {
			return ""
		}
		return c.ContextText()
	default:
		return strings.TrimSpace(c.ContextText())
	}
}
