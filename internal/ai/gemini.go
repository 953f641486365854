package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/mosS-Green/plugins/internal/logger"
)

const functionResponseKey = "result"

type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

var _ Backend = (*GeminiBackend)(nil)

// GeminiBackend adapts the genai SDK to Backend.
type GeminiBackend struct {
	client *genai.Client
	logger logger.Logger
}

func NewGeminiBackend(ctx context.Context, cfg GeminiConfig, l logger.Logger) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", ErrInvalidConfig)
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiBackend{client: client, logger: l}, nil
}

func (g *GeminiBackend) Name() string {
	return ProviderGemini
}

func (g *GeminiBackend) Generate(ctx context.Context, turns []Turn, cfg ModelConfig, tools []ToolDescriptor) (*Response, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, toGenaiContent(turn))
	}

	resp, err := g.client.Models.GenerateContent(ctx, cfg.Model, contents, toGenerateConfig(cfg, tools))
	if err != nil {
		return nil, g.wrapError(err, cfg.Model)
	}
	return fromGenaiResponse(resp), nil
}

func (g *GeminiBackend) Upload(ctx context.Context, path, mimeType string) (*RemoteFile, error) {
	f, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return nil, g.wrapError(err, "")
	}
	return fromGenaiFile(f), nil
}

func (g *GeminiBackend) GetFile(ctx context.Context, name string) (*RemoteFile, error) {
	f, err := g.client.Files.Get(ctx, name, nil)
	if err != nil {
		return nil, g.wrapError(err, "")
	}
	return fromGenaiFile(f), nil
}

func (g *GeminiBackend) DeleteFile(ctx context.Context, name string) error {
	if _, err := g.client.Files.Delete(ctx, name, nil); err != nil {
		return g.wrapError(err, "")
	}
	return nil
}

func (g *GeminiBackend) wrapError(err error, model string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		g.logger.WithFields(logger.Fields{
			"model":  model,
			"code":   apiErr.Code,
			"status": apiErr.Status,
		}).Debug("Gemini API error")
		return NewError(ErrorTypeBackendUnavailable, fmt.Sprintf("gemini %d %s", apiErr.Code, apiErr.Status), err).WithModel(model)
	}
	return NewError(ErrorTypeBackendUnavailable, "gemini request failed", err).WithModel(model)
}

func toGenaiContent(turn Turn) *genai.Content {
	role := genai.RoleUser
	if turn.Role == RoleModel {
		role = genai.RoleModel
	}
	parts := make([]*genai.Part, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		if gp := toGenaiPart(p); gp != nil {
			parts = append(parts, gp)
		}
	}
	return &genai.Content{Role: role, Parts: parts}
}

func toGenaiPart(p Part) *genai.Part {
	switch p.Kind {
	case PartText:
		return &genai.Part{Text: p.Text, Thought: p.Thought, ThoughtSignature: p.Signature}
	case PartMedia:
		if p.Media == nil {
			return nil
		}
		return &genai.Part{FileData: &genai.FileData{FileURI: p.Media.URI, MIMEType: p.Media.MIMEType}}
	case PartFunctionCall:
		if p.Call == nil {
			return nil
		}
		return &genai.Part{
			FunctionCall:     &genai.FunctionCall{ID: p.Call.ID, Name: p.Call.Name, Args: p.Call.Args},
			ThoughtSignature: p.Signature,
		}
	case PartFunctionResult:
		if p.Result == nil {
			return nil
		}
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       p.Result.ID,
			Name:     p.Result.Name,
			Response: map[string]any{functionResponseKey: p.Result.Result},
		}}
	case PartBlob:
		if p.Blob == nil {
			return nil
		}
		return &genai.Part{InlineData: &genai.Blob{Data: p.Blob.Data, MIMEType: p.Blob.MIMEType}}
	}
	return nil
}

func toGenerateConfig(cfg ModelConfig, tools []ToolDescriptor) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature:        cfg.Temperature,
		MaxOutputTokens:    cfg.MaxOutputTokens,
		ResponseModalities: cfg.ResponseModalities,
	}
	if cfg.SystemInstruction != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.SystemInstruction}}}
	}
	if cfg.ThinkingBudget != nil {
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: cfg.ThinkingBudget}
	}
	for _, category := range AllHarmCategories {
		threshold, ok := cfg.SafetyThresholds[category]
		if !ok {
			continue
		}
		gc.SafetySettings = append(gc.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(category),
			Threshold: genai.HarmBlockThreshold(threshold),
		})
	}

	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			})
		}
		gc.Tools = append(gc.Tools, &genai.Tool{FunctionDeclarations: decls})
	}
	if cfg.GoogleSearch {
		gc.Tools = append(gc.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if cfg.URLContext {
		gc.Tools = append(gc.Tools, &genai.Tool{URLContext: &genai.URLContext{}})
	}
	return gc
}

// toGenaiSchema advertises only the schema the model fills in; injected
// caller identity never shows up here.
func toGenaiSchema(p Parameters) *genai.Schema {
	props := make(map[string]*genai.Schema, len(p.Properties))
	for name, prop := range p.Properties {
		props[name] = propertySchema(prop)
	}
	return &genai.Schema{
		Type:       genai.Type(strings.ToUpper(p.Type)),
		Properties: props,
		Required:   p.Required,
	}
}

func propertySchema(p Property) *genai.Schema {
	s := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(p.Type)),
		Description: p.Description,
	}
	// Gemini rejects declarations with an empty enum entry.
	for _, v := range p.Enum {
		if v != "" {
			s.Enum = append(s.Enum, v)
		}
	}
	if p.Items != nil {
		s.Items = propertySchema(*p.Items)
	}
	return s
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	if resp == nil {
		return nil
	}
	out := &Response{}
	if fb := resp.PromptFeedback; fb != nil {
		out.BlockReason = string(fb.BlockReason)
		out.BlockMessage = fb.BlockReasonMessage
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		out.Candidates = append(out.Candidates, fromGenaiCandidate(c))
	}
	return out
}

func fromGenaiCandidate(c *genai.Candidate) Candidate {
	cand := Candidate{FinishReason: string(c.FinishReason)}
	if c.Content != nil {
		for _, gp := range c.Content.Parts {
			if p, ok := fromGenaiPart(gp); ok {
				cand.Parts = append(cand.Parts, p)
			}
		}
	}
	if gm := c.GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			cand.Citations = append(cand.Citations, Citation{Title: chunk.Web.Title, URL: chunk.Web.URI})
		}
	}
	return cand
}

func fromGenaiPart(gp *genai.Part) (Part, bool) {
	switch {
	case gp == nil:
		return Part{}, false
	case gp.FunctionCall != nil:
		p := CallPart(gp.FunctionCall.Name, gp.FunctionCall.Args)
		p.Call.ID = gp.FunctionCall.ID
		p.Signature = gp.ThoughtSignature
		return p, true
	case gp.InlineData != nil:
		return BlobPart(gp.InlineData.Data, gp.InlineData.MIMEType), true
	case gp.FileData != nil:
		return MediaPart(gp.FileData.FileURI, gp.FileData.MIMEType), true
	case gp.Text != "" || len(gp.ThoughtSignature) > 0:
		p := TextPart(gp.Text)
		p.Thought = gp.Thought
		p.Signature = gp.ThoughtSignature
		return p, true
	}
	return Part{}, false
}

func fromGenaiFile(f *genai.File) *RemoteFile {
	if f == nil {
		return &RemoteFile{State: FileStateFailed, Error: "empty file response"}
	}
	rf := &RemoteFile{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		State:    FileState(f.State),
	}
	if f.SizeBytes != nil {
		rf.SizeBytes = *f.SizeBytes
	}
	if f.Error != nil {
		rf.Error = f.Error.Message
	}
	if rf.State == "" {
		rf.State = FileStateActive
	}
	return rf
}
