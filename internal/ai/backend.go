package ai

import "context"

type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// RemoteFile is the backend's view of an uploaded media file.
type RemoteFile struct {
	Name      string
	URI       string
	MIMEType  string
	SizeBytes int64
	State     FileState
	Error     string
}

type Candidate struct {
	Parts        []Part
	FinishReason string
	Citations    []Citation
}

type Response struct {
	Candidates  []Candidate
	BlockReason string
	// BlockMessage is an optional human readable explanation for BlockReason.
	BlockMessage string
}

type Generator interface {
	Generate(ctx context.Context, turns []Turn, cfg ModelConfig, tools []ToolDescriptor) (*Response, error)
}

type FileService interface {
	Upload(ctx context.Context, path, mimeType string) (*RemoteFile, error)
	GetFile(ctx context.Context, name string) (*RemoteFile, error)
	DeleteFile(ctx context.Context, name string) error
}

// Backend is everything the orchestrator needs from a model provider.
type Backend interface {
	Generator
	FileService
	Name() string
}
