package ai

import "time"

const (
	ProviderGemini = "gemini"

	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

var SupportedRoles = []string{
	RoleUser,
	RoleModel,
	RoleTool,
}

const (
	DefaultMediaSizeLimit       int64 = 25 * 1024 * 1024
	DefaultPollInterval               = 5 * time.Second
	DefaultPollTimeout                = 5 * time.Minute
	DefaultMaxToolTurns               = 8
	DefaultToolTimeout                = 30 * time.Second
	DefaultRemoteCleanupTimeout       = 15 * time.Second

	// CallerIdentityParam is the tool argument filled from the request caller
	// for tools that declare NeedsCallerIdentity.
	CallerIdentityParam = "user_id"

	FailureText        = "`Query failed... Try again`"
	UnknownFunctionFmt = "Unknown function '%s'"
	ToolErrorFmt       = "Error executing %s: %v"
	SourcesPrefix      = "\n\nSources: "
	SourcesSeparator   = " | "

	QuoteOpen  = "**>\n"
	QuoteClose = "<**"
	CodeFence  = "```"
)

const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)
