package docs

import (
	_ "embed"
)

// ServerInstructions is sent to MCP clients on initialize. It explains how
// the tools relate to the server's long-lived session.
//
//go:embed prompts/server_instructions.md
var ServerInstructions string
