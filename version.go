package waygate

import _ "embed"

// Version is the library version, surfaced by the CLI and the MCP server.
const Version = "0.4.1"

// OpenAPISpec is the HTTP adapter's contract document, embedded so the
// server can serve it and `waygate validate` can check it without knowing
// the working directory.
//
//go:embed api/openapi.yaml
var OpenAPISpec []byte
