// Package gemini implements [relay.Completer] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Each call sends exactly one
// generateContent request with fixed generation parameters and maps the
// outcome to a reply string, a [relay.APIError], or a [relay.TransportError].
package gemini

const (
	defaultModel      = "gemini-2.5-flash-lite"
	defaultAPIVersion = "v1"

	temperature     float32 = 0.7
	maxOutputTokens int32   = 1024

	apiKeyHeader = "x-goog-api-key"
	apiKeyParam  = "key"
)
