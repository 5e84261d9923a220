// Package relay turns one user message into one model reply.
//
// The root package holds the domain types, the store and completion
// interfaces, and the message pipeline. Adapters live in subpackages named
// after the dependency they wrap (gemini, sqlite, redis, json, file).
package relay

const (
	// DefaultSystemPrompt is used whenever no prompt is configured.
	DefaultSystemPrompt = "あなたは優しい相談相手です。親身になって会話をしてください。200文字程度"

	// FallbackReply is the only text a user sees when processing fails.
	FallbackReply = "すみません、一時的な問題が発生しています。しばらくしてからもう一度お試しください。"

	// APIKeyProperty names the secret property holding the Gemini API key.
	APIKeyProperty = "GEMINI_API_KEY"

	// DefaultPromptSheet, DefaultPromptCell and DefaultLogSheet locate the
	// prompt and the exchange log in tabular stores.
	DefaultPromptSheet = "プロンプトシート"
	DefaultPromptCell  = "A1"
	DefaultLogSheet    = "ログシート"
)
