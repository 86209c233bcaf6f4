package secrets

// KeySpec defines how to resolve a specific secret.
type KeySpec struct {
	// EnvVars lists environment variables to check, in priority order.
	EnvVars []string

	// Desc is a human-readable description for error messages and CLI display.
	Desc string
}

// Canonical secret names.
const (
	TelegramToken = "telegram_token"
	GitHubToken   = "github_token"
)

// knownKeys maps secret names to their resolution specs.
var knownKeys = map[string]KeySpec{
	TelegramToken: {
		EnvVars: []string{"TELEGRAM_BOT_TOKEN", "TG_TOKEN"},
		Desc:    "Telegram bot token from @BotFather",
	},
	GitHubToken: {
		EnvVars: []string{"GITHUB_TOKEN", "GH_TOKEN"},
		Desc:    "GitHub token with actions:write on the dump repository",
	},
}
