package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment, after loading .env.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	TokenFile    string `env:"TOKEN_FILE" envDefault:".bottoken"`
	// ClientID is used for the invite link. It defaults to the bot's user ID.
	ClientID string `env:"CLIENT_ID"`

	BotName      string        `env:"BOT_NAME" envDefault:"b3Bot"`
	BypassUserID string        `env:"BYPASS_USER_ID" envDefault:"133057442425602048"`
	Prefix       string        `env:"COMMAND_PREFIX" envDefault:"!"`
	CleanupDelay time.Duration `env:"CLEANUP_DELAY" envDefault:"30s"`
	NapDuration  time.Duration `env:"NAP_DURATION" envDefault:"5s"`

	PasteURL     string        `env:"PASTE_URL" envDefault:"https://ptpb.pw"`
	PasteTimeout time.Duration `env:"PASTE_TIMEOUT" envDefault:"15s"`

	TranscriptDir string  `env:"TRANSCRIPT_DIR" envDefault:"."`
	PurgeRate     float64 `env:"PURGE_RATE" envDefault:"5"`

	YouTubeProxy string `env:"YOUTUBE_PROXY"`
	MetricsAddr  string `env:"METRICS_ADDR"`

	MessageLogPath    string `env:"MESSAGE_LOG_PATH"`
	MessageLogMaxMB   int    `env:"MESSAGE_LOG_MAX_MB" envDefault:"10"`
	MessageLogBackups int    `env:"MESSAGE_LOG_BACKUPS" envDefault:"5"`
}

// ErrNoToken is returned when neither DISCORD_TOKEN nor the token file
// provides a credential.
var ErrNoToken = errors.New("no discord token configured")

// New loads .env if present, parses the environment and resolves the token.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}
	return Parse(env.Options{})
}

// Parse reads the configuration using opts, which tests use to supply their
// own environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DiscordToken == "" {
		token, clientID, err := ReadTokenFile(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		cfg.DiscordToken = token
		if cfg.ClientID == "" {
			cfg.ClientID = clientID
		}
	}
	if cfg.Prefix == "" {
		return nil, errors.New("COMMAND_PREFIX must not be empty")
	}
	return &cfg, nil
}

// ReadTokenFile reads "token [client-id]" from path.
func ReadTokenFile(path string) (token, clientID string, err error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("%w: set DISCORD_TOKEN or create %s", ErrNoToken, path)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read token file: %w", err)
	}
	fields := strings.Fields(string(b))
	switch len(fields) {
	case 0:
		return "", "", fmt.Errorf("%w: %s is empty", ErrNoToken, path)
	case 1:
		return fields[0], "", nil
	default:
		return fields[0], fields[1], nil
	}
}
