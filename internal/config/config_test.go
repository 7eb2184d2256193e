package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/go-cmp/cmp"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{"DISCORD_TOKEN": "abc"}})
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		DiscordToken:      "abc",
		TokenFile:         ".bottoken",
		BotName:           "b3Bot",
		BypassUserID:      "133057442425602048",
		Prefix:            "!",
		CleanupDelay:      30 * time.Second,
		NapDuration:       5 * time.Second,
		PasteURL:          "https://ptpb.pw",
		PasteTimeout:      15 * time.Second,
		TranscriptDir:     ".",
		PurgeRate:         5,
		MessageLogMaxMB:   10,
		MessageLogBackups: 5,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestTokenFile(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name     string
		contents string
		token    string
		clientID string
	}{
		{"token only", "abc.def\n", "abc.def", ""},
		{"token and client", "abc.def 1234\n", "abc.def", "1234"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(dir, c.name)
			if err := os.WriteFile(path, []byte(c.contents), 0o600); err != nil {
				t.Fatal(err)
			}
			cfg, err := Parse(env.Options{Environment: map[string]string{"TOKEN_FILE": path}})
			if err != nil {
				t.Fatal(err)
			}
			if cfg.DiscordToken != c.token || cfg.ClientID != c.clientID {
				t.Errorf("want %q %q, got %q %q", c.token, c.clientID, cfg.DiscordToken, cfg.ClientID)
			}
		})
	}
}

func TestNoToken(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{filepath.Join(dir, "missing"), empty} {
		_, err := Parse(env.Options{Environment: map[string]string{"TOKEN_FILE": path}})
		if !errors.Is(err, ErrNoToken) {
			t.Errorf("%s: want ErrNoToken, got %v", path, err)
		}
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{
		"DISCORD_TOKEN":  "abc",
		"BOT_NAME":       "testBot",
		"CLEANUP_DELAY":  "1m",
		"COMMAND_PREFIX": "?",
		"PURGE_RATE":     "0.5",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotName != "testBot" || cfg.CleanupDelay != time.Minute || cfg.Prefix != "?" || cfg.PurgeRate != 0.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}
