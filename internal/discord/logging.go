package discord

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewMessageLog returns the logger that records every message the bot sees.
// With an empty path it writes to stderr; otherwise to a size-rotated file.
func NewMessageLog(path string, maxMB, backups int) (*log.Logger, io.Closer) {
	if path == "" {
		return log.New(os.Stderr, "", log.LstdFlags), io.NopCloser(nil)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: backups,
		Compress:   true,
	}
	log.Printf("[INFO] Logging messages to %s", path)
	return log.New(w, "", log.LstdFlags), w
}
