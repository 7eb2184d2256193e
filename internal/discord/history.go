package discord

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"b3bot/internal/chat"
	"b3bot/pkg/retrylimit"
)

// discordEpoch is the first millisecond of 2015 in Unix milliseconds.
const discordEpoch = 1420070400000

// pageSize is the largest page the messages endpoint returns.
const pageSize = 100

// snowflakeAfter returns the largest snowflake whose timestamp is not after t,
// so that every ID greater than it was created strictly after t.
func snowflakeAfter(t time.Time) string {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(ms+1)<<22-1, 10)
}

func (b *Bot) History(ctx context.Context, channelID string, after time.Time) iter.Seq2[*chat.Message, error] {
	return func(yield func(*chat.Message, error) bool) {
		cursor := snowflakeAfter(after)
		for {
			page, err := b.dg.ChannelMessages(channelID, pageSize, "", cursor, "", discordgo.WithContext(ctx))
			if err != nil {
				yield(nil, fmt.Errorf("failed to fetch history of %s: %w", channelID, wrapREST(err)))
				return
			}
			slices.SortFunc(page, func(x, y *discordgo.Message) int {
				return compareSnowflakes(x.ID, y.ID)
			})
			for _, m := range page {
				if !yield(toMessage(m), nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			cursor = page[len(page)-1].ID
		}
	}
}

func compareSnowflakes(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// wrapREST exposes the HTTP status of a discordgo REST error so that rate
// limiting and retry helpers can classify it.
func wrapREST(err error) error {
	if rerr, ok := err.(*discordgo.RESTError); ok && rerr.Response != nil {
		code := rerr.Response.StatusCode
		if code == http.StatusTooManyRequests || code >= 500 {
			return fmt.Errorf("%w: %w", &retrylimit.StatusError{Code: code, Op: "discord"}, err)
		}
	}
	return err
}
