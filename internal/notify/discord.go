// Package notify posts headline studio events to a Discord channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"studiosim/internal/game"
)

type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord queues headlines from Publish and sends them from Run.
type Discord struct {
	sender    messageSender
	channelID string
	log       *slog.Logger
	queue     chan string
}

func NewDiscord(token, channelID string, logger *slog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return newDiscord(session, channelID, logger), nil
}

func newDiscord(sender messageSender, channelID string, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		sender:    sender,
		channelID: channelID,
		log:       logger,
		queue:     make(chan string, 128),
	}
}

// Publish matches game.Listener. Non-headline events are ignored.
func (d *Discord) Publish(ev game.Event) {
	if !ev.Headline() {
		return
	}
	msg := Format(ev)
	if msg == "" {
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.log.Warn("discord queue full, headline dropped", "company_id", ev.CompanyID)
	}
}

func (d *Discord) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			if _, err := d.sender.ChannelMessageSend(d.channelID, msg); err != nil {
				d.log.Error("discord send failed", "err", err)
			}
		}
	}
}

// Format renders a headline event as one message.
func Format(ev game.Event) string {
	var lines []string
	if r := ev.Released; r != nil {
		lines = append(lines, fmt.Sprintf("**%s** released %q: review %.1f, %d units, $%d.",
			ev.CompanyName, r.Name, r.ReviewScore, r.UnitsSold, r.Revenue))
	}
	for _, a := range ev.Awards {
		if !a.PlayerWon {
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s** won %s %d for %q (+$%d).",
			ev.CompanyName, a.Name, a.Year, a.GameName, a.Prize))
	}
	if ev.GameOver {
		lines = append(lines, fmt.Sprintf("**%s** went bankrupt in %02d/%d.", ev.CompanyName, ev.Month, ev.Year))
	}
	return strings.Join(lines, "\n")
}
