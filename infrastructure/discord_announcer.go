package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lotterypool/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	colorWinner = 0xF1C40F
	maxListed   = 5
)

// ChannelMessenger is the part of a discordgo session the announcer uses
type ChannelMessenger interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts draw results to a Discord channel
type DiscordAnnouncer struct {
	session   ChannelMessenger
	channelID string
}

// NewDiscordAnnouncer creates an announcer for the given channel
func NewDiscordAnnouncer(session ChannelMessenger, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session, channelID: channelID}
}

// OpenDiscordSession creates and opens a bot session
func OpenDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}
	return session, nil
}

// AnnounceWinner sends the draw result embed
func (a *DiscordAnnouncer) AnnounceWinner(ctx context.Context, result *entities.DrawResult) error {
	embed := CreateDrawResultEmbed(result)
	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send draw result to channel %s: %w", a.channelID, err)
	}

	log.WithFields(log.Fields{
		"pool_id":   result.PoolID,
		"winner":    result.Winner,
		"channelID": a.channelID,
	}).Info("Announced lottery winner")
	return nil
}

// CreateDrawResultEmbed builds the embed for a completed draw
func CreateDrawResultEmbed(result *entities.DrawResult) *discordgo.MessageEmbed {
	participantStr := "None"
	if n := len(result.Participants); n > 0 {
		shown := n
		if shown > maxListed {
			shown = maxListed
		}
		lines := make([]string, 0, shown+1)
		for _, p := range result.Participants[:shown] {
			lines = append(lines, p.Short())
		}
		if n > shown {
			lines = append(lines, fmt.Sprintf("...and %d more", n-shown))
		}
		participantStr = strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Pool #%d - %s coins paid out", result.PoolID, result.Amount),
		Color:       colorWinner,
		Description: fmt.Sprintf("Winner: `%s`", result.Winner),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Players",
				Value:  fmt.Sprintf("%d", len(result.Participants)),
				Inline: true,
			},
			{
				Name:   "Ledger Height",
				Value:  fmt.Sprintf("%d", result.LedgerHeight),
				Inline: true,
			},
			{
				Name:   "Participants",
				Value:  participantStr,
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: result.PoolAddress.String(),
		},
		Timestamp: result.DrawnAt.UTC().Format(time.RFC3339),
	}
}
