package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notifications to a single Discord channel as embeds.
type Discord struct {
	sess      session
	channelID string
}

// DiscordOpts holds parameters for creating a Discord notifier.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real gateway.
	Session session
}

// NewDiscord creates a Discord notifier. The token is only used for the
// REST API; no gateway connection is opened.
func NewDiscord(opts DiscordOpts) (*Discord, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	d := &Discord{channelID: opts.ChannelID, sess: opts.Session}
	if d.sess == nil {
		sess, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		d.sess = sess
	}
	return d, nil
}

// Notify posts the message as an embed with a severity color.
func (d *Discord) Notify(ctx context.Context, msg Message) error {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       severityColorInt(msg.Severity),
	}
	_, err := d.sess.ChannelMessageSendEmbed(d.channelID, embed,
		discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

func severityColorInt(severity string) int {
	switch severity {
	case SeveritySuccess:
		return 0x36a64f
	case SeverityError:
		return 0xd00000
	default:
		return 0x439fe0
	}
}
