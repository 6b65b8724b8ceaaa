package bot

import (
	"context"
	"fmt"

	"warden/internal/analytics"
	"warden/internal/cases"
	"warden/internal/config"
	"warden/internal/engine"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorInfo  = 0x5865F2
	colorWarn  = 0xFEE75C
	colorError = 0xED4245
)

// Bot is the Discord surface: it feeds gateway messages into the engine,
// serves the moderation slash commands and mirrors store events into the
// alert channel.
type Bot struct {
	watcher     *config.Watcher
	logger      *zap.Logger
	engine      *engine.Engine
	analytics   *analytics.Service
	session     *discordgo.Session
	unsubscribe func()
}

// New wires an already-created session. The session is shared with the
// platform adapter, so main owns its lifetime until Start is called.
func New(watcher *config.Watcher, logger *zap.Logger, eng *engine.Engine, analyticsService *analytics.Service, session *discordgo.Session) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	return &Bot{
		watcher:   watcher,
		logger:    logger,
		engine:    eng,
		analytics: analyticsService,
		session:   session,
	}
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	if err := b.registerCommands(); err != nil {
		return err
	}

	b.unsubscribe = b.engine.Subscribe(b.onStoreEvent)
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}
	_ = session

	ctx := context.Background()
	result, err := b.engine.HandleMessage(ctx, engine.InboundMessage{
		GuildID:     msg.GuildID,
		ChannelID:   msg.ChannelID,
		AuthorID:    msg.Author.ID,
		AuthorTag:   msg.Author.String(),
		Content:     msg.Content,
		Attachments: len(msg.Attachments),
		Mentions:    len(msg.Mentions),
	})
	if err != nil {
		b.logger.Warn("enforcement failed",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.Author.ID),
			zap.Error(err))
		return
	}
	if result.ActionTaken != "" {
		b.logger.Info("message enforced",
			zap.String("guild_id", msg.GuildID),
			zap.String("user_id", msg.Author.ID),
			zap.Strings("violations", result.Violations))
	}
}

// onStoreEvent mirrors case lifecycle events into the configured alert
// channel. Delivery is best-effort, same as the bus feeding it.
func (b *Bot) onStoreEvent(event cases.Event) {
	channelID := b.watcher.Current().Moderation.Alerts.ChannelID
	if channelID == "" {
		return
	}

	var embed *discordgo.MessageEmbed
	switch event.Kind {
	case cases.EventCaseCreated:
		embed = b.caseEmbed(event, "Case opened", colorWarn)
	case cases.EventCaseStatus:
		embed = b.caseEmbed(event, "Case status changed", colorInfo)
	case cases.EventCaseDeleted:
		embed = &discordgo.MessageEmbed{
			Title:       "Case deleted",
			Description: fmt.Sprintf("Case `%s` was removed.", event.CaseID),
			Color:       colorError,
		}
	default:
		return
	}
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.logger.Debug("alert delivery failed", zap.Error(err))
	}
}

func (b *Bot) caseEmbed(event cases.Event, title string, color int) *discordgo.MessageEmbed {
	c, err := b.engine.GetCaseDetails(event.GuildID, event.CaseID)
	if err != nil {
		return &discordgo.MessageEmbed{
			Title:       title,
			Description: fmt.Sprintf("Case `%s`", event.CaseID),
			Color:       color,
		}
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: c.Subject,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Case", Value: c.ID, Inline: true},
			{Name: "Member", Value: memberLabel(c), Inline: true},
			{Name: "Status", Value: string(c.Status), Inline: true},
		},
	}
}

func memberLabel(c *cases.Case) string {
	if c.UserTag != "" {
		return c.UserTag
	}
	return c.UserID
}
