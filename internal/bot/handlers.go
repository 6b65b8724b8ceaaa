package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warden/internal/cases"
	"warden/internal/engine"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "warn", "timeout", "kick", "ban":
		b.handleActionCommand(ctx, session, interaction, data.Name, data.Options)
	case "case":
		b.handleCaseCommand(ctx, session, interaction, data.Options)
	case "modstats":
		b.handleStatsCommand(session, interaction)
	}
}

func (b *Bot) handleActionCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, name string, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.GuildID == "" || interaction.Member == nil || interaction.Member.User == nil {
		b.respond(session, interaction, "This command only works inside a server.", true)
		return
	}

	opts := optionMap(options)
	userOpt, ok := opts["user"]
	if !ok {
		b.respond(session, interaction, "A member is required.", true)
		return
	}
	target := userOpt.UserValue(session)
	if target == nil {
		b.respond(session, interaction, "A member is required.", true)
		return
	}
	reason := ""
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	moderator := interaction.Member.User
	var err error
	switch name {
	case "warn":
		err = b.engine.Warn(ctx, interaction.GuildID, target.ID, moderator.ID, moderator.String(), reason)
	case "timeout":
		minutes := 0
		if opt, ok := opts["minutes"]; ok {
			minutes = int(opt.IntValue())
		}
		err = b.engine.Timeout(ctx, interaction.GuildID, target.ID, moderator.ID, moderator.String(), reason, minutes)
	case "kick":
		err = b.engine.Kick(ctx, interaction.GuildID, target.ID, moderator.ID, moderator.String(), reason)
	case "ban":
		err = b.engine.Ban(ctx, interaction.GuildID, target.ID, moderator.ID, moderator.String(), reason)
	}
	if err != nil {
		b.respond(session, interaction, actionFailure(name, err), true)
		b.logger.Warn("moderator command failed",
			zap.String("command", name),
			zap.String("guild_id", interaction.GuildID),
			zap.Error(err))
		return
	}

	b.respondEmbed(session, interaction, &discordgo.MessageEmbed{
		Title:       "Action applied",
		Description: fmt.Sprintf("**%s** for %s", name, target.String()),
		Color:       colorWarn,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: reason, Inline: false},
		},
	}, true)
}

func actionFailure(name string, err error) string {
	switch {
	case errors.Is(err, engine.ErrMemberNotResolvable):
		return "That member could not be found in this server."
	case errors.Is(err, engine.ErrNotModeratable):
		return "I do not have permission to " + name + " that member."
	case errors.Is(err, cases.ErrPersistence):
		return "The " + name + " was applied but saving the case failed; check the logs."
	default:
		return "The " + name + " failed: " + err.Error()
	}
}

func (b *Bot) handleCaseCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.GuildID == "" || len(options) == 0 {
		b.respond(session, interaction, "This command only works inside a server.", true)
		return
	}
	sub := options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "list":
		var status cases.Status
		if opt, ok := opts["status"]; ok {
			if normalized, valid := cases.NormalizeStatus(opt.StringValue()); valid {
				status = normalized
			}
		}
		listed := b.engine.ListCasesForGuild(interaction.GuildID, status, "", 10)
		if len(listed) == 0 {
			b.respond(session, interaction, "No cases match.", true)
			return
		}
		lines := make([]string, 0, len(listed))
		for _, c := range listed {
			lines = append(lines, fmt.Sprintf("`%s` · %s · **%s** · %s", shortID(c.ID), memberLabel(c), c.Status, c.Subject))
		}
		b.respondEmbed(session, interaction, &discordgo.MessageEmbed{
			Title:       "Recent cases",
			Description: strings.Join(lines, "\n"),
			Color:       colorInfo,
		}, true)
	case "view":
		id := ""
		if opt, ok := opts["id"]; ok {
			id = opt.StringValue()
		}
		c, err := b.engine.GetCaseDetails(interaction.GuildID, id)
		if err != nil {
			b.respond(session, interaction, "Case not found.", true)
			return
		}
		b.respondEmbed(session, interaction, caseDetailEmbed(c), true)
	case "status":
		id, value, note := "", "", ""
		if opt, ok := opts["id"]; ok {
			id = opt.StringValue()
		}
		if opt, ok := opts["value"]; ok {
			value = opt.StringValue()
		}
		if opt, ok := opts["note"]; ok {
			note = opt.StringValue()
		}
		actor := ""
		if interaction.Member != nil && interaction.Member.User != nil {
			actor = interaction.Member.User.String()
		}
		c, err := b.engine.SetCaseStatus(ctx, interaction.GuildID, id, value, actor, note)
		if err != nil {
			switch {
			case errors.Is(err, cases.ErrInvalidStatus):
				b.respond(session, interaction, "Unknown status.", true)
			case errors.Is(err, cases.ErrCaseNotFound):
				b.respond(session, interaction, "Case not found.", true)
			default:
				b.respond(session, interaction, "Updating the case failed: "+err.Error(), true)
			}
			return
		}
		b.respond(session, interaction, fmt.Sprintf("Case `%s` is now **%s**.", shortID(c.ID), c.Status), true)
	}
}

func (b *Bot) handleStatsCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		b.respond(session, interaction, "This command only works inside a server.", true)
		return
	}
	report := b.analytics.Report(interaction.GuildID, time.Now().Add(-7*24*time.Hour))

	statusLines := make([]string, 0, len(report.ByStatus))
	for status, count := range report.ByStatus {
		statusLines = append(statusLines, fmt.Sprintf("%s: %d", status, count))
	}
	statuses := strings.Join(statusLines, "\n")
	if statuses == "" {
		statuses = "none"
	}

	b.respondEmbed(session, interaction, &discordgo.MessageEmbed{
		Title: "Moderation statistics",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Warnings", Value: fmt.Sprintf("%d", report.Stats.Warnings), Inline: true},
			{Name: "Timeouts", Value: fmt.Sprintf("%d", report.Stats.Timeouts), Inline: true},
			{Name: "Kicks", Value: fmt.Sprintf("%d", report.Stats.Kicks), Inline: true},
			{Name: "Bans", Value: fmt.Sprintf("%d", report.Stats.Bans), Inline: true},
			{Name: "Open cases", Value: fmt.Sprintf("%d", report.Stats.OpenCases), Inline: true},
			{Name: "Total cases", Value: fmt.Sprintf("%d", report.Stats.TotalCases), Inline: true},
			{Name: "Actions (7d)", Value: fmt.Sprintf("%d", report.ActionsSince), Inline: true},
			{Name: "By status", Value: statuses, Inline: false},
		},
	}, true)
}

func caseDetailEmbed(c *cases.Case) *discordgo.MessageEmbed {
	lastAction := "none"
	if len(c.Actions) > 0 {
		last := c.Actions[len(c.Actions)-1]
		lastAction = fmt.Sprintf("%s (%s)", last.Type, last.Source)
	}
	return &discordgo.MessageEmbed{
		Title:       "Case " + shortID(c.ID),
		Description: c.Subject,
		Color:       colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Member", Value: memberLabel(c), Inline: true},
			{Name: "Category", Value: string(c.Category), Inline: true},
			{Name: "Status", Value: string(c.Status), Inline: true},
			{Name: "Actions", Value: fmt.Sprintf("%d", len(c.Actions)), Inline: true},
			{Name: "Messages", Value: fmt.Sprintf("%d", len(c.Messages)), Inline: true},
			{Name: "Unread", Value: fmt.Sprintf("%d", c.UnreadCount), Inline: true},
			{Name: "Last action", Value: lastAction, Inline: false},
			{Name: "Opened", Value: c.CreatedAt.Format(time.RFC3339), Inline: false},
		},
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		out[opt.Name] = opt
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
