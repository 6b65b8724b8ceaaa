package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warden/internal/engine"

	"github.com/bwmarrin/discordgo"
)

// Discord adapts a discordgo session to the engine's enforcement port. It
// reads through the session state cache and falls back to the REST API.
type Discord struct {
	session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

func (d *Discord) ResolveMember(_ context.Context, guildID, userID string) (engine.Member, error) {
	member, err := d.session.State.Member(guildID, userID)
	if err != nil || member == nil {
		member, err = d.session.GuildMember(guildID, userID)
	}
	if err != nil || member == nil || member.User == nil {
		return engine.Member{}, fmt.Errorf("%w: %s in %s", engine.ErrMemberNotResolvable, userID, guildID)
	}

	guild, err := d.session.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, _ = d.session.Guild(guildID)
	}

	return engine.Member{
		ID:        member.User.ID,
		Tag:       member.User.String(),
		Roles:     member.Roles,
		Moderator: memberIsModerator(guild, member),
	}, nil
}

func (d *Discord) Timeout(_ context.Context, guildID, userID string, duration time.Duration, _ string) error {
	until := time.Now().Add(duration)
	return classify(d.session.GuildMemberTimeout(guildID, userID, &until))
}

func (d *Discord) Kick(_ context.Context, guildID, userID, reason string) error {
	return classify(d.session.GuildMemberDeleteWithReason(guildID, userID, reason))
}

func (d *Discord) Ban(_ context.Context, guildID, userID, reason string) error {
	return classify(d.session.GuildBanCreateWithReason(guildID, userID, reason, 0))
}

func (d *Discord) SendDM(_ context.Context, userID, content string) error {
	channel, err := d.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = d.session.ChannelMessageSend(channel.ID, content)
	return err
}

// memberIsModerator folds the @everyone role and the member's roles into one
// permission set, the same way the gateway computes base permissions.
func memberIsModerator(guild *discordgo.Guild, member *discordgo.Member) bool {
	if guild == nil || member == nil {
		return false
	}
	perms := int64(0)
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			perms |= role.Permissions
			break
		}
	}
	roleMap := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roleMap[role.ID] = role
	}
	for _, roleID := range member.Roles {
		if role := roleMap[roleID]; role != nil {
			perms |= role.Permissions
		}
	}
	const moderator = discordgo.PermissionAdministrator |
		discordgo.PermissionManageMessages |
		discordgo.PermissionManageServer
	return perms&moderator != 0
}

// Discord error codes worth classifying.
const (
	codeUnknownGuild       = 10004
	codeUnknownMember      = 10007
	codeUnknownUser        = 10013
	codeMissingPermissions = 50013
)

func classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case codeUnknownGuild, codeUnknownMember, codeUnknownUser:
			return fmt.Errorf("%w: %v", engine.ErrMemberNotResolvable, err)
		case codeMissingPermissions:
			return fmt.Errorf("%w: %v", engine.ErrNotModeratable, err)
		}
	}
	return err
}
