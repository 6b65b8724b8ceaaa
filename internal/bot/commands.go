package bot

import "github.com/bwmarrin/discordgo"

var moderatorOnly = int64(discordgo.PermissionManageMessages)

func (b *Bot) registerCommands() error {
	userOption := func(description string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: description,
			Required:    true,
		}
	}
	reasonOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Why the action is taken",
		Required:    true,
	}

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "warn",
			Description:              "Warn a member",
			DefaultMemberPermissions: &moderatorOnly,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to warn"),
				reasonOption,
			},
		},
		{
			Name:                     "timeout",
			Description:              "Time a member out",
			DefaultMemberPermissions: &moderatorOnly,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to time out"),
				reasonOption,
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "minutes",
					Description: "Timeout length in minutes",
					Required:    false,
				},
			},
		},
		{
			Name:                     "kick",
			Description:              "Kick a member",
			DefaultMemberPermissions: &moderatorOnly,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to kick"),
				reasonOption,
			},
		},
		{
			Name:                     "ban",
			Description:              "Ban a member",
			DefaultMemberPermissions: &moderatorOnly,
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to ban"),
				reasonOption,
			},
		},
		{
			Name:                     "case",
			Description:              "Inspect and manage moderation cases",
			DefaultMemberPermissions: &moderatorOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List recent cases",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "status",
							Description: "Filter by status",
							Required:    false,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "open", Value: "open"},
								{Name: "pending-response", Value: "pending-response"},
								{Name: "pending", Value: "pending"},
								{Name: "escalated", Value: "escalated"},
								{Name: "closed", Value: "closed"},
								{Name: "archived", Value: "archived"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "view",
					Description: "Show one case",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "id",
							Description: "Case identifier",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Change a case's status",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "id",
							Description: "Case identifier",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "value",
							Description: "New status",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "open", Value: "open"},
								{Name: "pending", Value: "pending"},
								{Name: "escalated", Value: "escalated"},
								{Name: "closed", Value: "closed"},
								{Name: "archived", Value: "archived"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "note",
							Description: "Optional note for the audit trail",
							Required:    false,
						},
					},
				},
			},
		},
		{
			Name:                     "modstats",
			Description:              "Show moderation statistics",
			DefaultMemberPermissions: &moderatorOnly,
		},
	}

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		return err
	}

	desired := make(map[string]struct{}, len(commands))
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}
	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
