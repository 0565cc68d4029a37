package bot

import (
	"github.com/disgoorg/disgo/discord"
)

var periodChoices = []discord.ApplicationCommandOptionChoiceString{
	{Name: "daily", Value: "daily"},
	{Name: "weekly", Value: "weekly"},
	{Name: "monthly", Value: "monthly"},
}

// Commands is the global slash command set registered on startup.
var Commands = []discord.ApplicationCommandCreate{
	discord.SlashCommandCreate{
		Name:        "activity",
		Description: "Voice and chat activity reports",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:        "me",
				Description: "Show your own activity for a period",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "period",
						Description: "Aggregation period (default weekly)",
						Choices:     periodChoices,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "ranking",
				Description: "Top members by active voice time",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "period",
						Description: "Aggregation period (default weekly)",
						Choices:     periodChoices,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "chart",
				Description: "Chart of the guild's daily voice activity",
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "register",
		Description: "Link your Albion character to your Discord account",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "character",
				Description: "Exact Albion character name",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "unregister",
		Description: "Remove your Albion character link",
	},
	discord.SlashCommandCreate{
		Name:        "whois",
		Description: "Show the Albion character linked to a member",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionUser{
				Name:        "member",
				Description: "Member to look up",
				Required:    true,
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "ranking",
		Description: "Albion guild rankings",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:        "attendance",
				Description: "Battle attendance over the lookback window",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "mmr",
				Description: "Weapon ladder standings by role",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "role",
						Description: "Slot role",
						Required:    true,
						Choices: []discord.ApplicationCommandOptionChoiceString{
							{Name: "tank", Value: "tank"},
							{Name: "healer", Value: "healer"},
							{Name: "support", Value: "support"},
							{Name: "ranged dps", Value: "ranged_dps"},
							{Name: "melee dps", Value: "melee_dps"},
							{Name: "battlemount", Value: "battlemount"},
						},
					},
				},
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "settings",
		Description: "Guild settings (requires Manage Server)",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:        "view",
				Description: "Show the current guild settings",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "afk-channel",
				Description: "Set the voice channel treated as AFK",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionChannel{
						Name:        "channel",
						Description: "AFK voice channel",
						Required:    true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "language",
				Description: "Set the report language",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "language",
						Description: "Report language",
						Required:    true,
						Choices: []discord.ApplicationCommandOptionChoiceString{
							{Name: "English", Value: "en"},
							{Name: "Português", Value: "pt"},
						},
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "week-start",
				Description: "Set the day the weekly period starts on",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "day",
						Description: "Weekday",
						Required:    true,
						Choices: []discord.ApplicationCommandOptionChoiceInt{
							{Name: "Sunday", Value: 0},
							{Name: "Monday", Value: 1},
							{Name: "Saturday", Value: 6},
						},
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "albion-guild",
				Description: "Set the Albion guild id used for rankings",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "id",
						Description: "Albion guild id",
						Required:    true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "min-battles",
				Description: "Set the minimum players a battle needs to count towards attendance",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionInt{
						Name:        "count",
						Description: "Minimum battle size",
						Required:    true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "comp-channel",
				Description: "Set the channel composition posts go to",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionChannel{
						Name:        "channel",
						Description: "Composition channel",
						Required:    true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "ping-role",
				Description: "Set the Discord role pinged for a composition role",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "slot",
						Description: "Composition role",
						Required:    true,
						Choices: []discord.ApplicationCommandOptionChoiceString{
							{Name: "tank", Value: "tank"},
							{Name: "healer", Value: "healer"},
							{Name: "support", Value: "support"},
							{Name: "dps", Value: "dps"},
							{Name: "battlemount", Value: "battlemount"},
						},
					},
					discord.ApplicationCommandOptionRole{
						Name:        "role",
						Description: "Discord role to ping",
						Required:    true,
					},
				},
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "comp",
		Description: "Event compositions and weapon signups",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionSubCommand{
				Name:        "create",
				Description: "Create a composition preset",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "name",
						Description: "Preset name",
						Required:    true,
					},
					discord.ApplicationCommandOptionString{
						Name:        "slots",
						Description: "Slot list: role:weapon:count[:min_kills], comma separated",
						Required:    true,
					},
				},
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "list",
				Description: "List the guild's composition presets",
			},
			discord.ApplicationCommandOptionSubCommand{
				Name:        "post",
				Description: "Post a composition for signups",
				Options: []discord.ApplicationCommandOption{
					discord.ApplicationCommandOptionString{
						Name:        "name",
						Description: "Preset name",
						Required:    true,
					},
				},
			},
		},
	},
}
