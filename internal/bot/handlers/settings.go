package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/albiongw/goodwill/internal/database/models"
)

func (h *Handler) handleSettings(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	if !isManager(event) {
		h.replyEphemeral(event, "You need the Manage Server permission for this.")
		return nil
	}
	if data.SubCommandName == nil {
		return nil
	}

	guildID := uint64(*event.GuildID())
	settings, err := h.db.Settings().GetGuildSettings(ctx, guildID)
	if err != nil {
		return err
	}

	switch *data.SubCommandName {
	case "view":
		h.replyEmbed(event, settingsEmbed(settings))
		return nil
	case "afk-channel":
		channel := data.Channel("channel")
		settings.AfkChannelID = uint64(channel.ID)
	case "language":
		settings.Language = data.String("language")
	case "week-start":
		settings.WeekStart = data.Int("day")
	case "albion-guild":
		settings.AlbionGuildID = data.String("id")
	case "min-battles":
		count := data.Int("count")
		if count < 1 {
			h.replyEphemeral(event, "The minimum battle size must be at least 1.")
			return nil
		}
		settings.MinBattlePlayers = count
	case "comp-channel":
		channel := data.Channel("channel")
		settings.CompositionChannelID = uint64(channel.ID)
	case "ping-role":
		applyPingRole(settings, data.String("slot"), uint64(data.Role("role").ID))
	default:
		return nil
	}

	if err := h.db.Settings().SaveGuildSettings(ctx, settings); err != nil {
		return err
	}

	h.replyEphemeral(event, "Settings updated.")
	return nil
}

// applyPingRole stores the Discord role pinged when a composition using the
// slot role is posted.
func applyPingRole(settings *models.GuildSetting, slot string, roleID uint64) {
	switch slot {
	case models.RoleTank:
		settings.TankRoleID = roleID
	case models.RoleHealer:
		settings.HealerRoleID = roleID
	case models.RoleSupport:
		settings.SupportRoleID = roleID
	case models.RoleDPS:
		settings.DPSRoleID = roleID
	case models.RoleBattlemount:
		settings.BattlemountRoleID = roleID
	}
}

func settingsEmbed(settings *models.GuildSetting) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle("Guild settings").
		AddField("AFK channel", channelOrNotSet(settings.AfkChannelID), true).
		AddField("Language", settings.Language, true).
		AddField("Week starts on", time.Weekday(settings.WeekStart).String(), true).
		AddField("Albion guild", textOrNotSet(settings.AlbionGuildID), true).
		AddField("Min battle size", minBattlesOrDefault(settings.MinBattlePlayers), true).
		AddField("Composition channel", channelOrNotSet(settings.CompositionChannelID), true).
		AddField("Ping roles", pingRolesLine(settings), false).
		SetColor(0x95a5a6).
		Build()
}

func pingRolesLine(settings *models.GuildSetting) string {
	entries := []struct {
		label  string
		roleID uint64
	}{
		{"tank", settings.TankRoleID},
		{"healer", settings.HealerRoleID},
		{"support", settings.SupportRoleID},
		{"dps", settings.DPSRoleID},
		{"battlemount", settings.BattlemountRoleID},
	}

	var parts []string
	for _, entry := range entries {
		if entry.roleID == 0 {
			continue
		}
		parts = append(parts, entry.label+": "+discord.RoleMention(snowflake.ID(entry.roleID)))
	}
	if len(parts) == 0 {
		return "not set"
	}
	return strings.Join(parts, " · ")
}

func channelOrNotSet(channelID uint64) string {
	if channelID == 0 {
		return "not set"
	}
	return discord.ChannelMention(snowflake.ID(channelID))
}

func minBattlesOrDefault(count int) string {
	if count == 0 {
		return "worker default"
	}
	return strconv.Itoa(count)
}

func textOrNotSet(value string) string {
	if value == "" {
		return "not set"
	}
	return value
}
