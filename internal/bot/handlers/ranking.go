package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
)

func (h *Handler) handleRanking(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	if data.SubCommandName == nil {
		return nil
	}

	guildID := uint64(*event.GuildID())
	settings, err := h.db.Settings().GetGuildSettings(ctx, guildID)
	if err != nil {
		return err
	}
	if settings.AlbionGuildID == "" {
		h.replyEphemeral(event, "No Albion guild is configured. An admin can set one with `/settings albion-guild`.")
		return nil
	}

	switch *data.SubCommandName {
	case "attendance":
		return h.handleRankingAttendance(ctx, event, guildID)
	case "mmr":
		return h.handleRankingMMR(ctx, event, guildID, data.String("role"))
	}
	return nil
}

func (h *Handler) handleRankingAttendance(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, guildID uint64,
) error {
	rows, err := h.db.Rankings().TopAttendance(ctx, guildID, rankingLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		h.replyEphemeral(event, "No attendance snapshot yet. The rankings worker runs hourly.")
		return nil
	}

	var sb strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&sb, "**%d.** %s — %d battles", i+1, row.AlbionName, row.Battles)
		if !row.LastBattle.IsZero() {
			fmt.Fprintf(&sb, " (last %s)", row.LastBattle.Format("Jan 2"))
		}
		sb.WriteString("\n")
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Battle attendance").
		SetDescription(sb.String()).
		SetFooterText("Computed " + rows[0].ComputedAt.Format("2006-01-02 15:04 MST")).
		SetColor(0xe67e22).
		Build()

	h.replyEmbed(event, embed)
	return nil
}

func (h *Handler) handleRankingMMR(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, guildID uint64, role string,
) error {
	rows, err := h.db.Rankings().TopMMR(ctx, guildID, role, rankingLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		h.replyEphemeral(event, "No ladder snapshot for this role yet. The rankings worker runs hourly.")
		return nil
	}

	var sb strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&sb, "**%d.** %s — %d elo on %s (%d kills)\n",
			i+1, row.AlbionName, row.Elo, row.Weapon, row.Kills)
	}

	embed := discord.NewEmbedBuilder().
		SetTitlef("Weapon ladder — %s", strings.ReplaceAll(role, "_", " ")).
		SetDescription(sb.String()).
		SetFooterText("Computed " + rows[0].ComputedAt.Format("2006-01-02 15:04 MST")).
		SetColor(0xe74c3c).
		Build()

	h.replyEmbed(event, embed)
	return nil
}
