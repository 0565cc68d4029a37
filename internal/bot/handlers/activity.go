package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/albiongw/goodwill/internal/bot/builder"
	"github.com/albiongw/goodwill/internal/database/models"
	"github.com/albiongw/goodwill/internal/tracker"
)

// chartDays is the lookback window of the activity chart.
const chartDays = 14

func (h *Handler) handleActivity(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	if data.SubCommandName == nil {
		return nil
	}

	switch *data.SubCommandName {
	case "me":
		return h.handleActivityMe(ctx, event, data)
	case "ranking":
		return h.handleActivityRanking(ctx, event, data)
	case "chart":
		return h.handleActivityChart(ctx, event)
	}
	return nil
}

func (h *Handler) handleActivityMe(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	guildID := uint64(*event.GuildID())
	granularity, periodStart, err := h.resolvePeriod(ctx, guildID, data)
	if err != nil {
		return err
	}

	row, err := h.db.Activity().GetUser(ctx, uint64(event.User().ID), guildID, granularity, periodStart)
	if err != nil {
		return err
	}

	embed := discord.NewEmbedBuilder().
		SetTitlef("Your %s activity", granularity).
		AddField("Active voice", formatDuration(row.VoiceSeconds), true).
		AddField("AFK", formatDuration(row.AfkSeconds), true).
		AddField("Muted", formatDuration(row.MutedSeconds), true).
		AddField("Messages", fmt.Sprintf("%d", row.MessageCount), true).
		SetFooterText("Since " + periodStart.Format("2006-01-02")).
		SetColor(0x2ecc71).
		Build()

	h.replyEmbed(event, embed)
	return nil
}

func (h *Handler) handleActivityRanking(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	guildID := uint64(*event.GuildID())
	granularity, periodStart, err := h.resolvePeriod(ctx, guildID, data)
	if err != nil {
		return err
	}

	rows, err := h.db.Activity().Top(ctx, guildID, granularity, periodStart, rankingLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		h.replyEphemeral(event, "No activity recorded for this period yet.")
		return nil
	}

	// Presence is measured against the period's top performer.
	top := rows[0].VoiceSeconds

	var sb strings.Builder
	for i, row := range rows {
		presence := 0.0
		if top > 0 {
			presence = float64(row.VoiceSeconds) / float64(top) * 100
		}
		fmt.Fprintf(&sb, "**%d.** %s — %s voice, %d messages (%.0f%%)\n",
			i+1, row.Username, formatDuration(row.VoiceSeconds), row.MessageCount, presence)
	}

	embed := discord.NewEmbedBuilder().
		SetTitlef("Top %s voice activity", granularity).
		SetDescription(sb.String()).
		SetFooterText("Since " + periodStart.Format("2006-01-02")).
		SetColor(0x3498db).
		Build()

	h.replyEmbed(event, embed)
	return nil
}

func (h *Handler) handleActivityChart(ctx context.Context, event *events.ApplicationCommandInteractionCreate) error {
	// Rendering takes a moment; defer so the interaction cannot time out.
	if err := event.DeferCreateMessage(false); err != nil {
		return err
	}

	guildID := uint64(*event.GuildID())
	since := tracker.DayStart(time.Now().UTC()).AddDate(0, 0, -chartDays+1)

	totals, err := h.db.Activity().GuildDailyVoice(ctx, guildID, since)
	if err != nil {
		return err
	}

	buf, err := builder.NewChartBuilder(totals, chartDays).Build()
	if err != nil {
		return err
	}

	_, err = event.Client().Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		discord.NewMessageUpdateBuilder().
			SetFiles(discord.NewFile("activity.png", "", buf)).
			Build())
	return err
}

// resolvePeriod turns the period option into a granularity and its current
// period start, honoring the guild's configured week start day.
func (h *Handler) resolvePeriod(
	ctx context.Context, guildID uint64, data discord.SlashCommandInteractionData,
) (models.Granularity, time.Time, error) {
	settings, err := h.db.Settings().GetGuildSettings(ctx, guildID)
	if err != nil {
		return 0, time.Time{}, err
	}

	now := time.Now().UTC()
	period, _ := data.OptString("period")

	switch period {
	case "daily":
		return models.GranularityDaily, tracker.DayStart(now), nil
	case "monthly":
		return models.GranularityMonthly, tracker.MonthStart(now), nil
	default:
		return models.GranularityWeekly, tracker.WeekStart(now, time.Weekday(settings.WeekStart)), nil
	}
}
