package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/albiongw/goodwill/internal/albion"
	"github.com/albiongw/goodwill/internal/database/models"
)

func (h *Handler) handleRegister(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	guildID := uint64(*event.GuildID())
	character := data.String("character")

	match, err := h.gameinfo.FindPlayer(ctx, character)
	if err != nil {
		if errors.Is(err, albion.ErrPlayerNotFound) {
			h.replyEphemeral(event, fmt.Sprintf(
				"No Albion character named **%s** was found. Names are matched exactly.", character))
			return nil
		}
		return err
	}

	// Characters outside the configured Albion guild register unverified.
	settings, err := h.db.Settings().GetGuildSettings(ctx, guildID)
	if err != nil {
		return err
	}
	verified := settings.AlbionGuildID != "" && match.GuildID == settings.AlbionGuildID

	err = h.db.Players().Register(ctx, &models.Player{
		UserID:     uint64(event.User().ID),
		GuildID:    guildID,
		AlbionID:   match.ID,
		AlbionName: match.Name,
		Verified:   verified,
	})
	if err != nil {
		return err
	}

	status := "verified guild member"
	if !verified {
		status = "not in the configured Albion guild"
	}
	h.replyEphemeral(event, fmt.Sprintf("Registered as **%s** (%s).", match.Name, status))
	return nil
}

func (h *Handler) handleUnregister(ctx context.Context, event *events.ApplicationCommandInteractionCreate) error {
	removed, err := h.db.Players().Unregister(ctx, uint64(event.User().ID), uint64(*event.GuildID()))
	if err != nil {
		return err
	}

	if !removed {
		h.replyEphemeral(event, "You are not registered.")
		return nil
	}
	h.replyEphemeral(event, "Your Albion character link was removed.")
	return nil
}

func (h *Handler) handleWhois(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	member := data.User("member")

	player, err := h.db.Players().GetByUser(ctx, uint64(member.ID), uint64(*event.GuildID()))
	if err != nil {
		return err
	}
	if player == nil {
		h.replyEphemeral(event, fmt.Sprintf("%s has no registered Albion character.", member.Username))
		return nil
	}

	status := "unverified"
	if player.Verified {
		status = "verified"
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Registration").
		AddField("Member", discord.UserMention(member.ID), true).
		AddField("Character", player.AlbionName, true).
		AddField("Status", status, true).
		SetFooterText("Registered " + player.RegisteredAt.Format("2006-01-02")).
		SetColor(0x9b59b6).
		Build()

	h.replyEmbed(event, embed)
	return nil
}
