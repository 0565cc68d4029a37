// Package handlers implements the bot's slash commands and component
// interactions. State of record always lives in the database; Discord
// messages are rendered from it, never parsed back.
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/albion"
	"github.com/albiongw/goodwill/internal/database"
)

// commandTimeout bounds one interaction's database and API work.
const commandTimeout = 25 * time.Second

// rankingLimit is how many rows ranking embeds show.
const rankingLimit = 10

// Handler processes slash commands and component interactions.
type Handler struct {
	db           *database.Client
	gameinfo     *albion.GameinfoClient
	murderledger *albion.MurderLedgerClient
	logger       *zap.Logger
}

// New creates a Handler with its dependencies.
func New(
	db *database.Client,
	gameinfo *albion.GameinfoClient,
	murderledger *albion.MurderLedgerClient,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		db:           db,
		gameinfo:     gameinfo,
		murderledger: murderledger,
		logger:       logger.Named("handlers"),
	}
}

// HandleCommand dispatches a slash command to its handler.
func (h *Handler) HandleCommand(event *events.ApplicationCommandInteractionCreate) {
	if event.GuildID() == nil {
		h.replyEphemeral(event, "This command only works in a server.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data := event.SlashCommandInteractionData()

	var err error
	switch data.CommandName() {
	case "activity":
		err = h.handleActivity(ctx, event, data)
	case "register":
		err = h.handleRegister(ctx, event, data)
	case "unregister":
		err = h.handleUnregister(ctx, event)
	case "whois":
		err = h.handleWhois(ctx, event, data)
	case "ranking":
		err = h.handleRanking(ctx, event, data)
	case "settings":
		err = h.handleSettings(ctx, event, data)
	case "comp":
		err = h.handleComposition(ctx, event, data)
	default:
		h.replyEphemeral(event, "This command is not available.")
		return
	}

	if err != nil {
		h.logger.Error("Failed to handle command",
			zap.Error(err),
			zap.String("command", data.CommandName()))
		h.replyEphemeral(event, "Something went wrong. Please try again later.")
	}
}

// HandleComponent dispatches a button press to its handler. Only composition
// signup buttons exist.
func (h *Handler) HandleComponent(event *events.ComponentInteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := h.handleCompositionComponent(ctx, event); err != nil {
		h.logger.Error("Failed to handle component interaction",
			zap.Error(err),
			zap.String("custom_id", event.Data.CustomID()))
		h.replyComponentEphemeral(event, "Something went wrong. Please try again later.")
	}
}

// isManager reports whether the invoking member can manage the guild.
func isManager(event *events.ApplicationCommandInteractionCreate) bool {
	member := event.Member()
	return member != nil && member.Permissions.Has(discord.PermissionManageGuild)
}

func (h *Handler) replyEphemeral(event *events.ApplicationCommandInteractionCreate, content string) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build())
	if err != nil {
		h.logger.Error("Failed to send interaction response", zap.Error(err))
	}
}

func (h *Handler) replyEmbed(event *events.ApplicationCommandInteractionCreate, embed discord.Embed) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetEmbeds(embed).
		Build())
	if err != nil {
		h.logger.Error("Failed to send interaction response", zap.Error(err))
	}
}

func (h *Handler) replyComponentEphemeral(event *events.ComponentInteractionCreate, content string) {
	err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(content).
		SetEphemeral(true).
		Build())
	if err != nil {
		h.logger.Error("Failed to send interaction response", zap.Error(err))
	}
}

// formatDuration renders seconds as "3h 25m".
func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
