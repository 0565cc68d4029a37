package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/models"
)

// Component custom id prefixes for composition signup buttons.
const (
	compJoinPrefix  = "comp:join:"
	compLeaveID     = "comp:leave"
	maxPresetSlots  = 20
	buttonsPerRow   = 5
	threadArchiveID = discord.AutoArchiveDuration24h
)

var errBadSlotSpec = errors.New("slot spec must be role:weapon:count[:min_kills]")

func (h *Handler) handleComposition(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	if data.SubCommandName == nil {
		return nil
	}

	switch *data.SubCommandName {
	case "create":
		return h.handleCompositionCreate(ctx, event, data)
	case "list":
		return h.handleCompositionList(ctx, event)
	case "post":
		return h.handleCompositionPost(ctx, event, data)
	}
	return nil
}

func (h *Handler) handleCompositionCreate(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	if !isManager(event) {
		h.replyEphemeral(event, "You need the Manage Server permission for this.")
		return nil
	}

	slots, err := parseSlots(data.String("slots"))
	if err != nil {
		h.replyEphemeral(event, err.Error())
		return nil
	}

	comp := &models.Composition{
		GuildID:   uint64(*event.GuildID()),
		Name:      data.String("name"),
		CreatedBy: uint64(event.User().ID),
	}

	if err := h.db.Compositions().CreatePreset(ctx, comp, slots); err != nil {
		if errors.Is(err, models.ErrDuplicateName) {
			h.replyEphemeral(event, "A composition with this name already exists.")
			return nil
		}
		return err
	}

	h.replyEphemeral(event, fmt.Sprintf("Created **%s** with %d slots.", comp.Name, len(slots)))
	return nil
}

func (h *Handler) handleCompositionList(ctx context.Context, event *events.ApplicationCommandInteractionCreate) error {
	comps, err := h.db.Compositions().ListPresets(ctx, uint64(*event.GuildID()))
	if err != nil {
		return err
	}
	if len(comps) == 0 {
		h.replyEphemeral(event, "No composition presets yet. Create one with `/comp create`.")
		return nil
	}

	var sb strings.Builder
	for _, comp := range comps {
		fmt.Fprintf(&sb, "• **%s**\n", comp.Name)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Composition presets").
		SetDescription(sb.String()).
		SetColor(0x1abc9c).
		Build()

	h.replyEmbed(event, embed)
	return nil
}

func (h *Handler) handleCompositionPost(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) error {
	if !isManager(event) {
		h.replyEphemeral(event, "You need the Manage Server permission for this.")
		return nil
	}

	guildID := uint64(*event.GuildID())

	settings, err := h.db.Settings().GetGuildSettings(ctx, guildID)
	if err != nil {
		return err
	}
	if settings.CompositionChannelID == 0 {
		h.replyEphemeral(event, "No composition channel is configured. Set one with `/settings comp-channel`.")
		return nil
	}

	comp, err := h.db.Compositions().GetPreset(ctx, guildID, data.String("name"))
	if err != nil {
		if errors.Is(err, models.ErrUnknownPreset) {
			h.replyEphemeral(event, "No composition preset with that name.")
			return nil
		}
		return err
	}

	channelID := snowflake.ID(settings.CompositionChannelID)
	embed := compositionEmbed(comp, nil)

	builder := discord.NewMessageCreateBuilder().
		SetContent(rolePings(comp, settings)).
		SetEmbeds(embed)
	for _, row := range signupButtons(comp.Slots) {
		builder.AddContainerComponents(row)
	}

	message, err := event.Client().Rest().CreateMessage(channelID, builder.Build())
	if err != nil {
		return fmt.Errorf("failed to post composition: %w", err)
	}

	post := &models.CompositionPost{
		CompositionID: comp.ID,
		GuildID:       guildID,
		ChannelID:     uint64(channelID),
		MessageID:     uint64(message.ID),
	}

	// The thread is a convenience; its failure should not orphan the post.
	thread, err := event.Client().Rest().CreateThreadFromMessage(channelID, message.ID,
		discord.ThreadCreateFromMessage{
			Name:                comp.Name,
			AutoArchiveDuration: threadArchiveID,
		})
	if err != nil {
		h.logger.Warn("Failed to create composition thread", zap.Error(err))
	} else {
		post.ThreadID = uint64(thread.ID())
	}

	if err := h.db.Compositions().CreatePost(ctx, post); err != nil {
		return err
	}

	h.replyEphemeral(event, fmt.Sprintf("Posted **%s** in %s.", comp.Name, discord.ChannelMention(channelID)))
	return nil
}

// handleCompositionComponent processes the signup and leave buttons under a
// composition post. The embed is always re-rendered from the signup table.
func (h *Handler) handleCompositionComponent(ctx context.Context, event *events.ComponentInteractionCreate) error {
	customID := event.Data.CustomID()
	if customID != compLeaveID && !strings.HasPrefix(customID, compJoinPrefix) {
		return nil
	}

	post, err := h.db.Compositions().GetPostByMessage(ctx, uint64(event.Message.ID))
	if err != nil {
		if errors.Is(err, models.ErrUnknownPost) {
			h.replyComponentEphemeral(event, "This composition post is no longer tracked.")
			return nil
		}
		return err
	}

	comp, err := h.db.Compositions().GetPresetByID(ctx, post.CompositionID)
	if err != nil {
		return err
	}

	userID := uint64(event.User().ID)
	username := event.User().Username
	if member := event.Member(); member != nil {
		username = member.EffectiveName()
	}

	if customID == compLeaveID {
		if _, err := h.db.Compositions().Leave(ctx, post, userID); err != nil {
			return err
		}
		return h.refreshCompositionEmbed(ctx, event, comp, post)
	}

	slotID, err := strconv.ParseInt(strings.TrimPrefix(customID, compJoinPrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signup button id %q: %w", customID, err)
	}

	var slot *models.CompositionSlot
	for _, s := range comp.Slots {
		if s.ID == slotID {
			slot = s
			break
		}
	}
	if slot == nil {
		h.replyComponentEphemeral(event, "This weapon is no longer part of the composition.")
		return nil
	}

	if ok, reason, err := h.checkExperience(ctx, post.GuildID, userID, slot); err != nil {
		return err
	} else if !ok {
		h.replyComponentEphemeral(event, reason)
		return nil
	}

	if _, err := h.db.Compositions().Signup(ctx, post, slot, userID, username); err != nil {
		return err
	}

	return h.refreshCompositionEmbed(ctx, event, comp, post)
}

// checkExperience enforces the slot's minimum MurderLedger kill count.
func (h *Handler) checkExperience(
	ctx context.Context, guildID, userID uint64, slot *models.CompositionSlot,
) (bool, string, error) {
	if slot.MinKills <= 0 {
		return true, "", nil
	}

	player, err := h.db.Players().GetByUser(ctx, userID, guildID)
	if err != nil {
		return false, "", err
	}
	if player == nil {
		return false, "This slot requires weapon experience. Link your character with `/register` first.", nil
	}

	kills, err := h.murderledger.WeaponKills(ctx, player.AlbionName, slot.Weapon)
	if err != nil {
		return false, "", err
	}
	if kills < slot.MinKills {
		return false, fmt.Sprintf(
			"**%s** needs at least %d kills on %s; the ledger shows %d.",
			player.AlbionName, slot.MinKills, slot.Weapon, kills), nil
	}

	return true, "", nil
}

// refreshCompositionEmbed re-renders the signup embed from the database and
// answers the interaction with the updated message.
func (h *Handler) refreshCompositionEmbed(
	ctx context.Context, event *events.ComponentInteractionCreate, comp *models.Composition, post *models.CompositionPost,
) error {
	signups, err := h.db.Compositions().ListSignups(ctx, post.ID)
	if err != nil {
		return err
	}

	return event.UpdateMessage(discord.NewMessageUpdateBuilder().
		SetEmbeds(compositionEmbed(comp, signups)).
		Build())
}

// compositionEmbed renders the signup state: one field per slot with its
// assigned players, plus a fill queue field when anyone is waiting.
func compositionEmbed(comp *models.Composition, signups []models.CompositionSignup) discord.Embed {
	assigned := make(map[int64][]models.CompositionSignup)
	var fills []models.CompositionSignup
	for _, signup := range signups {
		if signup.IsFill {
			fills = append(fills, signup)
			continue
		}
		assigned[signup.SlotID] = append(assigned[signup.SlotID], signup)
	}

	builder := discord.NewEmbedBuilder().
		SetTitle(comp.Name).
		SetColor(0xf1c40f)

	for _, slot := range comp.Slots {
		players := assigned[slot.ID]

		value := "—"
		if len(players) > 0 {
			mentions := make([]string, len(players))
			for i, signup := range players {
				mentions[i] = discord.UserMention(snowflake.ID(signup.UserID))
			}
			value = strings.Join(mentions, " ")
		}

		name := fmt.Sprintf("%s — %s (%d/%d)", titleRole(slot.Role), slot.Weapon, len(players), slot.Capacity)
		if slot.MinKills > 0 {
			name += fmt.Sprintf(" · %d+ kills", slot.MinKills)
		}
		builder.AddField(name, value, false)
	}

	if len(fills) > 0 {
		slotWeapons := make(map[int64]string, len(comp.Slots))
		for _, slot := range comp.Slots {
			slotWeapons[slot.ID] = slot.Weapon
		}

		lines := make([]string, len(fills))
		for i, signup := range fills {
			lines[i] = fmt.Sprintf("%s (%s)", discord.UserMention(snowflake.ID(signup.UserID)), slotWeapons[signup.SlotID])
		}
		builder.AddField("Fill queue", strings.Join(lines, "\n"), false)
	}

	return builder.Build()
}

// signupButtons builds the join buttons, one per slot, plus a leave button.
func signupButtons(slots []*models.CompositionSlot) []discord.ContainerComponent {
	var rows []discord.ContainerComponent

	var current []discord.InteractiveComponent
	for _, slot := range slots {
		current = append(current, discord.NewPrimaryButton(slot.Weapon, compJoinPrefix+strconv.FormatInt(slot.ID, 10)))
		if len(current) == buttonsPerRow {
			rows = append(rows, discord.NewActionRow(current...))
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, discord.NewActionRow(current...))
	}

	rows = append(rows, discord.NewActionRow(discord.NewDangerButton("Leave", compLeaveID)))
	return rows
}

// rolePings builds the mention line for the roles the composition uses.
func rolePings(comp *models.Composition, settings *models.GuildSetting) string {
	roleIDs := map[string]uint64{
		models.RoleTank:        settings.TankRoleID,
		models.RoleHealer:      settings.HealerRoleID,
		models.RoleSupport:     settings.SupportRoleID,
		models.RoleDPS:         settings.DPSRoleID,
		models.RoleBattlemount: settings.BattlemountRoleID,
	}

	seen := make(map[string]bool)
	var mentions []string
	for _, slot := range comp.Slots {
		id := roleIDs[slot.Role]
		if id == 0 || seen[slot.Role] {
			continue
		}
		seen[slot.Role] = true
		mentions = append(mentions, discord.RoleMention(snowflake.ID(id)))
	}

	if len(mentions) == 0 {
		return "Signups are open!"
	}
	return strings.Join(mentions, " ") + " signups are open!"
}

// parseSlots parses the create command's slot list. Each entry is
// role:weapon:count with an optional :min_kills suffix.
func parseSlots(spec string) ([]*models.CompositionSlot, error) {
	validRoles := map[string]bool{
		models.RoleTank:        true,
		models.RoleHealer:      true,
		models.RoleSupport:     true,
		models.RoleDPS:         true,
		models.RoleBattlemount: true,
	}

	var slots []*models.CompositionSlot
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("%w: %q", errBadSlotSpec, entry)
		}

		role := strings.ToLower(strings.TrimSpace(parts[0]))
		if !validRoles[role] {
			return nil, fmt.Errorf("%w: unknown role %q", errBadSlotSpec, parts[0])
		}

		capacity, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || capacity < 1 {
			return nil, fmt.Errorf("%w: bad count in %q", errBadSlotSpec, entry)
		}

		minKills := 0
		if len(parts) == 4 {
			minKills, err = strconv.Atoi(strings.TrimSpace(parts[3]))
			if err != nil || minKills < 0 {
				return nil, fmt.Errorf("%w: bad min_kills in %q", errBadSlotSpec, entry)
			}
		}

		slots = append(slots, &models.CompositionSlot{
			Role:     role,
			Weapon:   strings.TrimSpace(parts[1]),
			Capacity: capacity,
			MinKills: minKills,
		})
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no slots given", errBadSlotSpec)
	}
	if len(slots) > maxPresetSlots {
		return nil, fmt.Errorf("%w: at most %d slots", errBadSlotSpec, maxPresetSlots)
	}

	return slots, nil
}

// titleRole renders a role constant for display.
func titleRole(role string) string {
	switch role {
	case models.RoleDPS:
		return "DPS"
	default:
		if role == "" {
			return role
		}
		return strings.ToUpper(role[:1]) + role[1:]
	}
}
