package bot

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/albiongw/goodwill/internal/tracker"
)

// Event handlers run against a bounded context so a wedged database call
// cannot pile up goroutines behind the gateway dispatcher.
const eventTimeout = 30 * time.Second

// handleVoiceStateUpdate feeds gateway voice state updates into the tracker.
func (b *Bot) handleVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	if event.Member.User.Bot {
		return
	}

	username := event.Member.EffectiveName()
	oldState := b.convertVoiceState(event.OldVoiceState, username)
	newState := b.convertVoiceState(event.VoiceState, username)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	b.tracker.HandleVoiceState(ctx, oldState, newState)
}

// handleMessageCreate counts guild messages from real users into the activity
// aggregates.
func (b *Bot) handleMessageCreate(event *events.MessageCreate) {
	if event.GuildID == nil || event.Message.Author.Bot || event.Message.WebhookID != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	guildID := uint64(*event.GuildID)
	settings, err := b.db.Settings().GetGuildSettings(ctx, guildID)
	weekStart := time.Monday
	if err == nil && settings != nil {
		weekStart = time.Weekday(settings.WeekStart)
	}

	b.tracker.Accumulator().AddMessage(ctx,
		uint64(event.Message.Author.ID), guildID, event.Message.Author.Username,
		time.Now().UTC(), weekStart)
}

// convertVoiceState maps a gateway voice state onto the tracker's view of it.
func (b *Bot) convertVoiceState(state discord.VoiceState, username string) *tracker.VoiceState {
	converted := &tracker.VoiceState{
		UserID:   uint64(state.UserID),
		GuildID:  uint64(state.GuildID),
		Username: username,
		SelfMute: state.SelfMute,
		SelfDeaf: state.SelfDeaf,
	}

	if state.ChannelID != nil {
		converted.ChannelID = uint64(*state.ChannelID)
		converted.ChannelName = b.channelName(*state.ChannelID)
	}

	return converted
}

// channelName resolves a channel name from the gateway cache. AFK detection
// falls back to the channel id match when the cache misses.
func (b *Bot) channelName(channelID snowflake.ID) string {
	channel, ok := b.client.Caches().Channel(channelID)
	if !ok {
		return ""
	}
	return channel.Name()
}

// liveVoiceStates snapshots every cached voice state for the reconciliation
// pass.
func (b *Bot) liveVoiceStates() []*tracker.VoiceState {
	var live []*tracker.VoiceState

	b.client.Caches().GuildsForEach(func(guild discord.Guild) {
		b.client.Caches().VoiceStatesForEach(guild.ID, func(state discord.VoiceState) {
			username := ""
			if member, ok := b.client.Caches().Member(state.GuildID, state.UserID); ok {
				if member.User.Bot {
					return
				}
				username = member.EffectiveName()
			}
			live = append(live, b.convertVoiceState(state, username))
		})
	})

	return live
}
