package tracker

import "strings"

// Channel describes the voice channel a user occupies.
type Channel struct {
	ID   uint64
	Name string
}

// IsAfkChannel reports whether the channel counts as away for the guild.
// The configured AFK channel id wins; otherwise a case-insensitive "afk"
// substring in the channel name is used as a fallback heuristic. A nil
// channel (user not in voice) is never AFK.
func IsAfkChannel(channel *Channel, afkChannelID uint64) bool {
	if channel == nil {
		return false
	}
	if afkChannelID != 0 && channel.ID == afkChannelID {
		return true
	}
	return strings.Contains(strings.ToLower(channel.Name), "afk")
}
