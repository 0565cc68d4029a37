package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAfkChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		channel      *Channel
		afkChannelID uint64
		expected     bool
	}{
		{"nil channel", nil, 123, false},
		{"configured id match", &Channel{ID: 123, Name: "General"}, 123, true},
		{"name fallback lowercase", &Channel{ID: 5, Name: "afk"}, 123, true},
		{"name fallback mixed case", &Channel{ID: 5, Name: "AFK Lounge"}, 0, true},
		{"name substring", &Channel{ID: 5, Name: "away-afk-zone"}, 0, true},
		{"no match", &Channel{ID: 5, Name: "General"}, 123, false},
		{"no configuration and no match", &Channel{ID: 5, Name: "General"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsAfkChannel(tt.channel, tt.afkChannelID))
		})
	}
}
