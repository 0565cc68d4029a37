package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albiongw/goodwill/internal/database/models"
)

func TestParseSlots(t *testing.T) {
	t.Parallel()

	t.Run("full spec", func(t *testing.T) {
		t.Parallel()

		slots, err := parseSlots("tank:Heavy Mace:2, healer:Hallowfall:2, dps:Spirithunter:10:50")
		require.NoError(t, err)
		require.Len(t, slots, 3)

		assert.Equal(t, models.RoleTank, slots[0].Role)
		assert.Equal(t, "Heavy Mace", slots[0].Weapon)
		assert.Equal(t, 2, slots[0].Capacity)
		assert.Equal(t, 0, slots[0].MinKills)

		assert.Equal(t, models.RoleDPS, slots[2].Role)
		assert.Equal(t, 10, slots[2].Capacity)
		assert.Equal(t, 50, slots[2].MinKills)
	})

	t.Run("role is case insensitive", func(t *testing.T) {
		t.Parallel()

		slots, err := parseSlots("Tank:Heavy Mace:1")
		require.NoError(t, err)
		assert.Equal(t, models.RoleTank, slots[0].Role)
	})

	t.Run("rejects bad specs", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			spec string
		}{
			{name: "empty", spec: ""},
			{name: "unknown role", spec: "bard:Lute:1"},
			{name: "missing count", spec: "tank:Heavy Mace"},
			{name: "zero count", spec: "tank:Heavy Mace:0"},
			{name: "negative min kills", spec: "tank:Heavy Mace:1:-5"},
			{name: "too many fields", spec: "tank:Heavy Mace:1:5:extra"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, err := parseSlots(tt.spec)
				require.ErrorIs(t, err, errBadSlotSpec)
			})
		}
	})

	t.Run("rejects oversized presets", func(t *testing.T) {
		t.Parallel()

		var sb []byte
		for range maxPresetSlots + 1 {
			sb = append(sb, "tank:Heavy Mace:1,"...)
		}

		_, err := parseSlots(string(sb))
		require.ErrorIs(t, err, errBadSlotSpec)
	})
}

func TestCompositionEmbed(t *testing.T) {
	t.Parallel()

	comp := &models.Composition{
		Name: "ZvZ Core",
		Slots: []*models.CompositionSlot{
			{ID: 1, Role: models.RoleTank, Weapon: "Heavy Mace", Capacity: 2},
			{ID: 2, Role: models.RoleDPS, Weapon: "Spirithunter", Capacity: 1, MinKills: 50},
		},
	}
	signups := []models.CompositionSignup{
		{SlotID: 1, UserID: 100},
		{SlotID: 2, UserID: 200},
		{SlotID: 2, UserID: 300, IsFill: true},
	}

	embed := compositionEmbed(comp, signups)

	assert.Equal(t, "ZvZ Core", embed.Title)
	require.Len(t, embed.Fields, 3)

	assert.Equal(t, "Tank — Heavy Mace (1/2)", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "<@100>")

	assert.Equal(t, "DPS — Spirithunter (1/1) · 50+ kills", embed.Fields[1].Name)
	assert.Contains(t, embed.Fields[1].Value, "<@200>")

	assert.Equal(t, "Fill queue", embed.Fields[2].Name)
	assert.Contains(t, embed.Fields[2].Value, "<@300>")
	assert.Contains(t, embed.Fields[2].Value, "Spirithunter")
}

func TestCompositionEmbedEmptySlot(t *testing.T) {
	t.Parallel()

	comp := &models.Composition{
		Name:  "Small Scale",
		Slots: []*models.CompositionSlot{{ID: 1, Role: models.RoleHealer, Weapon: "Hallowfall", Capacity: 1}},
	}

	embed := compositionEmbed(comp, nil)

	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "Healer — Hallowfall (0/1)", embed.Fields[0].Name)
	assert.Equal(t, "—", embed.Fields[0].Value)
}

func TestSignupButtons(t *testing.T) {
	t.Parallel()

	slots := make([]*models.CompositionSlot, 7)
	for i := range slots {
		slots[i] = &models.CompositionSlot{ID: int64(i + 1), Weapon: "Weapon"}
	}

	rows := signupButtons(slots)

	// 7 join buttons chunk into two rows, plus the leave row.
	require.Len(t, rows, 3)
}

func TestTitleRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Tank", titleRole(models.RoleTank))
	assert.Equal(t, "DPS", titleRole(models.RoleDPS))
	assert.Equal(t, "Battlemount", titleRole(models.RoleBattlemount))
	assert.Equal(t, "", titleRole(""))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0m", formatDuration(0))
	assert.Equal(t, "12m", formatDuration(12*60+30))
	assert.Equal(t, "3h 25m", formatDuration(3*3600+25*60))
}
