package albion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeaponRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		weapon string
		want   Role
	}{
		{"Heavy Mace", RoleTank},
		{"Hallowfall", RoleHealer},
		{"Great Arcane", RoleSupport},
		{"Permafrost Prism", RoleRangedDPS},
		{"Bloodletter", RoleMeleeDPS},
		// Families missing from the table fall through the keyword rules.
		{"Shadowfrost Staff", RoleRangedDPS},
		{"Siege Ballista Mount", RoleBattlemount},
		{"Completely Unknown", RoleMeleeDPS},
	}

	for _, tt := range tests {
		t.Run(tt.weapon, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WeaponRole(tt.weapon))
		})
	}
}

func TestBestWeaponByRole(t *testing.T) {
	t.Parallel()

	stats := []WeaponStats{
		{Weapon: "Heavy Mace", Elo: 1100, Usages: 40},
		{Weapon: "Hammer", Elo: 1250, Usages: 12},
		{Weapon: "Hallowfall", Elo: 1300, Usages: 80},
		{Weapon: "Bloodletter", Elo: 1500, Usages: 3},
	}

	best := BestWeaponByRole(stats, 10)

	assert.Equal(t, "Hammer", best[RoleTank].Weapon)
	assert.Equal(t, "Hallowfall", best[RoleHealer].Weapon)
	assert.NotContains(t, best, RoleMeleeDPS, "lines below the usage floor are ignored")
}
