package albion

import "strings"

// Role buckets a weapon line into the slot roles used by rankings and
// composition presets.
type Role string

const (
	RoleTank        Role = "tank"
	RoleHealer      Role = "healer"
	RoleSupport     Role = "support"
	RoleRangedDPS   Role = "ranged_dps"
	RoleMeleeDPS    Role = "melee_dps"
	RoleBattlemount Role = "battlemount"
)

// weaponRoles maps MurderLedger weapon family names to roles. Families not
// listed here fall through the prefix rules in WeaponRole.
var weaponRoles = map[string]Role{
	"Mace":            RoleTank,
	"Heavy Mace":      RoleTank,
	"Morning Star":    RoleTank,
	"Bedrock Mace":    RoleTank,
	"Camlann Mace":    RoleTank,
	"Oathkeepers":     RoleTank,
	"Hammer":          RoleTank,
	"Polehammer":      RoleTank,
	"Great Hammer":    RoleTank,
	"Tombhammer":      RoleTank,
	"Forge Hammers":   RoleTank,
	"Grovekeeper":     RoleTank,
	"Quarterstaff":    RoleTank,
	"Iron-clad Staff": RoleTank,
	"Double Bladed":   RoleTank,
	"Black Monk":      RoleTank,
	"Soulscythe":      RoleTank,

	"Holy Staff":     RoleHealer,
	"Great Holy":     RoleHealer,
	"Divine Staff":   RoleHealer,
	"Lifetouch":      RoleHealer,
	"Fallen Staff":   RoleHealer,
	"Redemption":     RoleHealer,
	"Hallowfall":     RoleHealer,
	"Nature Staff":   RoleHealer,
	"Great Nature":   RoleHealer,
	"Wild Staff":     RoleHealer,
	"Druidic Staff":  RoleHealer,
	"Blight Staff":   RoleHealer,
	"Rampant Staff":  RoleHealer,
	"Ironroot Staff": RoleHealer,

	"Arcane Staff":      RoleSupport,
	"Great Arcane":      RoleSupport,
	"Enigmatic Staff":   RoleSupport,
	"Witchwork Staff":   RoleSupport,
	"Occult Staff":      RoleSupport,
	"Malevolent Locus":  RoleSupport,
	"Evensong":          RoleSupport,
	"Cursed Staff":      RoleSupport,
	"Great Cursed":      RoleSupport,
	"Demonic Staff":     RoleSupport,
	"Lifecurse Staff":   RoleSupport,
	"Cursed Skull":      RoleSupport,
	"Damnation Staff":   RoleSupport,
	"Shadowcaller":      RoleSupport,
	"Rotcaller Staff":   RoleSupport,
	"Song of Khaitan":   RoleSupport,
	"Harpists' Lament":  RoleSupport,
	"Symphony of Tears": RoleSupport,

	"Bow":              RoleRangedDPS,
	"Warbow":           RoleRangedDPS,
	"Longbow":          RoleRangedDPS,
	"Whispering Bow":   RoleRangedDPS,
	"Wailing Bow":      RoleRangedDPS,
	"Bow of Badon":     RoleRangedDPS,
	"Mistpiercer":      RoleRangedDPS,
	"Skystrider Bow":   RoleRangedDPS,
	"Crossbow":         RoleRangedDPS,
	"Heavy Crossbow":   RoleRangedDPS,
	"Light Crossbow":   RoleRangedDPS,
	"Weeping Repeater": RoleRangedDPS,
	"Boltcasters":      RoleRangedDPS,
	"Siegebow":         RoleRangedDPS,
	"Energy Shaper":    RoleRangedDPS,
	"Fire Staff":       RoleRangedDPS,
	"Great Fire":       RoleRangedDPS,
	"Infernal Staff":   RoleRangedDPS,
	"Wildfire Staff":   RoleRangedDPS,
	"Brimstone Staff":  RoleRangedDPS,
	"Blazing Staff":    RoleRangedDPS,
	"Dawnsong":         RoleRangedDPS,
	"Frost Staff":      RoleRangedDPS,
	"Great Frost":      RoleRangedDPS,
	"Glacial Staff":    RoleRangedDPS,
	"Hoarfrost Staff":  RoleRangedDPS,
	"Icicle Staff":     RoleRangedDPS,
	"Permafrost Prism": RoleRangedDPS,
	"Chillhowl":        RoleRangedDPS,
	"Shatterbringer":   RoleRangedDPS,
	"Frostfire Staves": RoleRangedDPS,

	"Broadsword":         RoleMeleeDPS,
	"Claymore":           RoleMeleeDPS,
	"Dual Swords":        RoleMeleeDPS,
	"Clarent Blade":      RoleMeleeDPS,
	"Carving Sword":      RoleMeleeDPS,
	"Galatine Pair":      RoleMeleeDPS,
	"Kingmaker":          RoleMeleeDPS,
	"Infinity Blade":     RoleMeleeDPS,
	"Battleaxe":          RoleMeleeDPS,
	"Greataxe":           RoleMeleeDPS,
	"Halberd":            RoleMeleeDPS,
	"Carrioncaller":      RoleMeleeDPS,
	"Infernal Scythe":    RoleMeleeDPS,
	"Bear Paws":          RoleMeleeDPS,
	"Realmbreaker":       RoleMeleeDPS,
	"Crystal Reaper":     RoleMeleeDPS,
	"Dagger":             RoleMeleeDPS,
	"Dagger Pair":        RoleMeleeDPS,
	"Claws":              RoleMeleeDPS,
	"Bloodletter":        RoleMeleeDPS,
	"Black Hands":        RoleMeleeDPS,
	"Deathgivers":        RoleMeleeDPS,
	"Demonfang":          RoleMeleeDPS,
	"Bridled Fury":       RoleMeleeDPS,
	"Spear":              RoleMeleeDPS,
	"Pike":               RoleMeleeDPS,
	"Glaive":             RoleMeleeDPS,
	"Heron Spear":        RoleMeleeDPS,
	"Spirithunter":       RoleMeleeDPS,
	"Trinity Spear":      RoleMeleeDPS,
	"Daybreaker":         RoleMeleeDPS,
	"Rift Glaive":        RoleMeleeDPS,
	"Brawler Gloves":     RoleMeleeDPS,
	"Battle Bracers":     RoleMeleeDPS,
	"Spiked Gauntlets":   RoleMeleeDPS,
	"Ursine Maulers":     RoleMeleeDPS,
	"Hellfire Hands":     RoleMeleeDPS,
	"Ravenstrike Cestus": RoleMeleeDPS,
	"Fists of Avalon":    RoleMeleeDPS,
}

// WeaponRole classifies a MurderLedger weapon family name into a role. Names
// absent from the table are classified by keyword, defaulting to melee DPS.
func WeaponRole(weapon string) Role {
	if role, ok := weaponRoles[weapon]; ok {
		return role
	}

	lower := strings.ToLower(weapon)
	switch {
	case strings.Contains(lower, "mount"):
		return RoleBattlemount
	case strings.Contains(lower, "holy") || strings.Contains(lower, "nature"):
		return RoleHealer
	case strings.Contains(lower, "arcane") || strings.Contains(lower, "cursed"):
		return RoleSupport
	case strings.Contains(lower, "bow") || strings.Contains(lower, "fire") ||
		strings.Contains(lower, "frost") || strings.Contains(lower, "crossbow"):
		return RoleRangedDPS
	case strings.Contains(lower, "mace") || strings.Contains(lower, "hammer"):
		return RoleTank
	default:
		return RoleMeleeDPS
	}
}

// BestWeaponByRole picks, per role, the weapon line with the highest Elo from
// a player's ledger. Lines with too few usages are ignored.
func BestWeaponByRole(stats []WeaponStats, minUsages int) map[Role]WeaponStats {
	best := make(map[Role]WeaponStats)
	for _, s := range stats {
		if s.Usages < minUsages {
			continue
		}
		role := WeaponRole(s.Weapon)
		if current, ok := best[role]; !ok || s.Elo > current.Elo {
			best[role] = s
		}
	}
	return best
}
