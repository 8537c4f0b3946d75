package payload

// displayNameFixes repairs feed identifiers into readable display names.
// Unknown ids pass through unchanged.
var displayNameFixes = map[string]string{
	"SummerHarvest":     "Summer Harvest",
	"AuroraBorealis":    "Aurora Borealis",
	"TropicalRain":      "Tropical Rain",
	"NightEvent":        "Night",
	"SunGod":            "Sun God",
	"MegaHarvest":       "Mega Harvest",
	"BloodMoonEvent":    "Blood Moon",
	"MeteorShower":      "Meteor Shower",
	"SpaceTravel":       "Space Travel",
	"DJJhai":            "DJ Jhai",
	"JandelStorm":       "Jandel Storm",
	"DJSandstorm":       "DJ Sandstorm",
	"UnderTheSea":       "Under The Sea",
	"AlienInvasion":     "Alien Invasion",
	"JandelLazer":       "Jandel Lazer",
	"PoolParty":         "Pool Party",
	"JandelZombie":      "Jandel Zombie",
	"RadioactiveCarrot": "Radioactive Carrot",
	"ZenAura":           "Zen Aura",
	"CrystalBeams":      "Crystal Beams",
	"JandelFloat":       "Jandel Float",
	"ChickenRain":       "Chicken Rain",
	"TK_RouteRunner":    "Route Runner",
	"TK_MoneyRain":      "Money Rain",
	"TK_LightningStorm": "Lightning Storm",
	"CorruptZenAura":    "Corrupt Zen Aura",
	"JandelKatana":      "Jandel Katana",
	"AcidRain":          "Acid Rain",
	"MeteorStrike":      "Meteor Strike",
	"FlamingoFloat":     "Flamingo Float",
	"FlamingoLazer":     "Flamingo Lazer",
	"JunkbotRaid":       "Junkbot Raid",
	"KitchenStorm":      "Kitchen Storm",
	"SolarEclipse":      "Solar Eclipse",
	"ChocolateRain":     "Chocolate Rain",
	"Beanaura":          "Bean Aura",
	"fairies":           "Fairies",
	"BoomboxParty":      "Boombox Party",
	"JandelWaldo":       "Jandel Waldo",
	"WaterYourGardens":  "Water Your Gardens",
	"RainDance":         "Rain Dance",
	"BeeNado":           "Beenado",
}

// adminEventIDs marks operator-triggered conditions. They get a shared
// audience tag instead of a per-condition one.
var adminEventIDs = map[string]struct{}{
	"SummerHarvest":     {},
	"Mega Harvest":      {},
	"SpaceTravel":       {},
	"Disco":             {},
	"DJJhai":            {},
	"Blackhole":         {},
	"JandelStorm":       {},
	"DJSandstorm":       {},
	"Volcano":           {},
	"UnderTheSea":       {},
	"AlienInvasion":     {},
	"JandelLazer":       {},
	"Obby":              {},
	"PoolParty":         {},
	"JandelZombie":      {},
	"RadioactiveCarrot": {},
	"Armageddon":        {},
	"ZenAura":           {},
	"JandelFloat":       {},
	"ChickenRain":       {},
	"TK_RouteRunner":    {},
	"TK_MoneyRain":      {},
	"TK_LightningStorm": {},
	"CorruptZenAura":    {},
	"JandelKatana":      {},
	"MeteorStrike":      {},
	"FlamingoFloat":     {},
	"FlamingoLazer":     {},
	"JunkbotRaid":       {},
	"Boil":              {},
	"Oil":               {},
	"KitchenStorm":      {},
	"Stoplight":         {},
	"ChocolateRain":     {},
	"Boombox Party":     {},
	"Brainrot Stampede": {},
	"Brainrot Portal":   {},
	"Dissonant":         {},
	"Beanaura":          {},
	"fairies":           {},
	"Jandel UFO":        {},
	"Jandel Waldo":      {},
	"Pyramid Obby":      {},
	"Bean Aura":         {},
	"BoomboxParty":      {},
	"JandelWaldo":       {},
	"WaterYourGardens":  {},
	"RainDance":         {},
	"Rainbow":           {},
	"AirHead":           {},
	"BeeNado":           {},
}

// RepairWeatherName maps a raw condition id to its display name.
func RepairWeatherName(raw string) string {
	if raw == "" {
		return "(unknown)"
	}
	if fixed, ok := displayNameFixes[raw]; ok {
		return fixed
	}
	return raw
}

// IsAdminEvent reports whether a raw condition id is operator-triggered.
func IsAdminEvent(rawID string) bool {
	_, ok := adminEventIDs[rawID]
	return ok
}
