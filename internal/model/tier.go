package model

import (
	"strings"
)

// Tier is one of the five ordered bounce-back risk categories.
// Higher values rank higher: Platinum > Gold > Silver > Bronze > Copper.
type Tier int

// Tier constants, lowest rank first.
const (
	TierUnknown Tier = iota
	TierCopper
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
)

// Lower bounds for each tier, inclusive.
const (
	PlatinumThreshold = 0.8
	GoldThreshold     = 0.6
	SilverThreshold   = 0.4
	BronzeThreshold   = 0.2
)

var tierNames = map[Tier]string{
	TierCopper:   "Copper",
	TierBronze:   "Bronze",
	TierSilver:   "Silver",
	TierGold:     "Gold",
	TierPlatinum: "Platinum",
}

// Tiers returns the five named tiers from highest to lowest rank.
func Tiers() []Tier {
	return []Tier{TierPlatinum, TierGold, TierSilver, TierBronze, TierCopper}
}

// Classify maps a score to its tier. Thresholds are checked from high to low
// and the first match wins. Scores outside [0,1] are not rejected; they fall
// into Platinum or Copper. NaN compares false everywhere and lands in Copper.
func Classify(score float64) Tier {
	switch {
	case score >= PlatinumThreshold:
		return TierPlatinum
	case score >= GoldThreshold:
		return TierGold
	case score >= SilverThreshold:
		return TierSilver
	case score >= BronzeThreshold:
		return TierBronze
	default:
		return TierCopper
	}
}

// ParseTier resolves a label such as "Gold" to its tier.
func ParseTier(label string) (Tier, bool) {
	label = strings.TrimSpace(label)
	for t, name := range tierNames {
		if strings.EqualFold(label, name) {
			return t, true
		}
	}
	return TierUnknown, false
}

// String returns the display label of the tier.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Known reports whether t is one of the five named tiers.
func (t Tier) Known() bool {
	_, ok := tierNames[t]
	return ok
}
