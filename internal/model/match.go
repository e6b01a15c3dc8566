package model

import (
	"regexp"
	"strings"
)

// Thresholds behind the intent tags that constrain catalog columns
const (
	CameraMinMP       = 48.0
	DisplayMinInches  = 6.0
	CompactMaxInches  = 6.0
	BatteryLifeMinMAh = 4500
)

// GamingChipPattern matches processors considered fit for gaming
const GamingChipPattern = `snapdragon|dimensity|gaming`

var gamingChipRe = regexp.MustCompile(`(?i)` + GamingChipPattern)

// MatchesTag reports whether the phone satisfies the tag's predicate. Tags
// without a catalog predicate (budget, premium, fast-charging) always match.
func (p Phone) MatchesTag(tag string) bool {
	switch tag {
	case "gaming":
		return p.Processor != nil && gamingChipRe.MatchString(*p.Processor)
	case "camera", "photography":
		return p.BackCameraMP >= CameraMinMP
	case "display":
		return p.ScreenSizeInches >= DisplayMinInches
	case "compact":
		return p.ScreenSizeInches > 0 && p.ScreenSizeInches <= CompactMaxInches
	case "battery-life":
		return p.BatteryMAh >= BatteryLifeMinMAh
	}
	return true
}

// Matches reports whether the phone satisfies every constraint of the filter
func (f *Filter) Matches(p Phone) bool {
	if f.PriceMax != nil && p.PriceRs > *f.PriceMax {
		return false
	}
	if f.PriceMin != nil && p.PriceRs < *f.PriceMin {
		return false
	}
	if f.RAMMinGB != nil && p.RAMGB < float64(*f.RAMMinGB) {
		return false
	}
	if f.StorageMinGB != nil && p.StorageGB < float64(*f.StorageMinGB) {
		return false
	}
	if f.BatteryMinMAh != nil && p.BatteryMAh < *f.BatteryMinMAh {
		return false
	}
	if f.Brand != nil && !strings.EqualFold(p.Brand, *f.Brand) {
		return false
	}
	for _, tag := range f.IntentTags {
		if !p.MatchesTag(tag) {
			return false
		}
	}
	return true
}

// SortsByPrice reports whether results should be ordered cheapest first
func (f *Filter) SortsByPrice() bool {
	return f.HasTag("budget")
}
