package service

import (
	"strings"

	"phonefinder/internal/model"
)

// Match reason constants
const (
	ReasonPriceMatch   = "Price within budget"
	ReasonRAMMatch     = "Enough RAM"
	ReasonStorageMatch = "Enough storage"
	ReasonBatteryMatch = "Battery capacity match"
	ReasonBrandMatch   = "Brand match"
	ReasonGamingChip   = "Gaming-grade processor"
	ReasonCamera       = "48MP+ main camera"
	ReasonDisplay      = "Large display"
	ReasonCompact      = "Compact size"
	ReasonLongBattery  = "Long battery life"
	ReasonBudgetPick   = "Budget pick"
	ReasonPremium      = "Premium model"
	ReasonGeneralMatch = "General match"
)

var tagReasons = map[string]string{
	"gaming":       ReasonGamingChip,
	"camera":       ReasonCamera,
	"photography":  ReasonCamera,
	"display":      ReasonDisplay,
	"compact":      ReasonCompact,
	"battery-life": ReasonLongBattery,
	"budget":       ReasonBudgetPick,
	"premium":      ReasonPremium,
}

// MatchedReasons explains why a phone matched; it never reorders results
func MatchedReasons(p model.Phone, f model.Filter) []string {
	reasons := []string{}
	seen := map[string]bool{}
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			reasons = append(reasons, r)
		}
	}

	if f.HasPrice() {
		add(ReasonPriceMatch)
	}
	if f.RAMMinGB != nil && p.RAMGB >= float64(*f.RAMMinGB) {
		add(ReasonRAMMatch)
	}
	if f.StorageMinGB != nil && p.StorageGB >= float64(*f.StorageMinGB) {
		add(ReasonStorageMatch)
	}
	if f.BatteryMinMAh != nil && p.BatteryMAh >= *f.BatteryMinMAh {
		add(ReasonBatteryMatch)
	}
	if f.Brand != nil && strings.EqualFold(p.Brand, *f.Brand) {
		add(ReasonBrandMatch)
	}
	for _, tag := range f.IntentTags {
		if r, ok := tagReasons[tag]; ok && p.MatchesTag(tag) {
			add(r)
		}
	}

	if len(reasons) == 0 {
		add(ReasonGeneralMatch)
	}
	return reasons
}
