package service

import (
	"fmt"
	"strings"

	"phonefinder/internal/model"
)

// Fixed clarifying questions per missing signal
var questions = map[model.Signal]string{
	model.SignalPrice:      "What's your budget for the phone?",
	model.SignalAttributes: "Do you have a preferred brand, or anything that matters most to you like RAM, storage, camera, battery or gaming?",
}

// QuestionFor returns the clarifying question for a signal
func QuestionFor(sig model.Signal) string {
	return questions[sig]
}

// known reports whether a field is present and not merely inferred
func known(f *model.Filter, field model.Field) bool {
	present := false
	if field == model.FieldBrand {
		present = f.Brand != nil
	} else {
		present = f.Int(field) != nil
	}
	return present && f.SourceOf(field) != model.SourceInferred
}

// IsComplete reports whether the filter narrows the catalog enough to search:
// a price cap, RAM, storage or brand was given, or at least two intent tags.
func IsComplete(f model.Filter) bool {
	for _, field := range []model.Field{model.FieldPriceMax, model.FieldRAM, model.FieldStorage, model.FieldBrand} {
		if known(&f, field) {
			return true
		}
	}
	return len(f.IntentTags) >= 2
}

// MissingSignal names the most valuable next question, skipping declined ones
func MissingSignal(f model.Filter, declined ...model.Signal) model.Signal {
	if IsComplete(f) {
		return model.SignalNone
	}
	isDeclined := func(s model.Signal) bool {
		for _, d := range declined {
			if d == s {
				return true
			}
		}
		return false
	}
	if !known(&f, model.FieldPriceMax) && !known(&f, model.FieldPriceMin) && !isDeclined(model.SignalPrice) {
		return model.SignalPrice
	}
	if !isDeclined(model.SignalAttributes) {
		return model.SignalAttributes
	}
	return model.SignalNone
}

var tagPhrases = map[string]string{
	"gaming":        "for gaming",
	"camera":        "with a good camera",
	"photography":   "for photography",
	"battery-life":  "with long battery life",
	"display":       "with a great display",
	"fast-charging": "with fast charging",
	"compact":       "in a compact size",
	"premium":       "a premium/flagship model",
	"budget":        "on a budget",
}

// Describe renders the filter as a short phrase for replies
func Describe(f model.Filter) string {
	var parts []string
	if f.Brand != nil {
		parts = append(parts, fmt.Sprintf("a %s phone", titleCase(*f.Brand)))
	}
	switch {
	case f.PriceMin != nil && f.PriceMax != nil:
		parts = append(parts, fmt.Sprintf("between ₹%d and ₹%d", *f.PriceMin, *f.PriceMax))
	case f.PriceMax != nil:
		parts = append(parts, fmt.Sprintf("under ₹%d", *f.PriceMax))
	case f.PriceMin != nil:
		parts = append(parts, fmt.Sprintf("over ₹%d", *f.PriceMin))
	}
	if f.RAMMinGB != nil {
		parts = append(parts, fmt.Sprintf("with at least %dGB RAM", *f.RAMMinGB))
	}
	if f.StorageMinGB != nil {
		parts = append(parts, fmt.Sprintf("with at least %dGB storage", *f.StorageMinGB))
	}
	if f.BatteryMinMAh != nil {
		parts = append(parts, fmt.Sprintf("with at least %d mAh battery", *f.BatteryMinMAh))
	}
	for _, tag := range f.IntentTags {
		if tag == "battery-life" && f.BatteryMinMAh != nil {
			continue
		}
		if p, ok := tagPhrases[tag]; ok {
			parts = append(parts, p)
		} else {
			parts = append(parts, tag)
		}
	}
	return strings.Join(parts, ", ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
