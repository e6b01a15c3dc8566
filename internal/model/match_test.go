package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePhone() Phone {
	chip := "Qualcomm Snapdragon 7 Gen 1"
	return Phone{
		ID:               1,
		Brand:            "Samsung",
		Model:            "Galaxy A54",
		Processor:        &chip,
		RAMGB:            8,
		StorageGB:        128,
		BatteryMAh:       5000,
		BackCameraMP:     50,
		ScreenSizeInches: 6.4,
		PriceRs:          28000,
	}
}

func TestPhone_MatchesTag(t *testing.T) {
	p := samplePhone()
	small := samplePhone()
	small.ScreenSizeInches = 5.8
	small.BackCameraMP = 12
	small.BatteryMAh = 3200
	mediatek := "MediaTek Helio G85"
	small.Processor = &mediatek
	noChip := samplePhone()
	noChip.Processor = nil

	tests := []struct {
		name  string
		phone Phone
		tag   string
		want  bool
	}{
		{"snapdragon is gaming grade", p, "gaming", true},
		{"helio is not gaming grade", small, "gaming", false},
		{"missing processor", noChip, "gaming", false},
		{"50MP camera", p, "camera", true},
		{"12MP photography", small, "photography", false},
		{"large display", p, "display", true},
		{"small display", small, "display", false},
		{"compact", small, "compact", true},
		{"not compact", p, "compact", false},
		{"long battery", p, "battery-life", true},
		{"short battery", small, "battery-life", false},
		{"budget has no predicate", small, "budget", true},
		{"fast charging has no predicate", small, "fast-charging", true},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.22 loopvar semantics)
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.phone.MatchesTag(tt.tag))
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	p := samplePhone()

	build := func(fn func(f *Filter)) Filter {
		var f Filter
		fn(&f)
		return f
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"within price cap", build(func(f *Filter) { f.SetInt(FieldPriceMax, 30000, SourceExplicit) }), true},
		{"price cap is inclusive", build(func(f *Filter) { f.SetInt(FieldPriceMax, 28000, SourceExplicit) }), true},
		{"over price cap", build(func(f *Filter) { f.SetInt(FieldPriceMax, 20000, SourceExplicit) }), false},
		{"under price floor", build(func(f *Filter) { f.SetInt(FieldPriceMin, 50000, SourceInferred) }), false},
		{"ram too low", build(func(f *Filter) { f.SetInt(FieldRAM, 12, SourceExplicit) }), false},
		{"storage ok", build(func(f *Filter) { f.SetInt(FieldStorage, 128, SourceExplicit) }), true},
		{"battery too low", build(func(f *Filter) { f.SetInt(FieldBattery, 6000, SourceExplicit) }), false},
		{"brand is case-insensitive", build(func(f *Filter) { f.SetBrand("samsung", SourceExplicit) }), true},
		{"other brand", build(func(f *Filter) { f.SetBrand("apple", SourceExplicit) }), false},
		{"all tags hold", build(func(f *Filter) { f.AddTag("gaming"); f.AddTag("camera") }), true},
		{"one tag fails", build(func(f *Filter) { f.AddTag("gaming"); f.AddTag("compact") }), false},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.22 loopvar semantics)
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(p))
		})
	}
}

func TestPhone_Name(t *testing.T) {
	p := samplePhone()
	assert.Equal(t, "Samsung Galaxy A54", p.Name())

	p.Model = ""
	assert.Equal(t, "Samsung", p.Name())
}
