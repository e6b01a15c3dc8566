package service

import (
	"testing"

	"phonefinder/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestExtract_Price(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name    string
		query   string
		wantMax int // 0 = absent
		wantMin int
	}{
		{"currency after under", "under ₹15000", 15000, 0},
		{"with other tokens", "best camera phone under ₹15000 with 5000mah battery and 8gb ram", 15000, 0},
		{"rs marker", "phone within rs. 18,000", 18000, 0},
		{"k suffix", "something below 25k", 25000, 0},
		{"lakh suffix", "phone under 1.2 lakh", 120000, 0},
		{"bare currency", "₹22000 phone", 22000, 0},
		{"rupees after", "around 30000 rupees", 30000, 0},
		{"last mention wins", "under 20000, actually under 25000", 25000, 0},
		{"minimum", "something above 50k", 0, 50000},
		{"between range", "phone between 10k and 20k", 20000, 10000},
		{"dash range reversed", "₹30000 to ₹20000", 30000, 20000},
		{"unit is not price", "under 6 inch with 120 hz", 0, 0},
		{"ram is not price", "at least 8 gb ram", 0, 0},
		{"battery is not price", "more than 5000 mah", 0, 0},
		{"no price", "I want a phone", 0, 0},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.22 loopvar semantics)
		t.Run(tt.name, func(t *testing.T) {
			ex := e.Extract(tt.query)
			assertSlot(t, tt.wantMax, ex.PriceMax, "price max")
			assertSlot(t, tt.wantMin, ex.PriceMin, "price min")
		})
	}
}

func TestExtract_Memory(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name        string
		query       string
		wantRAM     int
		wantStorage int
	}{
		{"ram and storage", "8GB RAM and 128GB storage", 8, 128},
		{"storage then ram", "128 GB storage with 8 GB of RAM", 8, 128},
		{"ram first without and", "12gb ram 256gb storage", 12, 256},
		{"ram colon", "RAM: 6 GB please", 6, 0},
		{"ram label before storage", "RAM 8GB storage 128GB", 8, 128},
		{"ram label before internal", "ram 12gb internal 256gb", 12, 256},
		{"slash notation", "an 8/128 phone", 8, 128},
		{"terabyte", "1TB storage", 0, 1024},
		{"last ram wins", "6gb ram, no wait 8gb ram", 8, 0},
		{"plain gb is storage", "at least 256gb", 0, 256},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.22 loopvar semantics)
		t.Run(tt.name, func(t *testing.T) {
			ex := e.Extract(tt.query)
			assertSlot(t, tt.wantRAM, ex.RAMMinGB, "ram")
			assertSlot(t, tt.wantStorage, ex.StorageMinGB, "storage")
		})
	}
}

func TestExtract_Battery(t *testing.T) {
	ex := newTestExtractor().Extract("need a 5,000 mAh battery")
	assertSlot(t, 5000, ex.BatteryMinMAh, "battery")
	assert.Empty(t, ex.IntentTags, "a stated capacity needs no battery-life tag")

	ex = newTestExtractor().Extract("small battery is fine")
	assert.NotContains(t, ex.IntentTags, "battery-life")
	assert.Zero(t, ex.BatteryMinMAh.Value)
}

func TestExtract_Brand(t *testing.T) {
	e := newTestExtractor()

	tests := map[string]string{
		"samsung or apple":          "samsung",
		"an iphone with 256gb":      "apple",
		"galaxy s23":                "samsung",
		"redmi note under 15k":      "xiaomi",
		"OnePlus Nord":              "oneplus",
		"pixel 8 or a moto":         "google",
		"nothing fancy, any phone":  "",
		"the nothing phone 2":       "nothing",
		"applesauce is not a brand": "",
	}
	for query, want := range tests {
		ex := e.Extract(query)
		if want == "" {
			assert.Empty(t, ex.BrandSource, query)
			continue
		}
		assert.Equal(t, want, ex.Brand, query)
		assert.Equal(t, model.SourceExplicit, ex.BrandSource, query)
	}
}

func TestExtract_Intents(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name        string
		query       string
		wantTags    []string
		wantNegated []string
	}{
		{"two tags", "something compact with good battery life", []string{"battery-life", "compact"}, nil},
		{"battery phrase", "I want a big battery", []string{"battery-life"}, nil},
		{"negated battery phrase", "don't need a big battery", nil, []string{"battery-life"}},
		{"not for", "not for gaming, I need a good camera", []string{"camera"}, []string{"gaming"}},
		{"no", "no gaming", nil, []string{"gaming"}},
		{"without", "without fast charging is fine", nil, []string{"fast-charging"}},
		{"don't need", "I don't need a big screen", nil, []string{"display"}},
		{"last occurrence decides", "not for gaming... actually gaming matters", []string{"gaming"}, nil},
		{"word bounded", "photography is my hobby", []string{"photography"}, nil},
		{"no match", "I want a phone", nil, nil},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.22 loopvar semantics)
		t.Run(tt.name, func(t *testing.T) {
			ex := e.Extract(tt.query)
			assert.Equal(t, tt.wantTags, ex.IntentTags)
			assert.Equal(t, tt.wantNegated, ex.NegatedTags)
		})
	}
}

func TestExtract_Inference(t *testing.T) {
	e := newTestExtractor()

	t.Run("defaults fill absent fields", func(t *testing.T) {
		ex := e.Extract("budget gaming phone")
		assert.Equal(t, model.Inferred(15000), ex.PriceMax)
		assert.Equal(t, model.Inferred(8), ex.RAMMinGB)
	})

	t.Run("explicit outranks inferred", func(t *testing.T) {
		ex := e.Extract("budget phone under 20000 for gaming with 6gb ram")
		assert.Equal(t, model.Explicit(20000), ex.PriceMax)
		assert.Equal(t, model.Explicit(6), ex.RAMMinGB)
	})

	t.Run("contradicting defaults cancel", func(t *testing.T) {
		ex := e.Extract("a premium budget phone")
		assert.False(t, ex.PriceMax.Present())
		assert.False(t, ex.PriceMin.Present())
	})

	t.Run("inferred bound yields to explicit", func(t *testing.T) {
		ex := e.Extract("premium phone under 30000")
		assert.Equal(t, model.Explicit(30000), ex.PriceMax)
		assert.False(t, ex.PriceMin.Present())
	})

	t.Run("adjustment suppresses budget default", func(t *testing.T) {
		ex := e.Extract("cheaper budget options")
		assert.Equal(t, cheaperFactor, ex.PriceFactor)
		assert.False(t, ex.PriceMax.Present())
	})
}

func TestExtract_CommandsAndAdjustments(t *testing.T) {
	e := newTestExtractor()

	ex := e.Extract("show me cheaper ones")
	assert.True(t, ex.SearchCommand)
	assert.Equal(t, cheaperFactor, ex.PriceFactor)
	assert.Empty(t, ex.IntentTags)

	ex = e.Extract("something more expensive")
	assert.Equal(t, costlierFactor, ex.PriceFactor)
	assert.False(t, ex.SearchCommand)
}

func TestExtract_Superseded(t *testing.T) {
	ex := newTestExtractor().Extract("under 10k but above 20k")
	assert.Equal(t, model.Explicit(20000), ex.PriceMin)
	assert.False(t, ex.PriceMax.Present())
	assert.Equal(t, []model.Field{model.FieldPriceMax}, ex.Superseded)
}

func TestExtract_EndToEndQueries(t *testing.T) {
	e := newTestExtractor()
	m := newTestMerger()

	f := m.Merge(model.Filter{}, e.Extract("gaming phone under ₹20000 with at least 8GB RAM"))
	assert.Equal(t, intPtr(20000), f.PriceMax)
	assert.Equal(t, intPtr(8), f.RAMMinGB)
	assert.Equal(t, []string{"gaming"}, f.IntentTags)
	assert.Nil(t, f.PriceMin)
	assert.Nil(t, f.StorageMinGB)
	assert.True(t, IsComplete(f))

	f = m.Merge(model.Filter{}, e.Extract("something compact with good battery life"))
	assert.Equal(t, []string{"battery-life", "compact"}, f.IntentTags)
	for _, field := range model.NumericFields {
		assert.Nil(t, f.Int(field), string(field))
	}
	assert.True(t, IsComplete(f))

	ex := e.Extract("I want a phone")
	assert.True(t, ex.IsEmpty())
	f = m.Merge(model.Filter{}, ex)
	assert.False(t, IsComplete(f))
	assert.Equal(t, model.SignalPrice, MissingSignal(f))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		num, suffix string
		want        int
	}{
		{"15,000", "", 15000},
		{"20", "k", 20000},
		{"1.5", "lakh", 150000},
		{"2", "lacs", 200000},
		{"12.5", "k", 12500},
	}
	for _, tt := range tests {
		got, ok := parseAmount(tt.num, tt.suffix)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, tt.num+tt.suffix)
	}
}

func assertSlot(t *testing.T, want int, got model.Slot, field string) {
	t.Helper()
	if want == 0 {
		assert.False(t, got.Present(), "%s should be absent, got %d", field, got.Value)
		return
	}
	assert.Equal(t, model.Explicit(want), got, field)
}
