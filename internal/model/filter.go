package model

import (
	"maps"
	"slices"
	"sort"
)

// Source records how a filter value was obtained
type Source string

const (
	SourceExplicit Source = "explicit" // stated by the user
	SourceInferred Source = "inferred" // derived from an intent keyword
)

// Field names a scalar constraint of a Filter
type Field string

const (
	FieldPriceMax Field = "price_max"
	FieldPriceMin Field = "price_min"
	FieldRAM      Field = "ram_min_gb"
	FieldStorage  Field = "storage_min_gb"
	FieldBattery  Field = "battery_min_mah"
	FieldBrand    Field = "brand"
)

// NumericFields lists the integer-valued fields in a stable order
var NumericFields = []Field{FieldPriceMax, FieldPriceMin, FieldRAM, FieldStorage, FieldBattery}

// Filter is the structured, partial description of the phone a user wants.
// Absent constraints are nil. Every present numeric value is positive.
type Filter struct {
	PriceMax      *int             `json:"price_max,omitempty"`
	PriceMin      *int             `json:"price_min,omitempty"`
	RAMMinGB      *int             `json:"ram_min_gb,omitempty"`
	StorageMinGB  *int             `json:"storage_min_gb,omitempty"`
	BatteryMinMAh *int             `json:"battery_min_mah,omitempty"`
	Brand         *string          `json:"brand,omitempty"`
	IntentTags    []string         `json:"intent_tags,omitempty"`
	Provenance    map[Field]Source `json:"provenance,omitempty"`
}

// Int returns the value of a numeric field, or nil when absent
func (f *Filter) Int(field Field) *int {
	if p := f.intRef(field); p != nil {
		return *p
	}
	return nil
}

// SetInt stores a numeric field together with its provenance
func (f *Filter) SetInt(field Field, value int, src Source) {
	ref := f.intRef(field)
	if ref == nil {
		return
	}
	v := value
	*ref = &v
	f.setSource(field, src)
}

// SetBrand stores the canonical brand together with its provenance
func (f *Filter) SetBrand(brand string, src Source) {
	b := brand
	f.Brand = &b
	f.setSource(FieldBrand, src)
}

// Clear removes a field and its provenance
func (f *Filter) Clear(field Field) {
	if field == FieldBrand {
		f.Brand = nil
	} else if ref := f.intRef(field); ref != nil {
		*ref = nil
	}
	if f.Provenance != nil {
		delete(f.Provenance, field)
		if len(f.Provenance) == 0 {
			f.Provenance = nil
		}
	}
}

// SourceOf reports the provenance of a present field
func (f *Filter) SourceOf(field Field) Source {
	return f.Provenance[field]
}

// HasTag reports whether the filter carries the given intent tag
func (f *Filter) HasTag(tag string) bool {
	i := sort.SearchStrings(f.IntentTags, tag)
	return i < len(f.IntentTags) && f.IntentTags[i] == tag
}

// AddTag inserts a tag keeping IntentTags sorted and unique
func (f *Filter) AddTag(tag string) {
	i := sort.SearchStrings(f.IntentTags, tag)
	if i < len(f.IntentTags) && f.IntentTags[i] == tag {
		return
	}
	f.IntentTags = slices.Insert(f.IntentTags, i, tag)
}

// RemoveTag deletes a tag if present
func (f *Filter) RemoveTag(tag string) {
	i := sort.SearchStrings(f.IntentTags, tag)
	if i < len(f.IntentTags) && f.IntentTags[i] == tag {
		f.IntentTags = slices.Delete(f.IntentTags, i, i+1)
		if len(f.IntentTags) == 0 {
			f.IntentTags = nil
		}
	}
}

// IsEmpty reports whether no constraint at all is present
func (f *Filter) IsEmpty() bool {
	for _, field := range NumericFields {
		if f.Int(field) != nil {
			return false
		}
	}
	return f.Brand == nil && len(f.IntentTags) == 0
}

// HasPrice reports whether either price bound is present
func (f *Filter) HasPrice() bool {
	return f.PriceMax != nil || f.PriceMin != nil
}

// Clone returns a deep copy that shares no memory with f
func (f Filter) Clone() Filter {
	out := Filter{
		IntentTags: slices.Clone(f.IntentTags),
		Provenance: maps.Clone(f.Provenance),
	}
	for _, field := range NumericFields {
		if v := f.Int(field); v != nil {
			n := *v
			*out.intRef(field) = &n
		}
	}
	if f.Brand != nil {
		b := *f.Brand
		out.Brand = &b
	}
	return out
}

// Equal compares two filters by value
func (f Filter) Equal(other Filter) bool {
	for _, field := range NumericFields {
		a, b := f.Int(field), other.Int(field)
		if (a == nil) != (b == nil) || (a != nil && *a != *b) {
			return false
		}
	}
	if (f.Brand == nil) != (other.Brand == nil) || (f.Brand != nil && *f.Brand != *other.Brand) {
		return false
	}
	return slices.Equal(f.IntentTags, other.IntentTags) && maps.Equal(f.Provenance, other.Provenance)
}

func (f *Filter) intRef(field Field) **int {
	switch field {
	case FieldPriceMax:
		return &f.PriceMax
	case FieldPriceMin:
		return &f.PriceMin
	case FieldRAM:
		return &f.RAMMinGB
	case FieldStorage:
		return &f.StorageMinGB
	case FieldBattery:
		return &f.BatteryMinMAh
	}
	return nil
}

func (f *Filter) setSource(field Field, src Source) {
	if f.Provenance == nil {
		f.Provenance = make(map[Field]Source)
	}
	f.Provenance[field] = src
}

// Slot is one extracted value with its provenance; a zero Slot is absent
type Slot struct {
	Value  int    `json:"value"`
	Source Source `json:"source,omitempty"`
}

// Present reports whether the slot carries a value
func (s Slot) Present() bool {
	return s.Source != ""
}

// Explicit builds a slot stated by the user
func Explicit(v int) Slot { return Slot{Value: v, Source: SourceExplicit} }

// Inferred builds a slot derived from an intent keyword
func Inferred(v int) Slot { return Slot{Value: v, Source: SourceInferred} }

// Extraction is what one utterance says about the wanted phone. It is
// produced per turn, folded into a Filter and then dropped.
type Extraction struct {
	PriceMax      Slot `json:"price_max"`
	PriceMin      Slot `json:"price_min"`
	RAMMinGB      Slot `json:"ram_min_gb"`
	StorageMinGB  Slot `json:"storage_min_gb"`
	BatteryMinMAh Slot `json:"battery_min_mah"`

	Brand       string `json:"brand,omitempty"`
	BrandSource Source `json:"brand_source,omitempty"`

	IntentTags  []string `json:"intent_tags,omitempty"`
	NegatedTags []string `json:"negated_tags,omitempty"`

	// PriceFactor scales the prior price cap ("cheaper" = 0.8); zero means none
	PriceFactor float64 `json:"price_factor,omitempty"`

	SearchCommand bool `json:"search_command,omitempty"`

	// Superseded lists fields mentioned more than once; only the last mention was kept
	Superseded []Field `json:"superseded,omitempty"`
}

// Slot returns the extracted slot for a numeric field
func (e Extraction) Slot(field Field) Slot {
	switch field {
	case FieldPriceMax:
		return e.PriceMax
	case FieldPriceMin:
		return e.PriceMin
	case FieldRAM:
		return e.RAMMinGB
	case FieldStorage:
		return e.StorageMinGB
	case FieldBattery:
		return e.BatteryMinMAh
	}
	return Slot{}
}

// SetSlot replaces the slot for a numeric field
func (e *Extraction) SetSlot(field Field, s Slot) {
	switch field {
	case FieldPriceMax:
		e.PriceMax = s
	case FieldPriceMin:
		e.PriceMin = s
	case FieldRAM:
		e.RAMMinGB = s
	case FieldStorage:
		e.StorageMinGB = s
	case FieldBattery:
		e.BatteryMinMAh = s
	}
}

// IsEmpty reports whether the utterance carried no filter signal
func (e Extraction) IsEmpty() bool {
	for _, field := range NumericFields {
		if e.Slot(field).Present() {
			return false
		}
	}
	return e.BrandSource == "" && len(e.IntentTags) == 0 && len(e.NegatedTags) == 0 && e.PriceFactor == 0
}
