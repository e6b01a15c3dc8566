package service

import (
	"math"

	"phonefinder/internal/config"
	"phonefinder/internal/model"
)

// Merger folds per-turn extractions into the accumulated filter
type Merger struct {
	inference []config.InferenceRule
}

// NewMerger creates a merger aware of the vocabulary's inference rules
func NewMerger(vocab *config.Vocabulary) *Merger {
	return &Merger{inference: vocab.Inference}
}

// Merge returns prior updated with in. Explicit slots replace the prior
// value; an inferred slot never overrides an explicit value and otherwise
// only tightens the bound. Tags accumulate and negated tags are removed.
// prior is never modified.
func (m *Merger) Merge(prior model.Filter, in model.Extraction) model.Filter {
	out := prior.Clone()
	stated := make(map[model.Field]model.Source)

	for _, field := range model.NumericFields {
		s := in.Slot(field)
		if !s.Present() || !overrides(&out, field, s) {
			continue
		}
		out.SetInt(field, s.Value, s.Source)
		stated[field] = s.Source
	}
	if in.BrandSource != "" {
		out.SetBrand(in.Brand, in.BrandSource)
	}

	for _, tag := range in.IntentTags {
		out.AddTag(tag)
	}
	for _, tag := range in.NegatedTags {
		out.RemoveTag(tag)
		m.dropInferred(&out, tag, stated)
	}

	if in.PriceFactor != 0 && !in.PriceMax.Present() && out.PriceMax != nil {
		adjusted := int(math.Round(float64(*out.PriceMax) * in.PriceFactor))
		if adjusted > 0 {
			out.SetInt(model.FieldPriceMax, adjusted, model.SourceExplicit)
			stated[model.FieldPriceMax] = model.SourceExplicit
		}
	}

	resolveCrossedPrice(&out, stated)
	return out
}

// overrides reports whether slot s should replace the current value of field
func overrides(f *model.Filter, field model.Field, s model.Slot) bool {
	if s.Source == model.SourceExplicit {
		return true
	}
	current := f.Int(field)
	if current == nil {
		return true
	}
	if f.SourceOf(field) == model.SourceExplicit {
		return false
	}
	return stricter(field, s.Value, *current)
}

// dropInferred clears values a negated tag had implied, unless restated
func (m *Merger) dropInferred(f *model.Filter, tag string, stated map[model.Field]model.Source) {
	for _, r := range m.inference {
		if r.Tag != tag {
			continue
		}
		if _, ok := stated[r.Field]; ok {
			continue
		}
		if v := f.Int(r.Field); v != nil && *v == r.Value && f.SourceOf(r.Field) == model.SourceInferred {
			f.Clear(r.Field)
		}
	}
}

// resolveCrossedPrice drops the bound not stated this turn when min > max.
// An inferred bound never displaces an explicit one.
func resolveCrossedPrice(f *model.Filter, stated map[model.Field]model.Source) {
	if f.PriceMax == nil || f.PriceMin == nil || *f.PriceMin <= *f.PriceMax {
		return
	}

	drop := model.FieldPriceMin
	if _, ok := stated[model.FieldPriceMin]; ok {
		drop = model.FieldPriceMax
	}
	kept := model.FieldPriceMax
	if drop == model.FieldPriceMax {
		kept = model.FieldPriceMin
	}
	if f.SourceOf(kept) == model.SourceInferred && f.SourceOf(drop) != model.SourceInferred {
		drop = kept
	}
	f.Clear(drop)
}
