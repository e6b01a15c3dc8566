package service

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"phonefinder/internal/config"
	"phonefinder/internal/model"

	"github.com/rs/zerolog"
)

// Price values without a currency marker or k/lakh suffix below this are
// read as something else ("at least 8 cores").
const minBarePrice = 500

const (
	currency = `(?:₹|\brs\.?|\binr|\$)`
	number   = `(\d[\d,]*(?:\.\d+)?)\s*(k|lakhs?|lacs?)?\b`
)

var (
	// Price patterns
	rangeBetweenRe = regexp.MustCompile(`\b(?:between|from)\s*(` + currency + `)?\s*` + number + `\s*(?:and|to|-)\s*(` + currency + `)?\s*` + number)
	rangeDashRe    = regexp.MustCompile(`(` + currency + `)\s*` + number + `\s*(?:to|-)\s*(` + currency + `)?\s*` + number)
	priceMaxRe     = regexp.MustCompile(`\b(?:under|below|less\s+than|lesser\s+than|within|up\s*to|max(?:imum)?|budget(?:\s+(?:of|is))?|around|about|approx(?:imately)?|no\s+more\s+than|not\s+more\s+than)\s*(?:of\s*)?(` + currency + `)?\s*` + number)
	priceMinRe     = regexp.MustCompile(`\b(?:over|above|more\s+than|at\s*least|minimum|starting\s+at)\s*(` + currency + `)?\s*` + number)
	currencyPreRe  = regexp.MustCompile(currency + `\s*` + number)
	currencyPostRe = regexp.MustCompile(number + `\s*(?:rupees?\b|rs\b\.?|inr\b|/-)`)
	unitAfterRe    = regexp.MustCompile(`^\s*(?:gb|tb|mah|mp|hz|inch|inches|"|w\b|mm\b|g\b|nm\b)`)

	// Memory and battery patterns
	ramStorageRe = regexp.MustCompile(`\b(\d{1,2})\s*(?:gb)?\s*[/+]\s*(\d{2,4})\s*(gb|tb)?\b`)
	ramBeforeRe  = regexp.MustCompile(`\b(\d{1,3})\s*gb\s*(?:of\s+)?(?:ram|memory)\b`)
	ramAfterRe   = regexp.MustCompile(`\bram\s*(?:of\s*|:\s*|-\s*|=\s*)?(\d{1,3})\s*gb\b`)
	storageRe    = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(gb|tb)\b`)
	batteryRe    = regexp.MustCompile(`\b(\d[\d,]*)\s*mah\b`)

	negationRe = regexp.MustCompile(`(?:\bnot(?:\s+for|\s+into|\s+interested\s+in|\s+looking\s+for)?|\bno(?:\s+need\s+for)?|\bwithout|\bdon['’]?t\s+(?:need|want|care\s+about)|\bdo\s+not\s+(?:need|want|care\s+about))\s+(?:(?:a|an|the|any|much|really|good|great|big)\s+)*$`)

	cheaperRe   = regexp.MustCompile(`\b(?:cheaper|less\s+expensive|lower\s+(?:budget|price))\b`)
	costlierRe  = regexp.MustCompile(`\b(?:costlier|pricier|more\s+expensive|higher\s+(?:budget|price))\b`)
	searchCmdRe = regexp.MustCompile(`\b(?:search|show\s+me|find\s+phones|go\s+ahead|results|what\s+do\s+you\s+have)\b`)
)

// Common storage sizes, used to read "8/128" without a unit
var storageSizes = map[int]bool{16: true, 32: true, 64: true, 128: true, 256: true, 512: true, 1024: true}

// Relative price adjustments
const (
	cheaperFactor  = 0.8
	costlierFactor = 1.25
)

type termMatcher struct {
	re    *regexp.Regexp
	value string // canonical brand or intent tag
}

type mention struct {
	field      model.Field
	value      int
	start, end int
}

// Extractor turns free text into an Extraction using the vocabulary's
// brands, intent phrases and inference rules.
type Extractor struct {
	brands    []termMatcher
	intents   []termMatcher
	inference []config.InferenceRule
	log       zerolog.Logger
}

// NewExtractor compiles the vocabulary into matchers
func NewExtractor(vocab *config.Vocabulary, log zerolog.Logger) *Extractor {
	e := &Extractor{
		inference: vocab.Inference,
		log:       log,
	}
	for _, b := range vocab.Brands {
		for _, term := range b.Terms() {
			e.brands = append(e.brands, termMatcher{re: phraseRegexp(term), value: b.Name})
		}
	}
	for _, in := range vocab.Intents {
		for _, p := range in.Phrases {
			e.intents = append(e.intents, termMatcher{re: phraseRegexp(p), value: in.Tag})
		}
	}
	return e
}

func phraseRegexp(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b` + strings.Join(words, `[\s-]+`) + `\b`)
}

// Extract never fails; text without any signal yields an empty Extraction
func (e *Extractor) Extract(text string) model.Extraction {
	lower := strings.ToLower(text)
	var ex model.Extraction

	var mentions []mention
	mentions = append(mentions, extractPrices(lower)...)
	mentions = append(mentions, extractMemory(lower)...)
	mentions = append(mentions, extractBattery(lower)...)
	e.resolveMentions(&ex, mentions)

	if brand, ok := e.extractBrand(lower); ok {
		ex.Brand = brand
		ex.BrandSource = model.SourceExplicit
	}

	ex.IntentTags, ex.NegatedTags = e.extractIntents(lower)

	switch {
	case cheaperRe.MatchString(lower):
		ex.PriceFactor = cheaperFactor
	case costlierRe.MatchString(lower):
		ex.PriceFactor = costlierFactor
	}

	ex.SearchCommand = searchCmdRe.MatchString(lower)

	e.applyInference(&ex)

	if len(ex.Superseded) > 0 {
		e.log.Debug().Interface("fields", ex.Superseded).Msg("same-turn mentions superseded")
	}
	return ex
}

// resolveMentions keeps the lexically last mention of every field
func (e *Extractor) resolveMentions(ex *model.Extraction, mentions []mention) {
	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].start < mentions[j].start })

	last := make(map[model.Field]mention)
	superseded := make(map[model.Field]bool)
	for _, m := range mentions {
		if prev, ok := last[m.field]; ok && prev.value != m.value {
			superseded[m.field] = true
		}
		last[m.field] = m
	}

	// Crossed bounds in one utterance: the later statement wins
	maxM, hasMax := last[model.FieldPriceMax]
	minM, hasMin := last[model.FieldPriceMin]
	if hasMax && hasMin && minM.value > maxM.value {
		if minM.start > maxM.start {
			delete(last, model.FieldPriceMax)
			superseded[model.FieldPriceMax] = true
		} else {
			delete(last, model.FieldPriceMin)
			superseded[model.FieldPriceMin] = true
		}
	}

	for field, m := range last {
		ex.SetSlot(field, model.Explicit(m.value))
	}
	for _, field := range model.NumericFields {
		if superseded[field] {
			ex.Superseded = append(ex.Superseded, field)
		}
	}
}

func extractPrices(text string) []mention {
	var out []mention
	var taken [][2]int

	for _, re := range []*regexp.Regexp{rangeBetweenRe, rangeDashRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(taken, m[0], m[1]) {
				continue
			}
			marked := m[2] >= 0 || m[8] >= 0 || m[6] >= 0 || m[12] >= 0
			// "between 10 and 20k" shares the suffix
			loSuffixStart, loSuffixEnd := m[6], m[7]
			if loSuffixStart < 0 && m[12] >= 0 && !strings.Contains(text[m[4]:m[5]], ",") {
				if raw, ok := parseAmount(text[m[4]:m[5]], ""); ok && raw < minBarePrice {
					loSuffixStart, loSuffixEnd = m[12], m[13]
				}
			}
			lo, okLo := priceValue(text, m[4], m[5], loSuffixStart, loSuffixEnd, marked)
			hi, okHi := priceValue(text, m[10], m[11], m[12], m[13], marked)
			if !okLo || !okHi {
				continue
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			out = append(out,
				mention{field: model.FieldPriceMin, value: lo, start: m[0], end: m[1]},
				mention{field: model.FieldPriceMax, value: hi, start: m[0], end: m[1]},
			)
			taken = append(taken, [2]int{m[0], m[1]})
		}
	}

	keyword := []struct {
		re    *regexp.Regexp
		field model.Field
	}{
		{priceMaxRe, model.FieldPriceMax},
		{priceMinRe, model.FieldPriceMin},
	}
	for _, k := range keyword {
		for _, m := range k.re.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(taken, m[0], m[1]) {
				continue
			}
			v, ok := priceValue(text, m[4], m[5], m[6], m[7], m[2] >= 0)
			if !ok {
				continue
			}
			out = append(out, mention{field: k.field, value: v, start: m[0], end: m[1]})
			taken = append(taken, [2]int{m[0], m[1]})
		}
	}

	for _, m := range currencyPreRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(taken, m[0], m[1]) {
			continue
		}
		if v, ok := priceValue(text, m[2], m[3], m[4], m[5], true); ok {
			out = append(out, mention{field: model.FieldPriceMax, value: v, start: m[0], end: m[1]})
			taken = append(taken, [2]int{m[0], m[1]})
		}
	}
	for _, m := range currencyPostRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(taken, m[0], m[1]) {
			continue
		}
		if v, ok := priceValue(text, m[2], m[3], m[4], m[5], true); ok {
			out = append(out, mention{field: model.FieldPriceMax, value: v, start: m[0], end: m[1]})
		}
	}
	return out
}

// priceValue parses the number at text[ns:ne] with the suffix at text[ss:se].
// A number followed by a unit is never a price.
func priceValue(text string, ns, ne, ss, se int, marked bool) (int, bool) {
	if ns < 0 {
		return 0, false
	}
	suffix := ""
	end := ne
	if ss >= 0 {
		suffix = text[ss:se]
		end = se
	}
	if unitAfterRe.MatchString(text[end:]) {
		return 0, false
	}
	v, ok := parseAmount(text[ns:ne], suffix)
	if !ok || v <= 0 {
		return 0, false
	}
	if !marked && suffix == "" && v < minBarePrice {
		return 0, false
	}
	return v, true
}

// parseAmount reads "15,000", "20" + "k" or "1.2" + "lakh" as an integer amount
func parseAmount(num, suffix string) (int, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch {
	case suffix == "k":
		f *= 1000
	case strings.HasPrefix(suffix, "lakh"), strings.HasPrefix(suffix, "lac"):
		f *= 100000
	}
	if f > math.MaxInt32 {
		return 0, false
	}
	return int(math.Round(f)), true
}

func extractMemory(text string) []mention {
	var out []mention
	var ramSpans [][2]int

	for _, m := range ramStorageRe.FindAllStringSubmatchIndex(text, -1) {
		ram, _ := strconv.Atoi(text[m[2]:m[3]])
		storage, _ := strconv.Atoi(text[m[4]:m[5]])
		if m[6] >= 0 && text[m[6]:m[7]] == "tb" {
			storage *= 1024
		}
		if ram <= 0 || ram >= storage || (m[6] < 0 && !storageSizes[storage]) {
			continue
		}
		out = append(out,
			mention{field: model.FieldRAM, value: ram, start: m[0], end: m[1]},
			mention{field: model.FieldStorage, value: storage, start: m[0], end: m[1]},
		)
		ramSpans = append(ramSpans, [2]int{m[0], m[1]})
	}

	for _, m := range ramBeforeRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(ramSpans, m[0], m[1]) {
			continue
		}
		if v, _ := strconv.Atoi(text[m[2]:m[3]]); v > 0 {
			out = append(out, mention{field: model.FieldRAM, value: v, start: m[0], end: m[1]})
			ramSpans = append(ramSpans, [2]int{m[0], m[1]})
		}
	}
	for _, m := range ramAfterRe.FindAllStringSubmatchIndex(text, -1) {
		// "8gb ram 128gb storage": the second number belongs to storage
		if overlaps(ramSpans, m[0], m[0]+3) {
			continue
		}
		if v, _ := strconv.Atoi(text[m[2]:m[3]]); v > 0 {
			out = append(out, mention{field: model.FieldRAM, value: v, start: m[0], end: m[1]})
			ramSpans = append(ramSpans, [2]int{m[0], m[1]})
		}
	}

	for _, m := range storageRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(ramSpans, m[0], m[1]) {
			continue
		}
		f, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		if text[m[4]:m[5]] == "tb" {
			f *= 1024
		}
		if v := int(math.Round(f)); v > 0 {
			out = append(out, mention{field: model.FieldStorage, value: v, start: m[0], end: m[1]})
		}
	}
	return out
}

func extractBattery(text string) []mention {
	var out []mention
	for _, m := range batteryRe.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := parseAmount(text[m[2]:m[3]], ""); ok && v > 0 {
			out = append(out, mention{field: model.FieldBattery, value: v, start: m[0], end: m[1]})
		}
	}
	return out
}

// extractBrand returns the brand mentioned earliest in the text
func (e *Extractor) extractBrand(text string) (string, bool) {
	best, bestStart, bestLen := "", -1, 0
	for _, b := range e.brands {
		loc := b.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		l := loc[1] - loc[0]
		if bestStart < 0 || loc[0] < bestStart || (loc[0] == bestStart && l > bestLen) {
			best, bestStart, bestLen = b.value, loc[0], l
		}
	}
	return best, bestStart >= 0
}

// extractIntents returns sorted matched and negated tags; the last
// occurrence of a tag decides which set it lands in
func (e *Extractor) extractIntents(text string) (tags, negated []string) {
	type occurrence struct {
		start   int
		negated bool
	}
	last := make(map[string]occurrence)

	for _, in := range e.intents {
		for _, loc := range in.re.FindAllStringIndex(text, -1) {
			occ := occurrence{start: loc[0], negated: negationRe.MatchString(text[:loc[0]])}
			prev, seen := last[in.value]
			if !seen || occ.start > prev.start || (occ.start == prev.start && occ.negated) {
				last[in.value] = occ
			}
		}
	}

	for tag, occ := range last {
		if occ.negated {
			negated = append(negated, tag)
		} else {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	sort.Strings(negated)
	return tags, negated
}

// applyInference fills fields absent from the explicit extraction; when
// several tags infer the same field the stricter bound wins
func (e *Extractor) applyInference(ex *model.Extraction) {
	for _, tag := range ex.IntentTags {
		for _, r := range e.inference {
			if r.Tag != tag {
				continue
			}
			current := ex.Slot(r.Field)
			if current.Source == model.SourceExplicit {
				continue
			}
			if r.Field == model.FieldPriceMax && ex.PriceFactor != 0 {
				continue
			}
			if current.Present() && !stricter(r.Field, r.Value, current.Value) {
				continue
			}
			ex.SetSlot(r.Field, model.Inferred(r.Value))
		}
	}

	// An inferred bound never crosses another bound; contradicting
	// defaults ("budget premium") cancel out
	hi, lo := ex.PriceMax, ex.PriceMin
	if hi.Present() && lo.Present() && lo.Value > hi.Value {
		if hi.Source == model.SourceInferred {
			ex.PriceMax = model.Slot{}
		}
		if lo.Source == model.SourceInferred {
			ex.PriceMin = model.Slot{}
		}
	}
}

// stricter reports whether candidate narrows the catalog more than current
func stricter(field model.Field, candidate, current int) bool {
	if field == model.FieldPriceMax {
		return candidate < current
	}
	return candidate > current
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}
