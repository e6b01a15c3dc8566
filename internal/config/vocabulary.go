package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"phonefinder/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary is the extractor's configuration data
type Vocabulary struct {
	Brands    []Brand         `yaml:"brands"`
	Intents   []Intent        `yaml:"intents"`
	Inference []InferenceRule `yaml:"inference"`
}

// Brand is a canonical brand name with its aliases
type Brand struct {
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	CommonWord bool     `yaml:"common_word"` // match aliases only
}

// Terms returns the phrases that identify the brand in text
func (b Brand) Terms() []string {
	if b.CommonWord {
		return b.Aliases
	}
	return append([]string{b.Name}, b.Aliases...)
}

// Intent is a tag with the phrases that trigger it
type Intent struct {
	Tag     string   `yaml:"tag"`
	Phrases []string `yaml:"phrases"`
}

// InferenceRule maps an intent tag to a default constraint
type InferenceRule struct {
	Tag   string      `yaml:"tag"`
	Field model.Field `yaml:"field"`
	Value int         `yaml:"value"`
}

// LoadVocabulary reads a vocabulary file, or the built-in one when path is empty
func LoadVocabulary(path string) (*Vocabulary, error) {
	data := defaultVocabulary
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read vocabulary: %w", err)
		}
		data = b
	}
	return ParseVocabulary(data)
}

// DefaultVocabulary returns the built-in vocabulary
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("built-in vocabulary is invalid: %v", err))
	}
	return v
}

// ParseVocabulary decodes and validates a YAML vocabulary
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	v.normalize()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Validate checks names, tags and inference rules
func (v *Vocabulary) Validate() error {
	if len(v.Intents) == 0 {
		return fmt.Errorf("vocabulary: no intents defined")
	}

	tags := make(map[string]bool, len(v.Intents))
	for _, in := range v.Intents {
		if in.Tag == "" {
			return fmt.Errorf("vocabulary: intent with empty tag")
		}
		if tags[in.Tag] {
			return fmt.Errorf("vocabulary: duplicate intent %q", in.Tag)
		}
		if len(in.Phrases) == 0 {
			return fmt.Errorf("vocabulary: intent %q has no phrases", in.Tag)
		}
		tags[in.Tag] = true
	}

	for _, b := range v.Brands {
		if b.Name == "" {
			return fmt.Errorf("vocabulary: brand with empty name")
		}
	}

	numeric := make(map[model.Field]bool, len(model.NumericFields))
	for _, f := range model.NumericFields {
		numeric[f] = true
	}
	for _, r := range v.Inference {
		if !tags[r.Tag] {
			return fmt.Errorf("vocabulary: inference rule for unknown tag %q", r.Tag)
		}
		if !numeric[r.Field] {
			return fmt.Errorf("vocabulary: inference rule for %q targets unknown field %q", r.Tag, r.Field)
		}
		if r.Value <= 0 {
			return fmt.Errorf("vocabulary: inference rule for %q must have a positive value", r.Tag)
		}
	}
	return nil
}

// Tags returns the sorted intent tags
func (v *Vocabulary) Tags() []string {
	out := make([]string, 0, len(v.Intents))
	for _, in := range v.Intents {
		out = append(out, in.Tag)
	}
	sort.Strings(out)
	return out
}

// AddBrands registers catalog brands not already known
func (v *Vocabulary) AddBrands(names ...string) {
	known := make(map[string]bool, len(v.Brands))
	for _, b := range v.Brands {
		known[b.Name] = true
	}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || known[n] {
			continue
		}
		known[n] = true
		v.Brands = append(v.Brands, Brand{Name: n})
	}
}

func (v *Vocabulary) normalize() {
	for i := range v.Brands {
		v.Brands[i].Name = lower(v.Brands[i].Name)
		for j := range v.Brands[i].Aliases {
			v.Brands[i].Aliases[j] = lower(v.Brands[i].Aliases[j])
		}
	}
	for i := range v.Intents {
		v.Intents[i].Tag = lower(v.Intents[i].Tag)
		for j := range v.Intents[i].Phrases {
			v.Intents[i].Phrases[j] = lower(v.Intents[i].Phrases[j])
		}
	}
	for i := range v.Inference {
		v.Inference[i].Tag = lower(v.Inference[i].Tag)
	}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
