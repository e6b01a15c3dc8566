package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"phonefinder/internal/model"

	"github.com/rs/zerolog"
)

// Columns every catalog row must carry as numbers
var numericColumns = []string{
	"launched_price_rs", "ram_gb", "storage_gb",
	"battery_capacity_mah", "back_camera_mp", "screen_size_inches",
}

// CSVCatalog is a read-only catalog held in memory
type CSVCatalog struct {
	phones []model.Phone
	byID   map[int64]int
}

// LoadCSVCatalog reads the catalog file at path
func LoadCSVCatalog(path string, log zerolog.Logger) (*CSVCatalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	catalog, dropped, err := ParseCSVCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("phones", len(catalog.phones)).
		Int("dropped", dropped).
		Msg("catalog loaded")
	return catalog, nil
}

// ParseCSVCatalog builds a catalog from CSV with a header row. Rows with a
// missing or non-numeric critical column are dropped, as are repeats of the
// same brand, model, RAM, storage and price. It returns how many rows were
// dropped.
func ParseCSVCatalog(r io.Reader) (*CSVCatalog, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range append([]string{"brand", "model"}, numericColumns...) {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", required)
		}
	}

	c := &CSVCatalog{byID: make(map[int64]int)}
	seen := make(map[string]bool)
	dropped := 0
	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		p, ok := parseRow(record, cols)
		if !ok {
			dropped++
			continue
		}
		key := fmt.Sprintf("%s|%s|%g|%g|%d", strings.ToLower(p.Brand), strings.ToLower(p.Model), p.RAMGB, p.StorageGB, p.PriceRs)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true

		if p.ID == 0 {
			p.ID = int64(len(c.phones) + 1)
		}
		if _, dup := c.byID[p.ID]; dup {
			dropped++
			continue
		}
		c.byID[p.ID] = len(c.phones)
		c.phones = append(c.phones, p)
	}

	return c, dropped, nil
}

func parseRow(record []string, cols map[string]int) (model.Phone, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(name string) (float64, bool) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(field(name), ",", ""), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}

	var values [6]float64
	for i, name := range numericColumns {
		v, ok := number(name)
		if !ok {
			return model.Phone{}, false
		}
		values[i] = v
	}

	p := model.Phone{
		Brand:            field("brand"),
		Model:            field("model"),
		PriceRs:          int(math.Round(values[0])),
		RAMGB:            values[1],
		StorageGB:        values[2],
		BatteryMAh:       int(math.Round(values[3])),
		BackCameraMP:     values[4],
		ScreenSizeInches: values[5],
	}
	if p.Brand == "" || p.Model == "" {
		return model.Phone{}, false
	}

	if id, err := strconv.ParseInt(field("id"), 10, 64); err == nil && id > 0 {
		p.ID = id
	}
	if v := field("processor"); v != "" {
		p.Processor = &v
	}
	if y, ok := number("launched_year"); ok && y > 0 {
		year := int(y)
		p.LaunchedYear = &year
	}
	if v := field("image_url"); strings.HasPrefix(v, "http") {
		p.ImageURL = &v
	}
	return p, true
}

// Find returns up to limit phones matching the filter and the total count
func (c *CSVCatalog) Find(ctx context.Context, filter model.Filter, limit int) ([]model.Phone, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	matched := []model.Phone{}
	for _, p := range c.phones {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}

	if filter.SortsByPrice() {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].PriceRs < matched[j].PriceRs })
	} else {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	}

	total := len(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// Get retrieves a single phone by its ID; a missing phone is nil, nil
func (c *CSVCatalog) Get(_ context.Context, id int64) (*model.Phone, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	p := c.phones[i]
	return &p, nil
}

// Brands lists the distinct lowercase brands in the catalog
func (c *CSVCatalog) Brands(_ context.Context) ([]string, error) {
	set := make(map[string]bool)
	for _, p := range c.phones {
		set[strings.ToLower(p.Brand)] = true
	}
	brands := make([]string, 0, len(set))
	for b := range set {
		brands = append(brands, b)
	}
	sort.Strings(brands)
	return brands, nil
}

// Len returns the number of phones in the catalog
func (c *CSVCatalog) Len() int {
	return len(c.phones)
}

// Phones returns a copy of every phone in load order
func (c *CSVCatalog) Phones() []model.Phone {
	out := make([]model.Phone, len(c.phones))
	copy(out, c.phones)
	return out
}
