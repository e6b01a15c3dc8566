package model

import "strings"

// Phone represents a catalog record
type Phone struct {
	ID               int64   `json:"id" db:"id"`
	Brand            string  `json:"brand" db:"brand"`
	Model            string  `json:"model" db:"model"`
	Processor        *string `json:"processor,omitempty" db:"processor"`
	RAMGB            float64 `json:"ram_gb" db:"ram_gb"`
	StorageGB        float64 `json:"storage_gb" db:"storage_gb"`
	BatteryMAh       int     `json:"battery_capacity_mah" db:"battery_capacity_mah"`
	BackCameraMP     float64 `json:"back_camera_mp" db:"back_camera_mp"`
	ScreenSizeInches float64 `json:"screen_size_inches" db:"screen_size_inches"`
	PriceRs          int     `json:"launched_price_rs" db:"launched_price_rs"`
	LaunchedYear     *int    `json:"launched_year,omitempty" db:"launched_year"`
	ImageURL         *string `json:"image_url,omitempty" db:"image_url"`
}

// Name is the display name used for image lookups and result cards
func (p Phone) Name() string {
	return strings.TrimSpace(p.Brand + " " + p.Model)
}

// PhoneResult is a catalog record prepared for presentation
type PhoneResult struct {
	Phone
	Image          string   `json:"image"`
	MatchedReasons []string `json:"matched_reasons"`
}
