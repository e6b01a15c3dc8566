package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"phonefinder/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const phoneColumns = `id, brand, model, processor, ram_gb, storage_gb, battery_capacity_mah,
			back_camera_mp, screen_size_inches, launched_price_rs, launched_year, image_url`

// PostgresRepository serves the phone catalog from PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection pool
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Migrate creates the catalog and search log tables if they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// buildWhere turns a filter into a parameterized WHERE clause. It returns
// the clause, its arguments and the next free placeholder index.
func buildWhere(filter model.Filter) (string, []interface{}, int) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	add := func(cond string, arg interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(cond, argIndex))
		args = append(args, arg)
		argIndex++
	}

	if filter.PriceMin != nil {
		add("launched_price_rs >= $%d", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		add("launched_price_rs <= $%d", *filter.PriceMax)
	}
	if filter.RAMMinGB != nil {
		add("ram_gb >= $%d", *filter.RAMMinGB)
	}
	if filter.StorageMinGB != nil {
		add("storage_gb >= $%d", *filter.StorageMinGB)
	}
	if filter.BatteryMinMAh != nil {
		add("battery_capacity_mah >= $%d", *filter.BatteryMinMAh)
	}
	if filter.Brand != nil {
		add("LOWER(brand) = LOWER($%d)", *filter.Brand)
	}

	camera := false
	for _, tag := range filter.IntentTags {
		switch tag {
		case "gaming":
			add("processor ~* $%d", model.GamingChipPattern)
		case "camera", "photography":
			if !camera {
				add("back_camera_mp >= $%d", model.CameraMinMP)
				camera = true
			}
		case "display":
			add("screen_size_inches >= $%d", model.DisplayMinInches)
		case "compact":
			add("screen_size_inches > 0 AND screen_size_inches <= $%d", model.CompactMaxInches)
		case "battery-life":
			add("battery_capacity_mah >= $%d", model.BatteryLifeMinMAh)
		}
	}

	return strings.Join(whereClauses, " AND "), args, argIndex
}

// Find returns up to limit phones matching the filter and the total count
func (r *PostgresRepository) Find(ctx context.Context, filter model.Filter, limit int) ([]model.Phone, int, error) {
	whereClause, args, argIndex := buildWhere(filter)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM phones WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count phones: %w", err)
	}

	orderBy := "id ASC"
	if filter.SortsByPrice() {
		orderBy = "launched_price_rs ASC, id ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM phones
		WHERE %s
		ORDER BY %s
		LIMIT $%d
	`, phoneColumns, whereClause, orderBy, argIndex)
	args = append(args, limit)

	phones := []model.Phone{}
	if err := r.db.SelectContext(ctx, &phones, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch phones: %w", err)
	}

	return phones, total, nil
}

// Get retrieves a single phone by its ID; a missing phone is nil, nil
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*model.Phone, error) {
	var phone model.Phone
	query := fmt.Sprintf(`SELECT %s FROM phones WHERE id = $1`, phoneColumns)
	err := r.db.GetContext(ctx, &phone, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get phone: %w", err)
	}
	return &phone, nil
}

// Brands lists the distinct lowercase brands in the catalog
func (r *PostgresRepository) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.db.SelectContext(ctx, &brands, `SELECT DISTINCT LOWER(brand) FROM phones ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

// ImportPhones upserts phones in one transaction. Rows that fail
// validation or insertion are reported and skipped.
func (r *PostgresRepository) ImportPhones(ctx context.Context, phones []model.Phone) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO phones (brand, model, processor, ram_gb, storage_gb, battery_capacity_mah,
			back_camera_mp, screen_size_inches, launched_price_rs, launched_year, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (brand, model, ram_gb, storage_gb, launched_price_rs) DO UPDATE SET
			processor = EXCLUDED.processor,
			battery_capacity_mah = EXCLUDED.battery_capacity_mah,
			back_camera_mp = EXCLUDED.back_camera_mp,
			screen_size_inches = EXCLUDED.screen_size_inches,
			launched_year = EXCLUDED.launched_year,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
	`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for i, p := range phones {
		if err := validatePhone(p); err != nil {
			errs = append(errs, fmt.Sprintf("phone %d: %v", i, err))
			continue
		}
		_, err := stmt.ExecContext(ctx,
			p.Brand, p.Model, p.Processor, p.RAMGB, p.StorageGB, p.BatteryMAh,
			p.BackCameraMP, p.ScreenSizeInches, p.PriceRs, p.LaunchedYear, p.ImageURL,
		)
		if err != nil {
			errs = append(errs, fmt.Sprintf("phone %d (%s): %v", i, p.Name(), err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// LogSearch records a direct search
func (r *PostgresRepository) LogSearch(ctx context.Context, query string, filter model.Filter, resultCount int, phoneIDs []int64, responseTimeMs int) error {
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}

	logQuery := `
		INSERT INTO search_logs (query, filter, result_count, returned_phone_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.db.ExecContext(ctx, logQuery, query, filterJSON, resultCount, pq.Array(phoneIDs), responseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

func validatePhone(p model.Phone) error {
	switch {
	case strings.TrimSpace(p.Brand) == "" || strings.TrimSpace(p.Model) == "":
		return errors.New("brand and model are required")
	case p.PriceRs <= 0:
		return errors.New("launched_price_rs must be positive")
	case p.RAMGB <= 0 || p.StorageGB <= 0 || p.BatteryMAh <= 0:
		return errors.New("ram_gb, storage_gb and battery_capacity_mah must be positive")
	}
	return nil
}
