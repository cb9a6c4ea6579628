package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"realty/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Catalog is the relational store for areas, complexes and apartments. It
// runs on PostgreSQL in production and on SQLite for local setups and tests;
// queries are written against the common subset and rebound per driver.
type Catalog struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the catalog database. DSNs that look like PostgreSQL
// connection strings use lib/pq; everything else is treated as a SQLite path.
func Open(dsn string, maxConn, maxIdleConn int) (*Catalog, error) {
	driver := "sqlite"
	if isPostgresDSN(dsn) {
		driver = "postgres"
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		// Every pool connection would otherwise get its own empty database.
		maxConn, maxIdleConn = 1, 1
	}
	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Catalog{db: db, driver: driver}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// DB exposes the underlying handle for sibling stores sharing the connection.
func (c *Catalog) DB() *sqlx.DB {
	return c.db
}

// IsPostgres reports whether the catalog runs on PostgreSQL.
func (c *Catalog) IsPostgres() bool {
	return c.driver == "postgres"
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS areas (
	id        INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	parent_id INTEGER REFERENCES areas(id)
);
CREATE TABLE IF NOT EXISTS residential_complexes (
	id            INTEGER PRIMARY KEY,
	complex_name  TEXT NOT NULL UNIQUE,
	area_id       INTEGER REFERENCES areas(id),
	general_texts TEXT,
	short_text    TEXT,
	city          TEXT NOT NULL DEFAULT 'Владивосток'
);
CREATE TABLE IF NOT EXISTS apartments (
	id             INTEGER PRIMARY KEY,
	apartment_type TEXT NOT NULL,
	price          INTEGER,
	size_sqm       REAL,
	num_rooms      INTEGER,
	complex_id     INTEGER NOT NULL REFERENCES residential_complexes(id)
);
CREATE INDEX IF NOT EXISTS idx_apartments_complex ON apartments(complex_id);
CREATE INDEX IF NOT EXISTS idx_complexes_area ON residential_complexes(area_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS areas (
	id        BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	name      TEXT NOT NULL,
	parent_id BIGINT REFERENCES areas(id)
);
CREATE TABLE IF NOT EXISTS residential_complexes (
	id            BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	complex_name  TEXT NOT NULL UNIQUE,
	area_id       BIGINT REFERENCES areas(id),
	general_texts TEXT,
	short_text    TEXT,
	city          TEXT NOT NULL DEFAULT 'Владивосток'
);
CREATE TABLE IF NOT EXISTS apartments (
	id             BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	apartment_type TEXT NOT NULL,
	price          BIGINT,
	size_sqm       DOUBLE PRECISION,
	num_rooms      INTEGER,
	complex_id     BIGINT NOT NULL REFERENCES residential_complexes(id)
);
CREATE INDEX IF NOT EXISTS idx_apartments_complex ON apartments(complex_id);
CREATE INDEX IF NOT EXISTS idx_complexes_area ON residential_complexes(area_id);
`

// EnsureSchema creates the catalog tables if they do not exist yet.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	schema := schemaSQLite
	if c.driver == "postgres" {
		schema = schemaPostgres
	}
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ListAreas returns the full flat area table. Name matching and scope
// expansion happen in the service layer, where Unicode case folding is
// reliable regardless of the SQL backend.
func (c *Catalog) ListAreas(ctx context.Context) ([]model.Area, error) {
	var areas []model.Area
	err := c.db.SelectContext(ctx, &areas, `SELECT id, name, parent_id FROM areas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return areas, nil
}

// SearchApartments runs the filtered apartment query joined to complexes.
// Apartments without a price never appear in results.
func (c *Catalog) SearchApartments(ctx context.Context, q model.ApartmentQuery) ([]model.ApartmentRow, error) {
	whereClauses := []string{"a.price IS NOT NULL"}
	args := []interface{}{}

	if len(q.NumRooms) > 0 {
		whereClauses = append(whereClauses, "a.num_rooms IN (?)")
		args = append(args, q.NumRooms)
	}
	if q.MinSquare != nil {
		whereClauses = append(whereClauses, "a.size_sqm >= ?")
		args = append(args, *q.MinSquare)
	}
	if q.MaxSquare != nil {
		whereClauses = append(whereClauses, "a.size_sqm <= ?")
		args = append(args, *q.MaxSquare)
	}
	if q.MinPrice != nil {
		whereClauses = append(whereClauses, "a.price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		whereClauses = append(whereClauses, "a.price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if len(q.ComplexNames) > 0 {
		whereClauses = append(whereClauses, "c.complex_name IN (?)")
		args = append(args, q.ComplexNames)
	}
	if q.City != "" {
		whereClauses = append(whereClauses, "c.city = ?")
		args = append(args, q.City)
	}
	if len(q.AreaIDs) > 0 {
		whereClauses = append(whereClauses, "c.area_id IN (?)")
		args = append(args, q.AreaIDs)
	}

	order := "a.price ASC"
	if q.SortDesc {
		order = "a.price DESC"
	}

	query := fmt.Sprintf(`
		SELECT
			a.apartment_type, a.price, a.size_sqm, a.num_rooms,
			c.complex_name, COALESCE(c.general_texts, '') AS general_texts
		FROM apartments a
		JOIN residential_complexes c ON c.id = a.complex_id
		WHERE %s
		ORDER BY %s, a.id ASC
	`, strings.Join(whereClauses, " AND "), order)

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}
	query = c.db.Rebind(query)

	var rows []model.ApartmentRow
	if err := c.db.SelectContext(ctx, &rows, query, expanded...); err != nil {
		return nil, fmt.Errorf("failed to fetch apartments: %w", err)
	}
	return rows, nil
}

// ComplexesInAreas returns every complex tagged with one of the given areas,
// regardless of whether any of its apartments match the current filter.
func (c *Catalog) ComplexesInAreas(ctx context.Context, areaIDs []int64, city string) ([]model.ComplexSummary, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT COALESCE(c.short_text, '') AS short_text, c.city, ar.name AS area_name
		FROM residential_complexes c
		JOIN areas ar ON ar.id = c.area_id
		WHERE c.area_id IN (?)
	`
	args := []interface{}{areaIDs}
	if city != "" {
		query += " AND c.city = ?"
		args = append(args, city)
	}
	query += " ORDER BY c.complex_name"

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}
	query = c.db.Rebind(query)

	var summaries []model.ComplexSummary
	if err := c.db.SelectContext(ctx, &summaries, query, expanded...); err != nil {
		return nil, fmt.Errorf("failed to fetch area complexes: %w", err)
	}
	return summaries, nil
}

// ComplexByName returns the full dossier for one complex, or nil when the
// name is unknown.
func (c *Catalog) ComplexByName(ctx context.Context, name string) (*model.ComplexCard, error) {
	query := c.db.Rebind(`
		SELECT c.id, c.complex_name, c.area_id, c.general_texts, c.short_text, c.city
		FROM residential_complexes c
		WHERE c.complex_name = ?
	`)
	var complex model.ResidentialComplex
	if err := c.db.GetContext(ctx, &complex, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get complex: %w", err)
	}

	card := &model.ComplexCard{Complex: complex}

	if complex.AreaID != nil {
		var areaName string
		query = c.db.Rebind(`SELECT name FROM areas WHERE id = ?`)
		if err := c.db.GetContext(ctx, &areaName, query, *complex.AreaID); err == nil {
			card.AreaName = &areaName
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to get complex area: %w", err)
		}
	}

	query = c.db.Rebind(`
		SELECT id, apartment_type, price, size_sqm, num_rooms, complex_id
		FROM apartments
		WHERE complex_id = ?
		ORDER BY id
	`)
	if err := c.db.SelectContext(ctx, &card.Apartments, query, complex.ID); err != nil {
		return nil, fmt.Errorf("failed to get complex apartments: %w", err)
	}
	return card, nil
}

// ComplexesByNames returns the compact info line rows for a set of names.
func (c *Catalog) ComplexesByNames(ctx context.Context, names []string) ([]model.ComplexInfo, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT c.complex_name, ar.name AS area_name, c.general_texts
		FROM residential_complexes c
		LEFT JOIN areas ar ON ar.id = c.area_id
		WHERE c.complex_name IN (?)
		ORDER BY c.complex_name
	`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}
	query = c.db.Rebind(query)

	var infos []model.ComplexInfo
	if err := c.db.SelectContext(ctx, &infos, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch complex info: %w", err)
	}
	return infos, nil
}

// ComplexNames returns every known complex name, used to seed alias matching.
func (c *Catalog) ComplexNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.SelectContext(ctx, &names, `SELECT complex_name FROM residential_complexes ORDER BY complex_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list complex names: %w", err)
	}
	return names, nil
}

// Write side, used by ingestion and tests.

// ClearCatalog drops all complexes and apartments before a full reload.
// Areas are kept: they are maintained separately from knowledge files.
func (c *Catalog) ClearCatalog(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM apartments`); err != nil {
		return fmt.Errorf("failed to clear apartments: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM residential_complexes`); err != nil {
		return fmt.Errorf("failed to clear complexes: %w", err)
	}
	return nil
}

// InsertArea adds one area node and returns its id.
func (c *Catalog) InsertArea(ctx context.Context, name string, parentID *int64) (int64, error) {
	query := c.db.Rebind(`INSERT INTO areas (name, parent_id) VALUES (?, ?) RETURNING id`)
	var id int64
	if err := c.db.GetContext(ctx, &id, query, name, parentID); err != nil {
		return 0, fmt.Errorf("failed to insert area %q: %w", name, err)
	}
	return id, nil
}

// InsertComplex adds one residential complex and returns its id.
func (c *Catalog) InsertComplex(ctx context.Context, rc model.ResidentialComplex) (int64, error) {
	city := rc.City
	if city == "" {
		city = model.DefaultCity
	}
	query := c.db.Rebind(`
		INSERT INTO residential_complexes (complex_name, area_id, general_texts, short_text, city)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	if err := c.db.GetContext(ctx, &id, query, rc.ComplexName, rc.AreaID, rc.GeneralTexts, rc.ShortText, city); err != nil {
		return 0, fmt.Errorf("failed to insert complex %q: %w", rc.ComplexName, err)
	}
	return id, nil
}

// InsertApartment adds one apartment row.
func (c *Catalog) InsertApartment(ctx context.Context, a model.Apartment) error {
	query := c.db.Rebind(`
		INSERT INTO apartments (apartment_type, price, size_sqm, num_rooms, complex_id)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := c.db.ExecContext(ctx, query, a.ApartmentType, a.Price, a.SizeSqm, a.NumRooms, a.ComplexID); err != nil {
		return fmt.Errorf("failed to insert apartment: %w", err)
	}
	return nil
}
