package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"cleanuri/pkg/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Memory opens a database that lives only as long as the process.
const Memory = ":memory:"

// Cache stores extraction results keyed by site label and canonical URI.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// New opens the sqlite database at dbPath and creates the schema.
func New(dbPath string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if dbPath == Memory {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	c, err := NewWithDB(db, ttl, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDB uses an already opened database.
func NewWithDB(db *sql.DB, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			site TEXT NOT NULL,
			canonical_uri TEXT NOT NULL,
			data TEXT NOT NULL,
			extracted_at DATETIME NOT NULL,
			PRIMARY KEY (site, canonical_uri)
		)
	`)
	if err != nil {
		return nil, err
	}

	return &Cache{db: db, ttl: ttl, logger: logger, now: time.Now}, nil
}

// Get returns a product extracted less than ttl ago.
func (c *Cache) Get(ctx context.Context, site, canonicalURI string) (*models.Product, bool) {
	var data string
	var extractedAt time.Time

	err := c.db.QueryRowContext(ctx,
		`SELECT data, extracted_at FROM products WHERE site = ? AND canonical_uri = ?`,
		site, canonicalURI,
	).Scan(&data, &extractedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("cache lookup failed", zap.String("site", site), zap.String("uri", canonicalURI), zap.Error(err))
		}
		return nil, false
	}

	if c.now().Sub(extractedAt) > c.ttl {
		return nil, false
	}

	var product models.Product
	if err := json.Unmarshal([]byte(data), &product); err != nil {
		c.logger.Warn("cache entry is unreadable", zap.String("site", site), zap.String("uri", canonicalURI), zap.Error(err))
		return nil, false
	}

	return &product, true
}

// Set stores product, replacing any previous entry for the same key.
func (c *Cache) Set(ctx context.Context, site, canonicalURI string, product *models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("cannot encode product for cache", zap.String("site", site), zap.String("uri", canonicalURI), zap.Error(err))
		return
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO products (site, canonical_uri, data, extracted_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(site, canonical_uri)
		 DO UPDATE SET data = excluded.data, extracted_at = excluded.extracted_at`,
		site, canonicalURI, string(data), product.ExtractedAt.UTC(),
	)
	if err != nil {
		c.logger.Warn("cannot store product in cache", zap.String("site", site), zap.String("uri", canonicalURI), zap.Error(err))
	}
}

// Purge deletes expired entries and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM products WHERE extracted_at < ?`,
		c.now().Add(-c.ttl).UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
