package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"candig/metadata/models/records"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS records (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	dataset_id TEXT NOT NULL,
	tbl        TEXT NOT NULL,
	name       TEXT NOT NULL,
	created    TEXT NOT NULL,
	updated    TEXT NOT NULL,
	attrs      TEXT NOT NULL,
	tiers      TEXT NOT NULL,
	UNIQUE (dataset_id, tbl, name)
);
CREATE INDEX IF NOT EXISTS idx_records_scan ON records (dataset_id, tbl, seq);

CREATE TABLE IF NOT EXISTS variant_sets (
	id               TEXT PRIMARY KEY,
	dataset_id       TEXT NOT NULL,
	name             TEXT NOT NULL,
	reference_set_id TEXT NOT NULL DEFAULT '',
	patient_id       TEXT NOT NULL DEFAULT '',
	sample_id        TEXT NOT NULL DEFAULT '',
	data_path        TEXT NOT NULL DEFAULT '',
	UNIQUE (dataset_id, name)
);

CREATE TABLE IF NOT EXISTS genes (
	name      TEXT PRIMARY KEY,
	chrom     TEXT NOT NULL,
	start_pos INTEGER NOT NULL,
	end_pos   INTEGER NOT NULL
);
`

type Repository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewRepository(db *sql.DB, logger *logrus.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initializing registry schema: %w", err)
	}
	return &Repository{db: db, logger: logger}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// -- datasets

func (r *Repository) Datasets(ctx context.Context) ([]*records.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM datasets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []*records.Dataset
	for rows.Next() {
		dataset := &records.Dataset{}
		if err := rows.Scan(&dataset.Id, &dataset.Name, &dataset.Description); err != nil {
			return nil, err
		}
		datasets = append(datasets, dataset)
	}
	return datasets, rows.Err()
}

func (r *Repository) GetDataset(ctx context.Context, id string) (*records.Dataset, error) {
	return r.getDataset(ctx, `SELECT id, name, description FROM datasets WHERE id = ?`, id)
}

func (r *Repository) GetDatasetByName(ctx context.Context, name string) (*records.Dataset, error) {
	return r.getDataset(ctx, `SELECT id, name, description FROM datasets WHERE name = ?`, name)
}

func (r *Repository) getDataset(ctx context.Context, query string, arg string) (*records.Dataset, error) {
	dataset := &records.Dataset{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&dataset.Id, &dataset.Name, &dataset.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dataset, nil
}

func (r *Repository) CreateDataset(ctx context.Context, dataset *records.Dataset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, description) VALUES (?, ?, ?)`,
		dataset.Id, dataset.Name, dataset.Description)
	return err
}
