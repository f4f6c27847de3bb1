package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"candig/metadata/models/records"
)

// ScanRecords walks the (dataset_id, tbl, seq) index ; rows come
// back in natural insertion order so result ordering stays stable
// for a fixed registry snapshot.
func (r *Repository) ScanRecords(ctx context.Context, datasetId string, table string) ([]*records.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dataset_id, tbl, name, created, updated, attrs, tiers
		   FROM records
		  WHERE dataset_id = ? AND tbl = ?
		  ORDER BY seq`,
		datasetId, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*records.Record
	for rows.Next() {
		// abandon the cursor when the request is cancelled mid-scan
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

func (r *Repository) GetRecord(ctx context.Context, table string, id string) (*records.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dataset_id, tbl, name, created, updated, attrs, tiers
		   FROM records
		  WHERE tbl = ? AND id = ?`,
		table, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows)
}

func (r *Repository) PutRecord(ctx context.Context, record *records.Record) error {
	attrs, err := json.Marshal(record.Attrs)
	if err != nil {
		return fmt.Errorf("encoding record attrs: %w", err)
	}
	tiers, err := json.Marshal(record.Tiers)
	if err != nil {
		return fmt.Errorf("encoding record tiers: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO records (id, dataset_id, tbl, name, created, updated, attrs, tiers)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Id, record.DatasetId, record.Table, record.Name,
		record.Created, record.Updated, string(attrs), string(tiers))
	return err
}

func scanRecord(rows *sql.Rows) (*records.Record, error) {
	record := &records.Record{}
	var attrs, tiers string
	if err := rows.Scan(
		&record.Id, &record.DatasetId, &record.Table, &record.Name,
		&record.Created, &record.Updated, &attrs, &tiers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(attrs), &record.Attrs); err != nil {
		return nil, fmt.Errorf("decoding record attrs: %w", err)
	}
	if err := json.Unmarshal([]byte(tiers), &record.Tiers); err != nil {
		return nil, fmt.Errorf("decoding record tiers: %w", err)
	}
	return record, nil
}
