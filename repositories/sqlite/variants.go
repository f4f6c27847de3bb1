package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"candig/metadata/models/records"
)

// VariantSets returns the dataset's variant sets, optionally
// restricted to the given set ids.
func (r *Repository) VariantSets(ctx context.Context, datasetId string, ids []string) ([]*records.VariantSet, error) {
	query := `SELECT id, dataset_id, name, reference_set_id, patient_id, sample_id, data_path
	            FROM variant_sets
	           WHERE dataset_id = ?`
	args := []interface{}{datasetId}

	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		query += fmt.Sprintf(" AND id IN (%s)", placeholders)
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variantSets []*records.VariantSet
	for rows.Next() {
		variantSet := &records.VariantSet{}
		if err := rows.Scan(
			&variantSet.Id, &variantSet.DatasetId, &variantSet.Name,
			&variantSet.ReferenceSetId, &variantSet.PatientId,
			&variantSet.SampleId, &variantSet.DataPath); err != nil {
			return nil, err
		}
		variantSets = append(variantSets, variantSet)
	}
	return variantSets, rows.Err()
}

func (r *Repository) PutVariantSet(ctx context.Context, variantSet *records.VariantSet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO variant_sets (id, dataset_id, name, reference_set_id, patient_id, sample_id, data_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		variantSet.Id, variantSet.DatasetId, variantSet.Name,
		variantSet.ReferenceSetId, variantSet.PatientId,
		variantSet.SampleId, variantSet.DataPath)
	return err
}

// GetGene resolves a gene symbol in the feature catalog ; a nil
// gene with nil error means the symbol is unknown.
func (r *Repository) GetGene(ctx context.Context, name string) (*records.Gene, error) {
	gene := &records.Gene{}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, chrom, start_pos, end_pos FROM genes WHERE name = ?`, name).
		Scan(&gene.Name, &gene.Chrom, &gene.Start, &gene.End)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gene, nil
}

func (r *Repository) PutGene(ctx context.Context, gene *records.Gene) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO genes (name, chrom, start_pos, end_pos) VALUES (?, ?, ?, ?)`,
		gene.Name, gene.Chrom, gene.Start, gene.End)
	return err
}
