package repositories

import (
	"context"

	"candig/metadata/models/records"
)

/*
	Registry access boundary. The query engine is written against
	this interface only ; the sqlite package provides the concrete
	store. All scans honor the caller's context for cancellation.
*/
type Repository interface {
	Datasets(ctx context.Context) ([]*records.Dataset, error)
	GetDataset(ctx context.Context, id string) (*records.Dataset, error)
	GetDatasetByName(ctx context.Context, name string) (*records.Dataset, error)
	CreateDataset(ctx context.Context, dataset *records.Dataset) error

	// ScanRecords returns every row of one table for one dataset in
	// natural insertion order.
	ScanRecords(ctx context.Context, datasetId string, table string) ([]*records.Record, error)
	GetRecord(ctx context.Context, table string, id string) (*records.Record, error)
	PutRecord(ctx context.Context, record *records.Record) error

	VariantSets(ctx context.Context, datasetId string, ids []string) ([]*records.VariantSet, error)
	PutVariantSet(ctx context.Context, variantSet *records.VariantSet) error

	GetGene(ctx context.Context, name string) (*records.Gene, error)
	PutGene(ctx context.Context, gene *records.Gene) error
}
