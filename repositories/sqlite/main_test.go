package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"candig/metadata/models/records"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestRepository(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repository, err := NewRepository(db, logrus.New())
	assert.NoError(t, err)
	return repository
}

func TestDatasets(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	assert.NoError(t, repository.CreateDataset(ctx, &records.Dataset{
		Id: "d1", Name: "mohccn", Description: "test dataset",
	}))

	t.Run("lookup by id", func(t *testing.T) {
		dataset, err := repository.GetDataset(ctx, "d1")
		assert.NoError(t, err)
		assert.Equal(t, "mohccn", dataset.Name)
	})

	t.Run("lookup by name", func(t *testing.T) {
		dataset, err := repository.GetDatasetByName(ctx, "mohccn")
		assert.NoError(t, err)
		assert.Equal(t, "d1", dataset.Id)
	})

	t.Run("missing dataset is nil, not an error", func(t *testing.T) {
		dataset, err := repository.GetDataset(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, dataset)
	})

	t.Run("list", func(t *testing.T) {
		datasets, err := repository.Datasets(ctx)
		assert.NoError(t, err)
		assert.Len(t, datasets, 1)
	})
}

func TestRecordRoundTrip(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	assert.NoError(t, repository.CreateDataset(ctx, &records.Dataset{Id: "d1", Name: "ds"}))

	record := &records.Record{
		Id:        "r1",
		DatasetId: "d1",
		Table:     "patients",
		Name:      "p1",
		Created:   "2024-01-01T00:00:00Z",
		Updated:   "2024-01-01T00:00:00Z",
		Attrs:     map[string]string{"patientId": "p1", "gender": "male"},
		Tiers:     map[string]int{"gender": 2},
	}
	assert.NoError(t, repository.PutRecord(ctx, record))

	fetched, err := repository.GetRecord(ctx, "patients", "r1")
	assert.NoError(t, err)
	assert.Equal(t, record.Attrs, fetched.Attrs)
	assert.Equal(t, record.Tiers, fetched.Tiers)
	assert.Equal(t, "patients", fetched.Table)

	t.Run("missing record is nil", func(t *testing.T) {
		fetched, err := repository.GetRecord(ctx, "patients", "nope")
		assert.NoError(t, err)
		assert.Nil(t, fetched)
	})
}

func TestScanRecordsOrder(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	assert.NoError(t, repository.CreateDataset(ctx, &records.Dataset{Id: "d1", Name: "ds"}))

	// insert out of lexicographic order on purpose
	for _, name := range []string{"zz", "aa", "mm"} {
		assert.NoError(t, repository.PutRecord(ctx, &records.Record{
			Id:        "r-" + name,
			DatasetId: "d1",
			Table:     "patients",
			Name:      name,
			Attrs:     map[string]string{"patientId": name},
			Tiers:     map[string]int{},
		}))
	}

	rows, err := repository.ScanRecords(ctx, "d1", "patients")
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "zz", rows[0].Name)
	assert.Equal(t, "aa", rows[1].Name)
	assert.Equal(t, "mm", rows[2].Name)

	t.Run("cancelled scan abandons its cursor", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repository.ScanRecords(cancelled, "d1", "patients")
		assert.Error(t, err)
	})

	t.Run("scans are dataset scoped", func(t *testing.T) {
		rows, err := repository.ScanRecords(ctx, "other", "patients")
		assert.NoError(t, err)
		assert.Len(t, rows, 0)
	})
}

func TestVariantSets(t *testing.T) {
	repository := newTestRepository(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		assert.NoError(t, repository.PutVariantSet(ctx, &records.VariantSet{
			Id:        fmt.Sprintf("vs%d", i),
			DatasetId: "d1",
			Name:      fmt.Sprintf("set-%d", i),
			PatientId: fmt.Sprintf("p%d", i),
			SampleId:  fmt.Sprintf("s%d", i),
			DataPath:  fmt.Sprintf("set%d.vcf", i),
		}))
	}

	t.Run("no ids means every set in the dataset", func(t *testing.T) {
		variantSets, err := repository.VariantSets(ctx, "d1", nil)
		assert.NoError(t, err)
		assert.Len(t, variantSets, 3)
	})

	t.Run("id restriction", func(t *testing.T) {
		variantSets, err := repository.VariantSets(ctx, "d1", []string{"vs1", "vs3"})
		assert.NoError(t, err)
		assert.Len(t, variantSets, 2)
	})
}
