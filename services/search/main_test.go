package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"candig/metadata/models"
	"candig/metadata/models/dtos"
	"candig/metadata/models/records"
	"candig/metadata/repositories/sqlite"
	"candig/metadata/services/access"
	"candig/metadata/services/privacy"
	"candig/metadata/services/variants"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

const testDatasetId = "dataset-1"
const testDatasetName = "mohccn-test"

func newTestService(t *testing.T) (*Service, *sqlite.Repository) {
	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err)
	// a second pooled connection would see a different :memory: db
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	repository, err := sqlite.NewRepository(db, logger)
	assert.NoError(t, err)

	cfg := &models.Config{}
	cfg.Registry.VcfDirPath = t.TempDir()
	cfg.Registry.FileHandleCacheSize = 4

	variantService, err := variants.NewVariantService(cfg, repository, logger)
	assert.NoError(t, err)

	privacyService := privacy.NewPrivacyService(cfg, privacy.NewLaplaceSource(1))

	return NewSearchService(repository, variantService, privacyService, logger), repository
}

func seedPatients(t *testing.T, repository *sqlite.Repository, males int, females int) {
	ctx := context.Background()

	assert.NoError(t, repository.CreateDataset(ctx, &records.Dataset{
		Id:   testDatasetId,
		Name: testDatasetName,
	}))

	gender := func(i int) string {
		if i < males {
			return "male"
		}
		return "female"
	}

	for i := 0; i < males+females; i++ {
		patientId := fmt.Sprintf("p%02d", i)
		assert.NoError(t, repository.PutRecord(ctx, &records.Record{
			Id:        "patient-" + patientId,
			DatasetId: testDatasetId,
			Table:     "patients",
			Name:      patientId,
			Attrs:     map[string]string{"patientId": patientId, "gender": gender(i)},
			Tiers:     map[string]int{},
		}))
	}
}

func parseQuery(t *testing.T, raw string) *dtos.SearchQuery {
	query := &dtos.SearchQuery{}
	assert.NoError(t, json.Unmarshal([]byte(raw), query))
	return query
}

func fullAccess() access.AccessMap {
	return access.AccessMap{testDatasetName: 4}
}

func TestRunCountMode(t *testing.T) {
	service, repository := newTestService(t)
	seedPatients(t, repository, 10, 2)

	query := parseQuery(t, `{
		"datasetId": "dataset-1",
		"logic": {"id": "A"},
		"components": [{"id": "A", "patients": {"filters": [{"field": "gender", "operator": "==", "value": "male"}]}}],
		"results": [{"table": "patients", "fields": ["gender"]}]
	}`)

	result, err := service.Run(context.Background(), query, fullAccess(), true)
	assert.NoError(t, err)

	entries, ok := result["patients"].([]dtos.FieldCounts)
	assert.True(t, ok)
	assert.Len(t, entries, 1)
	assert.Equal(t, map[string]int{"male": 10}, entries[0]["gender"])
}

func TestRunRecordMode(t *testing.T) {
	service, repository := newTestService(t)
	seedPatients(t, repository, 2, 1)

	t.Run("records are redacted and narrowed to requested fields", func(t *testing.T) {
		query := parseQuery(t, `{
			"datasetId": "dataset-1",
			"logic": {"id": "A"},
			"components": [{"id": "A", "patients": {"filters": []}}],
			"results": [{"table": "patients", "fields": ["gender"]}]
		}`)

		result, err := service.Run(context.Background(), query, fullAccess(), false)
		assert.NoError(t, err)

		rows, ok := result["patients"].([]map[string]interface{})
		assert.True(t, ok)
		assert.Len(t, rows, 3)
		for _, row := range rows {
			assert.Contains(t, row, "gender")
			assert.NotContains(t, row, "patientId")
		}
	})

	t.Run("empty selection short-circuits to an empty list", func(t *testing.T) {
		query := parseQuery(t, `{
			"datasetId": "dataset-1",
			"logic": {"id": "A"},
			"components": [{"id": "A", "patients": {"filters": [{"field": "gender", "operator": "==", "value": "unspecified"}]}}],
			"results": [{"table": "patients"}]
		}`)

		result, err := service.Run(context.Background(), query, fullAccess(), false)
		assert.NoError(t, err)
		assert.Equal(t, []interface{}{}, result["patients"])
	})
}

func TestRunTierRedaction(t *testing.T) {
	service, repository := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, repository.CreateDataset(ctx, &records.Dataset{Id: testDatasetId, Name: testDatasetName}))
	for i, ethnicity := range []string{"a", "a", "b"} {
		patientId := fmt.Sprintf("p%d", i)
		assert.NoError(t, repository.PutRecord(ctx, &records.Record{
			Id:        "patient-" + patientId,
			DatasetId: testDatasetId,
			Table:     "patients",
			Name:      patientId,
			Attrs:     map[string]string{"patientId": patientId, "ethnicity": ethnicity},
			Tiers:     map[string]int{"ethnicity": 3},
		}))
	}

	query := parseQuery(t, `{
		"datasetId": "dataset-1",
		"logic": {"id": "A"},
		"components": [{"id": "A", "patients": {"filters": []}}],
		"results": [{"table": "patients", "fields": ["ethnicity"]}]
	}`)

	t.Run("count mode buckets restricted values as not_allowed", func(t *testing.T) {
		result, err := service.Run(ctx, query, access.AccessMap{testDatasetName: 1}, true)
		assert.NoError(t, err)

		entries := result["patients"].([]dtos.FieldCounts)
		assert.Equal(t, map[string]int{"not_allowed": 3}, entries[0]["ethnicity"])
	})

	t.Run("sufficient tier sees real buckets", func(t *testing.T) {
		result, err := service.Run(ctx, query, access.AccessMap{testDatasetName: 3}, true)
		assert.NoError(t, err)

		entries := result["patients"].([]dtos.FieldCounts)
		assert.Equal(t, map[string]int{"a": 2, "b": 1}, entries[0]["ethnicity"])
	})

	t.Run("record mode drops restricted fields entirely", func(t *testing.T) {
		result, err := service.Run(ctx, query, access.AccessMap{testDatasetName: 1}, false)
		assert.NoError(t, err)

		rows := result["patients"].([]map[string]interface{})
		assert.Len(t, rows, 0)
	})
}

func TestRunErrors(t *testing.T) {
	service, repository := newTestService(t)
	seedPatients(t, repository, 1, 1)

	baseQuery := `{
		"datasetId": "%s",
		"logic": {"id": "A"},
		"components": [{"id": "A", "patients": {"filters": []}}],
		"results": [{"table": "patients", "fields": ["gender"]}]
	}`

	t.Run("empty access map is refused", func(t *testing.T) {
		query := parseQuery(t, fmt.Sprintf(baseQuery, testDatasetId))
		_, err := service.Run(context.Background(), query, access.AccessMap{}, true)

		assert.Error(t, err)
		assert.Equal(t, "NotAuthorizedException", err.(*serverErrors.ServerError).Name)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		query := parseQuery(t, fmt.Sprintf(baseQuery, "no-such-dataset"))
		_, err := service.Run(context.Background(), query, fullAccess(), true)

		assert.Error(t, err)
		assert.Equal(t, "DatasetNotFoundException", err.(*serverErrors.ServerError).Name)
	})

	t.Run("duplicate component ids", func(t *testing.T) {
		query := parseQuery(t, `{
			"datasetId": "dataset-1",
			"logic": {"id": "A"},
			"components": [
				{"id": "A", "patients": {"filters": []}},
				{"id": "A", "patients": {"filters": []}}
			],
			"results": [{"table": "patients", "fields": ["gender"]}]
		}`)
		_, err := service.Run(context.Background(), query, fullAccess(), true)

		assert.Error(t, err)
		assert.Equal(t, "InvalidLogicException", err.(*serverErrors.ServerError).Name)
	})

	t.Run("count query without fields", func(t *testing.T) {
		query := parseQuery(t, `{
			"datasetId": "dataset-1",
			"logic": {"id": "A"},
			"components": [{"id": "A", "patients": {"filters": []}}],
			"results": [{"table": "patients"}]
		}`)
		_, err := service.Run(context.Background(), query, fullAccess(), true)

		assert.Error(t, err)
		assert.Equal(t, "InvalidJsonException", err.(*serverErrors.ServerError).Name)
	})

	t.Run("cancelled context surfaces as CancelledError", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		query := parseQuery(t, fmt.Sprintf(baseQuery, testDatasetId))
		_, err := service.Run(ctx, query, fullAccess(), true)

		assert.Error(t, err)
		assert.Equal(t, "CancelledError", err.(*serverErrors.ServerError).Name)
	})
}

func TestRunVariantComponent(t *testing.T) {
	service, repository := newTestService(t)
	seedPatients(t, repository, 2, 0)
	ctx := context.Background()

	// a real VCF with calls in range, but its variant set points at a
	// patient that has no clinical row
	vcfPath := filepath.Join(service.Variants.VcfDir(), "orphan.vcf")
	writeTestVcf(t, vcfPath, 5)
	assert.NoError(t, repository.PutVariantSet(ctx, &records.VariantSet{
		Id:        "vs1",
		DatasetId: testDatasetId,
		Name:      "orphan-set",
		PatientId: "ghost",
		SampleId:  "s1",
		DataPath:  "orphan.vcf",
	}))

	query := parseQuery(t, `{
		"datasetId": "dataset-1",
		"logic": {"id": "A"},
		"components": [{"id": "A", "variants": {"referenceName": "1", "start": 1, "end": 1000000}}],
		"results": [{"table": "patients"}]
	}`)

	result, err := service.Run(ctx, query, fullAccess(), false)
	assert.NoError(t, err)

	rows, ok := result["patients"].([]map[string]interface{})
	assert.True(t, ok)
	assert.Len(t, rows, 0)
}

func TestSearchTable(t *testing.T) {
	service, repository := newTestService(t)
	seedPatients(t, repository, 3, 2)

	rows, err := service.SearchTable(context.Background(), testDatasetId, "patients",
		[]dtos.Filter{{Field: "gender", Operator: "==", Value: "female"}}, fullAccess())

	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "female", row["gender"])
	}
}

// writeTestVcf writes count calls on chromosome 1, positions 100..
func writeTestVcf(t *testing.T, path string, count int) {
	f, err := os.Create(path)
	assert.NoError(t, err)
	defer f.Close()

	fmt.Fprintln(f, "##fileformat=VCFv4.2")
	fmt.Fprintln(f, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	for i := 0; i < count; i++ {
		fmt.Fprintf(f, "1\t%d\t.\tA\tT\t50\tPASS\t.\n", 100+i)
	}
}
