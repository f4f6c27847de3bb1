package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"candig/metadata/models/ingest"
	"candig/metadata/models/records"
	"candig/metadata/models/schemas"
	"candig/metadata/repositories"
	"candig/metadata/utils"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type IngestionService struct {
	Initialized         bool
	IngestRequestChan   chan *ingest.ClinicalIngestRequest
	IngestRequestMap    map[string]*ingest.ClinicalIngestRequest
	IngestRequestMapMux sync.RWMutex

	Repository repositories.Repository
	Logger     *logrus.Logger
}

func NewIngestionService(repository repositories.Repository, logger *logrus.Logger) *IngestionService {
	iz := &IngestionService{
		Initialized:       false,
		IngestRequestChan: make(chan *ingest.ClinicalIngestRequest),
		IngestRequestMap:  map[string]*ingest.ClinicalIngestRequest{},
		Repository:        repository,
		Logger:            logger,
	}

	iz.Init()

	return iz
}

func (i *IngestionService) Init() {
	// safeguard to prevent multiple initilizations
	if !i.Initialized {
		// listener for ingest request state updates
		go func() {
			for {
				request := <-i.IngestRequestChan
				if request.State == ingest.Queued {
					fmt.Printf("Queueing a new clinical ingestion request for %s\n", request.Filename)
				}

				request.UpdatedAt = time.Now().String()
				i.IngestRequestMapMux.Lock()
				i.IngestRequestMap[request.Id.String()] = request
				i.IngestRequestMapMux.Unlock()
			}
		}()
		i.Initialized = true
	}
}

func (i *IngestionService) Requests() []*ingest.ClinicalIngestRequest {
	i.IngestRequestMapMux.RLock()
	defer i.IngestRequestMapMux.RUnlock()

	requests := make([]*ingest.ClinicalIngestRequest, 0, len(i.IngestRequestMap))
	for _, request := range i.IngestRequestMap {
		requests = append(requests, request)
	}
	sort.Slice(requests, func(a, b int) bool {
		return requests[a].CreatedAt < requests[b].CreatedAt
	})

	return requests
}

// ProcessDocument walks one bulk clinical document and writes every
// row into the registry. The dataset is created on first sight. Rows
// keep insertion order ; created/updated stamps are always set server
// side, never taken from the document.
func (i *IngestionService) ProcessDocument(
	ctx context.Context,
	document *ingest.ClinicalDocument,
	request *ingest.ClinicalIngestRequest) error {

	if document.DatasetName == "" {
		return serverErrors.NewInvalidJson("ingest document requires a 'datasetName'")
	}

	request.State = ingest.Running
	i.IngestRequestChan <- request

	dataset, err := i.Repository.GetDatasetByName(ctx, document.DatasetName)
	if err != nil {
		return i.fail(request, err)
	}
	if dataset == nil {
		dataset = &records.Dataset{
			Id:   uuid.New().String(),
			Name: document.DatasetName,
		}
		if err := i.Repository.CreateDataset(ctx, dataset); err != nil {
			return i.fail(request, err)
		}
	}
	request.DatasetId = dataset.Id

	// deterministic table order keeps ingests reproducible
	tableNames := make([]string, 0, len(document.Tables))
	for tableName := range document.Tables {
		tableNames = append(tableNames, tableName)
	}
	sort.Strings(tableNames)

	total := 0
	for _, tableName := range tableNames {
		table, ok := schemas.GetTable(tableName)
		if !ok {
			return i.fail(request, serverErrors.NewInvalidTable(tableName))
		}

		for _, row := range document.Tables[tableName] {
			record, err := buildRecord(dataset.Id, table, row)
			if err != nil {
				return i.fail(request, err)
			}
			if err := i.Repository.PutRecord(ctx, record); err != nil {
				return i.fail(request, err)
			}
			total++
		}
	}

	i.Logger.WithFields(logrus.Fields{
		"dataset": document.DatasetName,
		"rows":    total,
	}).Info("clinical ingest complete")

	request.State = ingest.Done
	request.Message = fmt.Sprintf("ingested %d rows", total)
	i.IngestRequestChan <- request

	return nil
}

func (i *IngestionService) fail(request *ingest.ClinicalIngestRequest, err error) error {
	request.State = ingest.Error
	request.Message = err.Error()
	i.IngestRequestChan <- request
	return err
}

// buildRecord splits one wire row into domain attributes and their
// companion sensitivity tiers. A "<field>Tier" key is a tier for
// <field> when <field> is in the table schema, otherwise it is an
// unknown field. List values are sorted and comma-joined so that
// count-mode bucketing sees one stable string.
func buildRecord(datasetId string, table *schemas.Table, row map[string]interface{}) (*records.Record, error) {
	record := &records.Record{
		Id:        uuid.New().String(),
		DatasetId: datasetId,
		Table:     table.Name,
		Created:   time.Now().Format(time.RFC3339),
		Updated:   time.Now().Format(time.RFC3339),
		Attrs:     map[string]string{},
		Tiers:     map[string]int{},
	}

	for key, value := range row {
		if value == nil {
			continue
		}

		if field, ok := tierCompanion(table, key); ok {
			tier, err := asTier(value)
			if err != nil {
				return nil, serverErrors.NewInvalidJson(fmt.Sprintf("'%s' must be an integer tier", key))
			}
			record.Tiers[field] = tier
			continue
		}

		if key == "id" {
			// caller-supplied ids are honoured only in uuid form
			if id, ok := value.(string); ok && utils.IsValidUUID(id) {
				record.Id = id
			}
			continue
		}
		if key == "name" {
			record.Name, _ = value.(string)
			continue
		}

		if !table.HasField(key) {
			return nil, serverErrors.NewInvalidField(key)
		}
		record.Attrs[key] = flattenValue(value)
	}

	if record.Name == "" {
		record.Name = record.Attrs[table.JoinKey]
	}

	return record, nil
}

func tierCompanion(table *schemas.Table, key string) (string, bool) {
	if !strings.HasSuffix(key, "Tier") {
		return "", false
	}
	field := strings.TrimSuffix(key, "Tier")
	if !table.HasField(field) {
		return "", false
	}
	return field, true
}

func asTier(value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("unsupported tier type %T", value)
	}
}

func flattenValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, flattenValue(item))
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", value)
	}
}

// LoadGenes streams a GENCODE-style GTF annotation into the gene
// catalog, keeping gene rows only.
func (i *IngestionService) LoadGenes(ctx context.Context, gtfPath string) (int, error) {
	gtfFile, err := os.Open(gtfPath)
	if err != nil {
		return 0, err
	}
	defer gtfFile.Close()

	fileScanner := bufio.NewScanner(gtfFile)
	fileScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	loaded := 0
	for fileScanner.Scan() {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}

		rowText := fileScanner.Text()
		if len(rowText) < 2 || rowText[:2] == "##" {
			// Skip header rows
			continue
		}

		rowSplits := strings.Split(rowText, "\t")
		if len(rowSplits) < 9 || rowSplits[2] != "gene" {
			// i.e, an exon or transcript row
			continue
		}

		chrom := strings.ReplaceAll(rowSplits[0], "chr", "")
		start, _ := strconv.Atoi(rowSplits[3])
		end, _ := strconv.Atoi(rowSplits[4])

		geneName := ""
		for _, clump := range strings.Split(rowSplits[8], ";") {
			clump = strings.TrimSpace(clump)
			if strings.HasPrefix(clump, "gene_name") {
				geneName = strings.Trim(strings.TrimSpace(strings.TrimPrefix(clump, "gene_name")), "\"")
				break
			}
		}
		if geneName == "" || start == 0 || end == 0 {
			continue
		}

		err := i.Repository.PutGene(ctx, &records.Gene{
			Name:  geneName,
			Chrom: chrom,
			// GTF is one-based inclusive ; stored zero-based half-open
			Start: start - 1,
			End:   end,
		})
		if err != nil {
			return loaded, err
		}
		loaded++
	}
	if err := fileScanner.Err(); err != nil {
		return loaded, err
	}

	i.Logger.WithField("genes", loaded).Info("gene catalog loaded")

	return loaded, nil
}
