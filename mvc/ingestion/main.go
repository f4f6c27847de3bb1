package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"candig/metadata/models/ingest"
	"candig/metadata/mvc"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo"
	"github.com/mitchellh/mapstructure"
)

// ClinicalIngest serves POST /private/clinical/ingestion/run : one
// bulk document, processed in the background with a queryable
// request state.
func ClinicalIngest(c echo.Context) error {
	fmt.Printf("[%s] - ClinicalIngest hit!\n", time.Now())
	mc, _ := mvc.RetrieveCommonElements(c)

	var raw map[string]interface{}
	if _, err := mvc.BindJson(c, &raw); err != nil {
		return mvc.WriteError(c, err)
	}

	var document ingest.ClinicalDocument
	if err := mapstructure.Decode(raw, &document); err != nil {
		return mvc.WriteError(c, serverErrors.NewInvalidJson("malformed ingest document"))
	}

	request := &ingest.ClinicalIngestRequest{
		Id:        uuid.New(),
		Filename:  fmt.Sprintf("%s.json", document.DatasetName),
		State:     ingest.Queued,
		CreatedAt: fmt.Sprintf("%v", time.Now()),
	}
	mc.IngestionService.IngestRequestChan <- request

	iz := mc.IngestionService
	go func() {
		// detached from the request context on purpose : the ingest
		// outlives the HTTP call
		iz.ProcessDocument(context.Background(), &document, request)
	}()

	return c.JSON(http.StatusOK, &ingest.IngestResponseDTO{
		Id:       request.Id,
		Filename: request.Filename,
		State:    request.State,
		Message:  "ingest queued",
	})
}

// IngestionRequests serves GET /private/clinical/ingestion/requests.
func IngestionRequests(c echo.Context) error {
	fmt.Printf("[%s] - IngestionRequests hit!\n", time.Now())
	mc, _ := mvc.RetrieveCommonElements(c)

	return c.JSON(http.StatusOK, mc.IngestionService.Requests())
}

// GenesIngest serves POST /private/genes/ingestion/run : reload the
// gene catalog from the configured GTF annotation.
func GenesIngest(c echo.Context) error {
	fmt.Printf("[%s] - GenesIngest hit!\n", time.Now())
	mc, _ := mvc.RetrieveCommonElements(c)

	iz := mc.IngestionService
	gtfPath := mc.Config.Registry.GtfPath
	go func() {
		if _, err := iz.LoadGenes(context.Background(), gtfPath); err != nil {
			fmt.Printf("Gene ingestion failed: %s\n", err)
		}
	}()

	return c.JSON(http.StatusOK, map[string]string{"state": string(ingest.Queued)})
}
