package records

import (
	"fmt"
	"net/http"
	"time"

	"candig/metadata/models/dtos"
	"candig/metadata/models/records"
	"candig/metadata/mvc"
	"candig/metadata/services/access"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/labstack/echo"
)

// GetDatasets lists the datasets the caller's access map grants any
// tier on ; invisible datasets are omitted rather than erroring.
func GetDatasets(c echo.Context) error {
	fmt.Printf("[%s] - GetDatasets hit!\n", time.Now())
	mc, accessMap := mvc.RetrieveCommonElements(c)

	datasets, err := mc.Repository.Datasets(mc.Request().Context())
	if err != nil {
		return mvc.WriteError(c, err)
	}

	visible := []records.Dataset{}
	for _, dataset := range datasets {
		if _, ok := accessMap.Tier(dataset.Name); ok {
			visible = append(visible, *dataset)
		}
	}

	return c.JSON(http.StatusOK, &dtos.DatasetsResponse{Datasets: visible})
}

// GetRecordById serves GET /:table/:id for every retrievable entity
// table, tier-redacted. The table param is validated upstream by the
// table middleware.
func GetRecordById(c echo.Context) error {
	fmt.Printf("[%s] - GetRecordById hit!\n", time.Now())
	mc, accessMap := mvc.RetrieveCommonElements(c)

	table := c.Param("table")
	id := c.Param("id")

	record, err := mc.Repository.GetRecord(mc.Request().Context(), table, id)
	if err != nil {
		return mvc.WriteError(c, err)
	}
	if record == nil {
		return mvc.WriteError(c, serverErrors.NewNotFound(entityLabel(table), id))
	}

	dataset, err := mc.Repository.GetDataset(mc.Request().Context(), record.DatasetId)
	if err != nil {
		return mvc.WriteError(c, err)
	}
	callerTier := -1
	if dataset != nil {
		if tier, ok := accessMap.Tier(dataset.Name); ok {
			callerTier = tier
		} else {
			return mvc.WriteError(c, serverErrors.NewNotAuthorized())
		}
	}

	return c.JSON(http.StatusOK, access.Redact(record, callerTier))
}

// SearchTable serves POST /:table/search : a bare filter list over
// one table, no patient join.
func SearchTable(c echo.Context) error {
	fmt.Printf("[%s] - SearchTable hit!\n", time.Now())
	mc, accessMap := mvc.RetrieveCommonElements(c)

	var request dtos.TableSearchRequest
	if _, err := mvc.BindJson(c, &request); err != nil {
		return mvc.WriteError(c, err)
	}
	if request.DatasetId == "" {
		return mvc.WriteError(c, serverErrors.NewInvalidJson("missing 'datasetId'"))
	}

	rows, err := mc.SearchService.SearchTable(
		mc.Request().Context(), request.DatasetId, c.Param("table"), request.Filters, accessMap)
	if err != nil {
		return mvc.WriteError(c, err)
	}

	return c.JSON(http.StatusOK, dtos.QueryResult{c.Param("table"): rows})
}

// entityLabel turns a plural table name into the singular label the
// not-found exception names are derived from.
func entityLabel(table string) string {
	switch table {
	case "studies":
		return "study"
	default:
		if len(table) > 1 && table[len(table)-1] == 's' {
			return table[:len(table)-1]
		}
		return table
	}
}
