package variants

import (
	"fmt"
	"net/http"
	"time"

	"candig/metadata/models/dtos"
	"candig/metadata/mvc"
	variantsService "candig/metadata/services/variants"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/labstack/echo"
)

// VariantsSearch serves POST /variants/search : a direct range (or
// gene) query over one dataset's variant sets, no clinical join.
func VariantsSearch(c echo.Context) error {
	fmt.Printf("[%s] - VariantsSearch hit!\n", time.Now())
	mc, accessMap := mvc.RetrieveCommonElements(c)

	var request dtos.VariantSearchRequest
	if _, err := mvc.BindJson(c, &request); err != nil {
		return mvc.WriteError(c, err)
	}
	if request.DatasetId == "" {
		return mvc.WriteError(c, serverErrors.NewInvalidJson("missing 'datasetId'"))
	}
	if request.Gene == "" && request.ReferenceName == "" {
		return mvc.WriteError(c, serverErrors.NewInvalidJson("a 'gene' or a 'referenceName' range is required"))
	}

	dataset, err := mc.Repository.GetDataset(mc.Request().Context(), request.DatasetId)
	if err != nil {
		return mvc.WriteError(c, err)
	}
	if dataset == nil {
		return mvc.WriteError(c, serverErrors.NewNotFound("dataset", request.DatasetId))
	}
	if _, ok := accessMap.Tier(dataset.Name); !ok {
		return mvc.WriteError(c, serverErrors.NewNotAuthorized())
	}

	result, err := mc.VariantService.Search(mc.Request().Context(), dataset.Id, variantsService.RangeSpec{
		Gene:          request.Gene,
		ReferenceName: request.ReferenceName,
		Start:         request.Start,
		End:           request.End,
		VariantSetIds: request.VariantSetIds,
	}, nil)
	if err != nil {
		return mvc.WriteError(c, err)
	}
	if result == nil {
		// unknown gene
		return c.JSON(http.StatusOK, dtos.QueryResult{})
	}

	return c.JSON(http.StatusOK, &dtos.VariantSearchResponse{
		Variants: result.Variants,
		CallSets: result.CallSets,
	})
}
