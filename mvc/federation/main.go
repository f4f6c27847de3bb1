package federation

import (
	"fmt"
	"net/http"
	"time"

	"candig/metadata/models/dtos"
	"candig/metadata/mvc"

	"github.com/labstack/echo"
)

// FederatedSearch serves POST /federation/search : the envelope is
// run locally, then replayed against every configured peer and the
// responses merged. Peer failures degrade to a local-only answer.
func FederatedSearch(c echo.Context) error {
	fmt.Printf("[%s] - FederatedSearch hit!\n", time.Now())
	mc, accessMap := mvc.RetrieveCommonElements(c)

	var query dtos.SearchQuery
	body, err := mvc.BindJson(c, &query)
	if err != nil {
		return mvc.WriteError(c, err)
	}

	local, err := mc.SearchService.Run(mc.Request().Context(), &query, accessMap, true)
	if err != nil {
		return mvc.WriteError(c, err)
	}

	headerName := mc.Config.AuthX.AccessMapHeader
	merged, err := mc.FederationService.FanOut(
		mc.Request().Context(), body, headerName, mc.Request().Header.Get(headerName), local)
	if err != nil {
		return mvc.WriteError(c, err)
	}

	return c.JSON(http.StatusOK, merged)
}
