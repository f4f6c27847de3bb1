package search

import (
	"fmt"
	"net/http"
	"time"

	"candig/metadata/models/dtos"
	"candig/metadata/mvc"

	"github.com/labstack/echo"
)

func Search(c echo.Context) error {
	fmt.Printf("[%s] - Search hit!\n", time.Now())
	return runQuery(c, false)
}

func Count(c echo.Context) error {
	fmt.Printf("[%s] - Count hit!\n", time.Now())
	return runQuery(c, true)
}

func runQuery(c echo.Context, count bool) error {
	mc, accessMap := mvc.RetrieveCommonElements(c)

	var query dtos.SearchQuery
	if _, err := mvc.BindJson(c, &query); err != nil {
		return mvc.WriteError(c, err)
	}

	result, err := mc.SearchService.Run(mc.Request().Context(), &query, accessMap, count)
	if err != nil {
		return mvc.WriteError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
