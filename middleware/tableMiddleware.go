package middleware

import (
	"fmt"
	"net/http"

	"candig/metadata/models/schemas"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/labstack/echo"
)

/*
	Echo middleware to ensure a valid `table` HTTP path parameter was provided
*/
func MandateTableAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		table := c.Param("table")
		if len(table) == 0 {
			// if no table was provided, return an error
			return c.JSON(http.StatusBadRequest, serverErrors.NewInvalidJson("missing table name"))
		}

		if _, ok := schemas.GetTable(table); !ok {
			fmt.Printf("Invalid table %s\n", table)

			return c.JSON(http.StatusBadRequest, serverErrors.NewInvalidTable(table))
		}

		return next(c)
	}
}
