package middleware

import (
	"fmt"
	"net/http"

	"candig/metadata/contexts"
	"candig/metadata/services/access"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/labstack/echo"
)

/*
	Echo middleware resolving the caller's access map. With
	authorization enabled the map comes from the gateway-issued
	JSON header ; disabled, every dataset is granted the configured
	default tier (local development and test setups).
*/
func AccessMapAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		mc := c.(*contexts.MetadataContext)
		cfg := mc.Config

		if !cfg.AuthX.IsAuthorizationEnabled {
			datasets, err := mc.Repository.Datasets(mc.Request().Context())
			if err != nil {
				return c.JSON(http.StatusInternalServerError, serverErrors.FromError(err, ""))
			}

			accessMap := access.AccessMap{}
			for _, dataset := range datasets {
				accessMap[dataset.Name] = cfg.AuthX.DefaultAccessTier
			}
			mc.AccessMap = accessMap

			return next(mc)
		}

		headerValue := mc.Request().Header.Get(cfg.AuthX.AccessMapHeader)
		accessMap, err := access.ParseAccessMap(headerValue)
		if err != nil {
			fmt.Printf("Invalid access map header: %s\n", err)

			return c.JSON(http.StatusBadRequest,
				serverErrors.NewInvalidJson(fmt.Sprintf("malformed %s header", cfg.AuthX.AccessMapHeader)))
		}
		mc.AccessMap = accessMap

		return next(mc)
	}
}
