package mvc

import (
	"encoding/json"
	"errors"
	"io/ioutil"

	"candig/metadata/contexts"
	"candig/metadata/services/access"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo"
)

func RetrieveCommonElements(c echo.Context) (*contexts.MetadataContext, access.AccessMap) {
	mc := c.(*contexts.MetadataContext)
	return mc, mc.AccessMap
}

// BindJson decodes the request body into target, preserving the
// engine's typed parse errors instead of echo's generic binder
// wrapping. The raw body is returned so federation can replay the
// envelope verbatim.
func BindJson(c echo.Context, target interface{}) ([]byte, error) {
	body, err := ioutil.ReadAll(c.Request().Body)
	if err != nil {
		return nil, serverErrors.NewInvalidJson("unreadable request body")
	}

	if err := json.Unmarshal(body, target); err != nil {
		var serverError *serverErrors.ServerError
		if errors.As(err, &serverError) {
			return nil, serverError
		}
		return nil, serverErrors.NewInvalidJson("malformed request body")
	}

	return body, nil
}

// WriteError renders any engine error as its stable JSON shape.
// Unrecognized causes turn into the opaque internal variant tagged
// with a fresh request id ; the id also lands in the server log so
// operators can pair them up.
func WriteError(c echo.Context, err error) error {
	requestId := uuid.New().String()

	serverError := serverErrors.FromError(err, requestId)
	if serverError.Name == "InternalServerError" {
		mc := c.(*contexts.MetadataContext)
		mc.SearchService.Logger.WithField("requestId", requestId).WithError(err).Error("request failed")
	}

	return c.JSON(serverError.Code, serverError)
}
