package contexts

import (
	"candig/metadata/models"
	"candig/metadata/repositories"
	"candig/metadata/services/access"
	"candig/metadata/services/federation"
	"candig/metadata/services/ingestion"
	"candig/metadata/services/search"
	"candig/metadata/services/variants"

	"github.com/labstack/echo"
)

type (
	// "Helper" Context to pass into routes that need
	//  the registry, the query engine and other variables
	MetadataContext struct {
		echo.Context
		Config            *models.Config
		Repository        repositories.Repository
		SearchService     *search.Service
		VariantService    *variants.Service
		IngestionService  *ingestion.IngestionService
		FederationService *federation.Service

		// caller's dataset -> tier map, set by the access middleware
		AccessMap access.AccessMap
	}
)
