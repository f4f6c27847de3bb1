package main

import (
	"context"
	"strings"
	"time"

	"candig/metadata/contexts"
	cam "candig/metadata/middleware"
	"candig/metadata/models"
	"candig/metadata/repositories/sqlite"
	"candig/metadata/services/federation"
	"candig/metadata/services/ingestion"
	"candig/metadata/services/privacy"
	"candig/metadata/services/sanitation"
	"candig/metadata/services/search"
	"candig/metadata/services/variants"
	"candig/metadata/utils"

	federationMvc "candig/metadata/mvc/federation"
	ingestionMvc "candig/metadata/mvc/ingestion"
	recordsMvc "candig/metadata/mvc/records"
	searchMvc "candig/metadata/mvc/search"
	serviceInfoMvc "candig/metadata/mvc/service-info"
	variantsMvc "candig/metadata/mvc/variants"

	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	fmt.Printf("Using : \n"+

		"\tDebug : %t \n\n"+

		"\tRegistry DB Path : %s \n"+
		"\tVCF Directory Path : %s \n"+
		"\tGTF Path : %s \n"+
		"\tFile Handle Cache Size : %d\n\n"+

		"\tDP Epsilon : %f\n"+
		"\tAuthorization Enabled : %t\n"+
		"\tAccess Map Header : %s\n\n"+

		"\tFederation Peers : %s\n\n"+

		"Running on Port : %s\n",

		cfg.Debug,
		cfg.Registry.DbPath,
		cfg.Registry.VcfDirPath,
		cfg.Registry.GtfPath,
		cfg.Registry.FileHandleCacheSize,
		cfg.Privacy.DpEpsilon,
		cfg.AuthX.IsAuthorizationEnabled,
		cfg.AuthX.AccessMapHeader,
		strings.Split(cfg.Federation.PeersCommaSep, ","),
		cfg.Api.Port)
	// --

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Instantiate Server
	e := echo.New()

	// Service Connections:
	// -- SQLite registry
	db, err := utils.CreateRegistryConnection(cfg.Registry.DbPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	repository, err := sqlite.NewRepository(db, logger)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	// Service Singletons
	variantService, err := variants.NewVariantService(&cfg, repository, logger)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	privacyService := privacy.NewPrivacyService(&cfg, privacy.NewLaplaceSource(cfg.Privacy.Seed))
	searchService := search.NewSearchService(repository, variantService, privacyService, logger)
	iz := ingestion.NewIngestionService(repository, logger)
	fz := federation.NewFederationService(&cfg, logger)
	sanitation.NewSanitationService(repository, logger)

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
	}))

	// -- Override handlers with "custom metadata" context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.MetadataContext{
				Context:           c,
				Config:            &cfg,
				Repository:        repository,
				SearchService:     searchService,
				VariantService:    variantService,
				IngestionService:  iz,
				FederationService: fz,
			}
			return h(cc)
		}
	})

	// -- Per-request timeout, honoured by every registry and file scan
	requestTimeout := time.Duration(cfg.Api.RequestTimeoutMs) * time.Millisecond
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return h(c)
		}
	})

	// Global Middleware
	e.Use(cam.AccessMapAttribute)

	// Begin MVC Routes
	// -- Root
	e.GET("/", serviceInfoMvc.GetRoot)

	// -- Service Info
	e.GET("/service-info", serviceInfoMvc.GetServiceInfo)

	// -- Compound search
	e.POST("/search", searchMvc.Search)
	e.POST("/count", searchMvc.Count)

	// -- Datasets and records
	e.GET("/datasets", recordsMvc.GetDatasets)
	e.GET("/:table/:id", recordsMvc.GetRecordById,
		cam.MandateTableAttribute)
	e.POST("/:table/search", recordsMvc.SearchTable,
		cam.MandateTableAttribute)

	// -- Variants
	e.POST("/variants/search", variantsMvc.VariantsSearch)

	// -- Federation
	e.POST("/federation/search", federationMvc.FederatedSearch)

	// -- Ingestion
	e.POST("/private/clinical/ingestion/run", ingestionMvc.ClinicalIngest)
	e.GET("/private/clinical/ingestion/requests", ingestionMvc.IngestionRequests)
	e.POST("/private/genes/ingestion/run", ingestionMvc.GenesIngest)

	// Run
	e.Logger.Fatal(e.Start(":" + cfg.Api.Port))
}
