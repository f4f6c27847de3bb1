package search

import (
	"context"
	"errors"
	"sync"

	"candig/metadata/models/dtos"
	"candig/metadata/models/schemas"
	"candig/metadata/repositories"
	"candig/metadata/services/access"
	"candig/metadata/services/privacy"
	variantsService "candig/metadata/services/variants"

	serverErrors "candig/metadata/models/dtos/errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

/*
	Compound search engine. One Run call resolves every component
	of the envelope to a patient id set, combines the sets through
	the boolean logic tree, projects the surviving patients into
	counts or redacted records, and perturbs count output with the
	configured differential privacy noise.
*/

type Service struct {
	Repository repositories.Repository
	Variants   *variantsService.Service
	Privacy    *privacy.Service
	Logger     *logrus.Logger
}

func NewSearchService(
	repository repositories.Repository,
	variants *variantsService.Service,
	privacyService *privacy.Service,
	logger *logrus.Logger) *Service {

	return &Service{
		Repository: repository,
		Variants:   variants,
		Privacy:    privacyService,
		Logger:     logger,
	}
}

// Run executes one search envelope under the caller's access map.
// The count flag selects count-mode projection (the /count endpoint) ;
// record mode is the default (/search). The call is stateless and
// deterministic for a fixed registry snapshot and noise seed.
func (s *Service) Run(
	ctx context.Context,
	query *dtos.SearchQuery,
	accessMap access.AccessMap,
	count bool) (dtos.QueryResult, error) {

	dataset, err := s.Repository.GetDataset(ctx, query.DatasetId)
	if err != nil {
		return nil, asCancelled(err)
	}
	if dataset == nil {
		return nil, serverErrors.NewNotFound("dataset", query.DatasetId)
	}

	callerTier, authorized := accessMap.Tier(dataset.Name)
	if !authorized {
		return nil, serverErrors.NewNotAuthorized()
	}

	environment, err := s.resolveComponents(ctx, dataset.Id, query.Components)
	if err != nil {
		return nil, asCancelled(err)
	}

	universe, err := s.patientUniverse(ctx, dataset.Id)
	if err != nil {
		return nil, asCancelled(err)
	}

	patients, err := Combine(query.Logic, environment, universe)
	if err != nil {
		return nil, err
	}

	result, err := s.project(ctx, dataset, query.Results, patients, callerTier, count)
	if err != nil {
		return nil, asCancelled(err)
	}

	if count {
		s.Privacy.Perturb(result, dataset.Name)
	}

	return result, nil
}

// resolveComponents evaluates every component in parallel ; the
// components are pure functions of the registry snapshot, so the
// only shared state is the resulting environment map.
func (s *Service) resolveComponents(
	ctx context.Context,
	datasetId string,
	components []dtos.Component) (map[string]PatientSet, error) {

	environment := make(map[string]PatientSet, len(components))
	for _, component := range components {
		if _, duplicate := environment[component.Id]; duplicate {
			return nil, serverErrors.NewInvalidLogic("duplicate component id '" + component.Id + "'")
		}
		environment[component.Id] = nil
	}

	var environmentMux sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)

	for _, component := range components {
		component := component
		group.Go(func() error {
			patients, err := s.resolveComponent(groupCtx, datasetId, &component)
			if err != nil {
				return err
			}
			environmentMux.Lock()
			environment[component.Id] = patients
			environmentMux.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return environment, nil
}

func (s *Service) resolveComponent(
	ctx context.Context,
	datasetId string,
	component *dtos.Component) (PatientSet, error) {

	if component.Variants != nil {
		return s.Variants.PatientIds(ctx, datasetId, variantsService.RangeSpec{
			ReferenceName: component.Variants.ReferenceName,
			Start:         component.Variants.Start,
			End:           component.Variants.End,
			VariantSetIds: component.Variants.VariantSetIds,
		})
	}

	if component.Gene != "" {
		return s.Variants.PatientIds(ctx, datasetId, variantsService.RangeSpec{
			Gene: component.Gene,
		})
	}

	table, ok := schemas.GetTable(component.Table)
	if !ok {
		return nil, serverErrors.NewInvalidTable(component.Table)
	}
	if table.Kind != schemas.KIND_CLINICAL {
		// pipeline rows join by sampleId and cannot feed the
		// patient-identity join
		return nil, serverErrors.NewInvalidTable(component.Table)
	}

	rows, err := s.Repository.ScanRecords(ctx, datasetId, table.Name)
	if err != nil {
		return nil, err
	}

	matched, err := EvaluateFilters(rows, component.Filters, table)
	if err != nil {
		return nil, err
	}

	patients := PatientSet{}
	for _, row := range matched {
		if patientId := row.PatientId(); patientId != "" {
			patients[patientId] = struct{}{}
		}
	}
	return patients, nil
}

// patientUniverse is the set of patient ids present in the
// dataset's patients table ; negation is resolved against it.
func (s *Service) patientUniverse(ctx context.Context, datasetId string) (PatientSet, error) {
	rows, err := s.Repository.ScanRecords(ctx, datasetId, "patients")
	if err != nil {
		return nil, err
	}

	universe := PatientSet{}
	for _, row := range rows {
		if patientId := row.PatientId(); patientId != "" {
			universe[patientId] = struct{}{}
		}
	}
	return universe, nil
}

// SearchTable evaluates a bare filter list over one table and
// returns the matching rows redacted to the caller's tier. This
// backs the per-table search endpoints for clinical and pipeline
// tables alike ; no patient join is involved.
func (s *Service) SearchTable(
	ctx context.Context,
	datasetId string,
	tableName string,
	filters []dtos.Filter,
	accessMap access.AccessMap) ([]map[string]interface{}, error) {

	dataset, err := s.Repository.GetDataset(ctx, datasetId)
	if err != nil {
		return nil, asCancelled(err)
	}
	if dataset == nil {
		return nil, serverErrors.NewNotFound("dataset", datasetId)
	}

	callerTier, authorized := accessMap.Tier(dataset.Name)
	if !authorized {
		return nil, serverErrors.NewNotAuthorized()
	}

	table, ok := schemas.GetTable(tableName)
	if !ok {
		return nil, serverErrors.NewInvalidTable(tableName)
	}

	rows, err := s.Repository.ScanRecords(ctx, datasetId, table.Name)
	if err != nil {
		return nil, asCancelled(err)
	}

	matched, err := EvaluateFilters(rows, filters, table)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0, len(matched))
	for _, row := range matched {
		results = append(results, access.Redact(row, callerTier))
	}
	return results, nil
}

func asCancelled(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return serverErrors.NewCancelled()
	}
	return err
}
