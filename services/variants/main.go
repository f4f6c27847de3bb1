package variants

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"candig/metadata/models"
	"candig/metadata/models/records"
	"candig/metadata/repositories"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

/*
	Variant range selector. Resolves a genomic region, either given
	directly as {referenceName, start, end} or looked up from the
	gene catalog, against the variant sets of one dataset and scans
	their backing VCF files. File handles are pooled in a shared LRU
	cache so concurrent requests against the same file reuse one
	handle.
*/

// RangeSpec is the resolved selector input : exactly one of Gene or
// ReferenceName is set. Coordinates are zero-based half-open.
type RangeSpec struct {
	Gene          string
	ReferenceName string
	Start         int
	End           int
	VariantSetIds []string
}

// SearchResult carries the variants overlapping the range and one
// callset per contributing variant set.
type SearchResult struct {
	Variants []records.Variant `json:"variants"`
	CallSets []records.CallSet `json:"callsets"`
}

type Service struct {
	Repository repositories.Repository
	Logger     *logrus.Logger

	vcfDirPath string

	// openMux serializes cache misses so a file is only ever
	// opened once no matter how many requests race on it
	openMux sync.Mutex
	cache   *lru.Cache[string, *vcfFile]
}

func NewVariantService(cfg *models.Config, repository repositories.Repository, logger *logrus.Logger) (*Service, error) {
	cacheSize := cfg.Registry.FileHandleCacheSize
	if cacheSize <= 0 {
		cacheSize = 32
	}
	cache, err := lru.NewWithEvict(cacheSize, func(path string, file *vcfFile) {
		file.Close()
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		Repository: repository,
		Logger:     logger,
		vcfDirPath: cfg.Registry.VcfDirPath,
		cache:      cache,
	}, nil
}

// VcfDir returns the directory relative data paths resolve against.
func (s *Service) VcfDir() string {
	return s.vcfDirPath
}

// Search resolves the range and returns the overlapping variants of
// every selected variant set. A nil result with a nil error means the
// requested gene is not in the catalog : the caller renders an empty
// response rather than an error. When patients is non-nil, variant
// sets whose patientId is not in the set are excluded.
func (s *Service) Search(
	ctx context.Context,
	datasetId string,
	spec RangeSpec,
	patients map[string]struct{}) (*SearchResult, error) {

	region, known, err := s.resolveRegion(ctx, spec)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, nil
	}

	variantSets, err := s.Repository.VariantSets(ctx, datasetId, spec.VariantSetIds)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Variants: []records.Variant{},
		CallSets: []records.CallSet{},
	}

	for _, variantSet := range variantSets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if patients != nil {
			if _, ok := patients[variantSet.PatientId]; !ok {
				continue
			}
		}

		hits, err := s.scanVariantSet(variantSet, region)
		if err != nil {
			// partial success : a broken file skips its set only
			s.Logger.WithFields(logrus.Fields{
				"variantSetId": variantSet.Id,
				"dataPath":     variantSet.DataPath,
			}).WithError(err).Warn("skipping unreadable variant set")
			continue
		}
		if len(hits) == 0 {
			continue
		}

		result.Variants = append(result.Variants, hits...)
		result.CallSets = append(result.CallSets, records.CallSet{
			Id:           fmt.Sprintf("%s/%s", variantSet.Id, variantSet.SampleId),
			Name:         variantSet.Name,
			VariantSetId: variantSet.Id,
			SampleId:     variantSet.SampleId,
		})
	}

	return result, nil
}

// PatientIds resolves the range as a query component : the patient of
// every variant set yielding at least one variant in range. An unknown
// gene resolves to the empty set.
func (s *Service) PatientIds(
	ctx context.Context,
	datasetId string,
	spec RangeSpec) (map[string]struct{}, error) {

	patients := map[string]struct{}{}

	region, known, err := s.resolveRegion(ctx, spec)
	if err != nil {
		return nil, err
	}
	if !known {
		return patients, nil
	}

	variantSets, err := s.Repository.VariantSets(ctx, datasetId, spec.VariantSetIds)
	if err != nil {
		return nil, err
	}

	for _, variantSet := range variantSets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if variantSet.PatientId == "" {
			continue
		}
		if _, ok := patients[variantSet.PatientId]; ok {
			continue
		}

		hits, err := s.scanVariantSet(variantSet, region)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"variantSetId": variantSet.Id,
				"dataPath":     variantSet.DataPath,
			}).WithError(err).Warn("skipping unreadable variant set")
			continue
		}
		if len(hits) > 0 {
			patients[variantSet.PatientId] = struct{}{}
		}
	}

	return patients, nil
}

type region struct {
	ReferenceName string
	Start         int
	End           int
}

func (s *Service) resolveRegion(ctx context.Context, spec RangeSpec) (region, bool, error) {
	if spec.Gene == "" {
		return region{
			ReferenceName: spec.ReferenceName,
			Start:         spec.Start,
			End:           spec.End,
		}, true, nil
	}

	gene, err := s.Repository.GetGene(ctx, spec.Gene)
	if err != nil {
		return region{}, false, err
	}
	if gene == nil {
		return region{}, false, nil
	}

	return region{
		ReferenceName: gene.Chrom,
		Start:         gene.Start,
		End:           gene.End,
	}, true, nil
}

func (s *Service) scanVariantSet(variantSet *records.VariantSet, reg region) ([]records.Variant, error) {
	path := variantSet.DataPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.vcfDirPath, path)
	}

	file, err := s.openFile(path)
	if err != nil {
		return nil, err
	}

	return file.Query(variantSet.Id, reg.ReferenceName, reg.Start, reg.End)
}

func (s *Service) openFile(path string) (*vcfFile, error) {
	if file, ok := s.cache.Get(path); ok {
		return file, nil
	}

	s.openMux.Lock()
	defer s.openMux.Unlock()

	// another request may have opened it while we waited
	if file, ok := s.cache.Get(path); ok {
		return file, nil
	}

	file, err := openVcfFile(path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(path, file)

	return file, nil
}
