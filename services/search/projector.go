package search

import (
	"context"

	"candig/metadata/models/dtos"
	"candig/metadata/models/records"
	"candig/metadata/models/schemas"
	"candig/metadata/services/access"
	variantsService "candig/metadata/services/variants"
	"candig/metadata/utils"

	serverErrors "candig/metadata/models/dtos/errors"
)

// notAllowedBucket absorbs occurrences whose field tier exceeds the
// caller's tier so that restricted values never surface, while the
// row itself still contributes to the aggregate.
const notAllowedBucket = "not_allowed"

func (s *Service) project(
	ctx context.Context,
	dataset *records.Dataset,
	results []dtos.ResultSpec,
	patients PatientSet,
	callerTier int,
	count bool) (dtos.QueryResult, error) {

	response := dtos.QueryResult{}

	for i := range results {
		spec := &results[i]

		if utils.StringInSlice(spec.Table, []string{"variants", "variantsByGene"}) {
			if err := s.projectVariants(ctx, dataset.Id, spec, patients, response); err != nil {
				return nil, err
			}
			continue
		}

		table, ok := schemas.GetTable(spec.Table)
		if !ok {
			return nil, serverErrors.NewInvalidTable(spec.Table)
		}
		for _, field := range spec.Fields {
			if !table.HasField(field) {
				return nil, serverErrors.NewInvalidField(field)
			}
		}
		if count && len(spec.Fields) == 0 {
			return nil, serverErrors.NewInvalidJson("fields list required for count query")
		}

		if len(patients) == 0 {
			response[spec.Table] = []interface{}{}
			continue
		}

		rows, err := s.Repository.ScanRecords(ctx, dataset.Id, table.Name)
		if err != nil {
			return nil, err
		}

		kept := rows[:0:0]
		for _, row := range rows {
			if _, ok := patients[row.PatientId()]; ok {
				kept = append(kept, row)
			}
		}

		if count {
			counts := aggregateFields(kept, spec.Fields, callerTier)
			entries, _ := response[spec.Table].([]dtos.FieldCounts)
			if len(counts) > 0 {
				entries = append(entries, counts)
			}
			if entries == nil {
				entries = []dtos.FieldCounts{}
			}
			response[spec.Table] = entries
			continue
		}

		response[spec.Table] = materializeRecords(kept, spec.Fields, callerTier)
	}

	return response, nil
}

// aggregateFields buckets every requested field's values across the
// surviving rows. Zero-count buckets never exist by construction ;
// rows carrying a field above the caller's tier count towards the
// dedicated not_allowed bucket instead of their actual value.
func aggregateFields(rows []*records.Record, fields []string, callerTier int) dtos.FieldCounts {
	counts := dtos.FieldCounts{}

	for _, row := range rows {
		for _, field := range fields {
			value, present := row.Attrs[field]
			if !present {
				continue
			}
			if row.Tiers[field] > callerTier {
				value = notAllowedBucket
			}
			if counts[field] == nil {
				counts[field] = map[string]int{}
			}
			counts[field][value]++
		}
	}

	return counts
}

// materializeRecords redacts each row to the caller's tier ; when a
// field list is supplied, the output is narrowed to those fields and
// rows left with no visible requested field are dropped.
func materializeRecords(rows []*records.Record, fields []string, callerTier int) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(rows))

	for _, row := range rows {
		redacted := access.Redact(row, callerTier)

		if len(fields) == 0 {
			results = append(results, redacted)
			continue
		}

		narrowed := map[string]interface{}{}
		for _, field := range fields {
			if value, ok := redacted[field]; ok {
				narrowed[field] = value
			}
		}
		if len(narrowed) > 0 {
			results = append(results, narrowed)
		}
	}

	return results
}

func (s *Service) projectVariants(
	ctx context.Context,
	datasetId string,
	spec *dtos.ResultSpec,
	patients PatientSet,
	response dtos.QueryResult) error {

	if len(patients) == 0 {
		response["variants"] = []records.Variant{}
		response["callsets"] = []records.CallSet{}
		return nil
	}

	rangeSpec := variantsService.RangeSpec{
		Gene:          spec.Gene,
		ReferenceName: spec.ReferenceName,
		Start:         spec.Start,
		End:           spec.End,
	}
	if spec.Gene == "" && spec.ReferenceName == "" {
		return serverErrors.NewInvalidJson("variant results require a gene or a referenceName range")
	}

	variantResults, err := s.Variants.Search(ctx, datasetId, rangeSpec, patients)
	if err != nil {
		return err
	}
	if variantResults == nil {
		// unknown gene : an empty response, not an error
		return nil
	}

	response["variants"] = variantResults.Variants
	response["callsets"] = variantResults.CallSets
	return nil
}
