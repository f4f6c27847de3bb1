package access

import (
	"encoding/json"

	"candig/metadata/models/records"
)

/*
	Field level access control. Every caller carries a per-request
	access map (dataset local name -> maximum visible tier) built
	by the authn middleware ; the absence of a dataset key denies
	access to that dataset entirely.
*/

type AccessMap map[string]int

// Tier returns the caller's maximum visible tier for a dataset,
// and whether the caller may see the dataset at all.
func (m AccessMap) Tier(datasetName string) (int, bool) {
	tier, ok := m[datasetName]
	return tier, ok
}

func ParseAccessMap(headerValue string) (AccessMap, error) {
	accessMap := AccessMap{}
	if headerValue == "" {
		return accessMap, nil
	}
	if err := json.Unmarshal([]byte(headerValue), &accessMap); err != nil {
		return nil, err
	}
	return accessMap, nil
}

// Redact projects a registry row to its caller-visible JSON object.
// A domain field is emitted only when its companion tier does not
// exceed the caller's tier ; fields without a registered tier are
// treated as tier 0. The function is pure and idempotent ; fields
// unknown to the table schema pass through under the same tier rule.
func Redact(record *records.Record, callerTier int) map[string]interface{} {
	redacted := map[string]interface{}{
		"id":        record.Id,
		"datasetId": record.DatasetId,
		"name":      record.Name,
		"created":   record.Created,
		"updated":   record.Updated,
	}

	for field, value := range record.Attrs {
		if record.Tiers[field] > callerTier {
			continue
		}
		redacted[field] = value
	}

	return redacted
}
