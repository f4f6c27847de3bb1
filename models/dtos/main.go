package dtos

import (
	"bytes"
	"encoding/json"
	"fmt"

	"candig/metadata/models/records"
	"candig/metadata/models/schemas"

	serverErrors "candig/metadata/models/dtos/errors"
)

/*
	Typed representation of the compound search envelope :

	{ datasetId, logic, components: [...], results: [...] }

	All envelope parsing is strict ; unknown keys anywhere in
	the envelope are rejected up front so the engine only ever
	operates on validated values.
*/

type SearchQuery struct {
	DatasetId  string
	Logic      *LogicNode
	Components []Component
	Results    []ResultSpec
}

func (q *SearchQuery) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return serverErrors.NewInvalidJson("malformed query envelope")
	}

	for key := range raw {
		switch key {
		case "datasetId", "dataset_id", "logic", "components", "results":
		default:
			return serverErrors.NewInvalidJson(fmt.Sprintf("unknown key '%s' in query envelope", key))
		}
	}

	datasetRaw, ok := raw["datasetId"]
	if !ok {
		datasetRaw, ok = raw["dataset_id"]
	}
	if !ok {
		return serverErrors.NewInvalidJson("missing 'datasetId'")
	}
	if err := json.Unmarshal(datasetRaw, &q.DatasetId); err != nil {
		return serverErrors.NewInvalidJson("'datasetId' must be a string")
	}

	logicRaw, ok := raw["logic"]
	if !ok {
		return serverErrors.NewInvalidJson("missing 'logic'")
	}
	q.Logic = &LogicNode{}
	if err := json.Unmarshal(logicRaw, q.Logic); err != nil {
		return err
	}

	componentsRaw, ok := raw["components"]
	if !ok {
		return serverErrors.NewInvalidJson("missing 'components'")
	}
	if err := json.Unmarshal(componentsRaw, &q.Components); err != nil {
		return err
	}

	resultsRaw, ok := raw["results"]
	if !ok {
		return serverErrors.NewInvalidJson("missing 'results'")
	}
	if err := json.Unmarshal(resultsRaw, &q.Results); err != nil {
		return err
	}

	return nil
}

// -- logic tree

const (
	LOGIC_KIND_ID  = "id"
	LOGIC_KIND_AND = "and"
	LOGIC_KIND_OR  = "or"
)

type LogicNode struct {
	Kind     string
	Id       string
	Negate   bool
	Children []LogicNode
}

func (n *LogicNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return serverErrors.NewInvalidLogic("malformed logic node")
	}

	if idRaw, hasId := raw["id"]; hasId {
		switch len(raw) {
		case 1:
		case 2:
			negateRaw, hasNegate := raw["negate"]
			if !hasNegate {
				return serverErrors.NewInvalidLogic("invalid key combination in logic node")
			}
			if err := json.Unmarshal(negateRaw, &n.Negate); err != nil {
				return serverErrors.NewInvalidLogic("'negate' must be a boolean")
			}
		default:
			return serverErrors.NewInvalidLogic("invalid number of keys in logic node")
		}
		if err := json.Unmarshal(idRaw, &n.Id); err != nil {
			return serverErrors.NewInvalidLogic("'id' must be a string")
		}
		n.Kind = LOGIC_KIND_ID
		return nil
	}

	if len(raw) != 1 {
		return serverErrors.NewInvalidLogic("invalid number of keys in logic node")
	}

	for key, value := range raw {
		switch key {
		case LOGIC_KIND_AND, LOGIC_KIND_OR:
			n.Kind = key
			n.Children = []LogicNode{}
			if err := json.Unmarshal(value, &n.Children); err != nil {
				if serverError, ok := err.(*serverErrors.ServerError); ok {
					return serverError
				}
				return serverErrors.NewInvalidLogic(fmt.Sprintf("'%s' must be a list of logic nodes", key))
			}
		default:
			return serverErrors.NewInvalidLogic(fmt.Sprintf("invalid key '%s' used in logic node", key))
		}
	}

	return nil
}

// -- components

type Component struct {
	Id string

	// exactly one of the three shapes below is populated
	Table   string
	Filters []Filter

	Variants *VariantRangeSpec

	Gene string
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return serverErrors.NewInvalidJson("malformed component")
	}

	idRaw, hasId := raw["id"]
	if !hasId || len(raw) != 2 {
		return serverErrors.NewInvalidJson("component requires an 'id' and exactly one table key")
	}
	if err := json.Unmarshal(idRaw, &c.Id); err != nil {
		return serverErrors.NewInvalidJson("component 'id' must be a string")
	}

	for key, value := range raw {
		if key == "id" {
			continue
		}

		switch key {
		case "variants":
			spec := VariantRangeSpec{}
			if err := strictDecode(value, &spec); err != nil {
				return serverErrors.NewInvalidJson("malformed 'variants' component")
			}
			if spec.VariantSetId != "" {
				spec.VariantSetIds = append(spec.VariantSetIds, spec.VariantSetId)
			}
			c.Variants = &spec

		case "variantsByGene":
			var body struct {
				Gene string `json:"gene"`
			}
			if err := strictDecode(value, &body); err != nil || body.Gene == "" {
				return serverErrors.NewInvalidJson("malformed 'variantsByGene' component")
			}
			c.Gene = body.Gene

		default:
			if _, ok := schemas.GetTable(key); !ok {
				return serverErrors.NewInvalidTable(key)
			}
			var body struct {
				Filters []Filter `json:"filters"`
			}
			if err := strictDecode(value, &body); err != nil {
				if serverError, ok := err.(*serverErrors.ServerError); ok {
					return serverError
				}
				return serverErrors.NewInvalidJson(fmt.Sprintf("malformed '%s' component", key))
			}
			c.Table = key
			c.Filters = body.Filters
		}
	}

	return nil
}

type VariantRangeSpec struct {
	// the singular spelling is accepted on the wire and folded in
	VariantSetId  string   `json:"variantSetId,omitempty"`
	VariantSetIds []string `json:"variantSetIds,omitempty"`
	ReferenceName string   `json:"referenceName"`
	Start         int      `json:"start"`
	End           int      `json:"end"`
}

// -- filters

type Filter struct {
	Field    string
	Operator string
	Value    string
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return serverErrors.NewInvalidJson("malformed filter")
	}

	for key, value := range raw {
		switch key {
		case "field":
			if err := json.Unmarshal(value, &f.Field); err != nil {
				return serverErrors.NewInvalidJson("filter 'field' must be a string")
			}
		case "operator":
			if err := json.Unmarshal(value, &f.Operator); err != nil {
				return serverErrors.NewInvalidJson("filter 'operator' must be a string")
			}
		case "value":
			// values compare as strings ; bare JSON numbers are
			// accepted and carried over literally
			if err := json.Unmarshal(value, &f.Value); err != nil {
				f.Value = string(bytes.TrimSpace(value))
			}
		default:
			return serverErrors.NewInvalidJson(fmt.Sprintf("unknown key '%s' in filter", key))
		}
	}

	if f.Field == "" || f.Operator == "" {
		return serverErrors.NewInvalidJson("filter requires 'field' and 'operator'")
	}

	return nil
}

// -- results specification

type ResultSpec struct {
	Table  string
	Fields []string

	// variant result tables only
	Gene          string
	ReferenceName string
	Start         int
	End           int
}

func (r *ResultSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return serverErrors.NewInvalidJson("malformed results entry")
	}

	for key, value := range raw {
		var err error
		switch key {
		case "table":
			err = json.Unmarshal(value, &r.Table)
		case "field", "fields":
			err = json.Unmarshal(value, &r.Fields)
		case "gene":
			err = json.Unmarshal(value, &r.Gene)
		case "referenceName":
			err = json.Unmarshal(value, &r.ReferenceName)
		case "start":
			err = json.Unmarshal(value, &r.Start)
		case "end":
			err = json.Unmarshal(value, &r.End)
		default:
			return serverErrors.NewInvalidJson(fmt.Sprintf("unknown key '%s' in results entry", key))
		}
		if err != nil {
			return serverErrors.NewInvalidJson(fmt.Sprintf("malformed '%s' in results entry", key))
		}
	}

	if r.Table == "" {
		return serverErrors.NewInvalidJson("results entry requires a 'table'")
	}

	return nil
}

func strictDecode(data []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// -- response shapes

// QueryResult is the serializable search/count response envelope,
// keyed by result table name.
type QueryResult map[string]interface{}

// FieldCounts maps field -> value -> occurrence count for one
// count-mode result entry.
type FieldCounts map[string]map[string]int

type VariantSearchRequest struct {
	DatasetId     string   `json:"datasetId"`
	Gene          string   `json:"gene"`
	ReferenceName string   `json:"referenceName"`
	Start         int      `json:"start"`
	End           int      `json:"end"`
	VariantSetIds []string `json:"variantSetIds"`
}

type VariantSearchResponse struct {
	Variants []records.Variant `json:"variants"`
	CallSets []records.CallSet `json:"callsets"`
}

type TableSearchRequest struct {
	DatasetId string   `json:"datasetId"`
	Filters   []Filter `json:"filters"`
}

type DatasetsResponse struct {
	Datasets []records.Dataset `json:"datasets"`
}
