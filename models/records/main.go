package records

/*
	Registry row models. Clinical and pipeline rows share one
	shape : a handful of bookkeeping columns plus a bag of domain
	attributes, each attribute paired with a sensitivity tier.
*/

type Dataset struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Record struct {
	Id        string `json:"id"`
	DatasetId string `json:"datasetId"`
	Table     string `json:"-"`
	Name      string `json:"name"`
	Created   string `json:"created"`
	Updated   string `json:"updated"`

	// domain field -> value ; all values are string typed,
	// numeric interpretation is driven by the table schema
	Attrs map[string]string `json:"attrs"`
	// domain field -> sensitivity tier (0 if absent)
	Tiers map[string]int `json:"tiers"`
}

// PatientId returns the patient join key, empty for orphan
// pipeline rows and malformed ingests.
func (r *Record) PatientId() string {
	return r.Attrs["patientId"]
}

func (r *Record) SampleId() string {
	return r.Attrs["sampleId"]
}

type VariantSet struct {
	Id             string `json:"id"`
	DatasetId      string `json:"datasetId"`
	Name           string `json:"name"`
	ReferenceSetId string `json:"referenceSetId"`
	PatientId      string `json:"patientId"`
	SampleId       string `json:"sampleId"`
	DataPath       string `json:"-"`
}

type Variant struct {
	Id            string   `json:"id"`
	VariantSetId  string   `json:"variantSetId"`
	ReferenceName string   `json:"referenceName"`
	Start         int      `json:"start"`
	End           int      `json:"end"`
	Ref           string   `json:"referenceBases"`
	Alt           []string `json:"alternateBases"`
	Qual          string   `json:"qual"`
	Filter        string   `json:"filter"`
}

type CallSet struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	VariantSetId string `json:"variantSetId"`
	SampleId     string `json:"sampleId"`
}

type Gene struct {
	Name  string `json:"name"`
	Chrom string `json:"chrom"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}
