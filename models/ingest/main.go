package ingest

import (
	"github.com/google/uuid"
)

type State string

const (
	Queued  State = "Queued"
	Running       = "Running"
	Done          = "Done"
	Error         = "Error"
)

type ClinicalIngestRequest struct {
	Id        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	DatasetId string    `json:"datasetId"`
	State     State     `json:"state"`
	Message   string    `json:"message"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type IngestResponseDTO struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	State    State     `json:"state"`
	Message  string    `json:"message"`
}

// ClinicalDocument is the bulk ingest wire format : one dataset,
// table name -> list of row objects, each a flat field -> value
// map optionally carrying <field>Tier companion entries.
type ClinicalDocument struct {
	DatasetName string                              `json:"datasetName"`
	Tables      map[string][]map[string]interface{} `json:"tables"`
}
