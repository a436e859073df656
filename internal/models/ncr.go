package models

import "time"

// NCRRecord is a non-conformance report row. The business fields of the
// legacy schema are kept opaque here; only identity, status and the
// attachment linkage matter to this service.
type NCRRecord struct {
	ID         string    `json:"id"`
	Number     string    `json:"no_jft"` // record number, e.g. "JFT-001"
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Attachment *string   `json:"lampiran,omitempty"` // stored file name, if any
	CreatedAt  time.Time `json:"createdAt"`
}
