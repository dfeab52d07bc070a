package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Status is the completeness tier of a product record, ordered from least
// to most complete.
type Status int

const (
	StatusSkeleton Status = iota
	StatusPartial
	StatusComplete
	StatusVerified
)

var statusNames = map[Status]string{
	StatusSkeleton: "skeleton",
	StatusPartial:  "partial",
	StatusComplete: "complete",
	StatusVerified: "verified",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "skeleton"
}

// ParseStatus converts a tier name back into a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusSkeleton, eris.Errorf("model: unknown status %q", name)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return eris.Wrap(err, "model: decode status")
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// QualityAssessment is the quality gate's verdict on a working record.
// It is recomputed on demand and never stored.
type QualityAssessment struct {
	Status           Status  `json:"status"`
	ECPTotal         float64 `json:"ecp_total"`
	NeedsEnrichment  bool    `json:"needs_enrichment"`
	RubricConfigured bool    `json:"rubric_configured"`
}

// RejectedSource records a source whose extraction was rejected and why.
type RejectedSource struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// EnrichmentResult is the outcome of one enrich call. It always carries the
// best available merged data, even when every source failed.
type EnrichmentResult struct {
	ProductID             string             `json:"product_id"`
	Success               bool               `json:"success"`
	ProductData           Fields             `json:"product_data"`
	Confidences           map[string]float64 `json:"confidences"`
	Extra                 map[string]any     `json:"extra,omitempty"`
	SourcesUsed           []string           `json:"sources_used"`
	SourcesSearched       []string           `json:"sources_searched"`
	SourcesRejected       []RejectedSource   `json:"sources_rejected"`
	MembersOnlySites      []string           `json:"members_only_sites_detected"`
	FieldsEnriched        []string           `json:"fields_enriched"`
	StatusBefore          Status             `json:"status_before"`
	StatusAfter           Status             `json:"status_after"`
	ECPBefore             float64            `json:"ecp_before"`
	ECPAfter              float64            `json:"ecp_after"`
	SearchesPerformed     int                `json:"searches_performed"`
	AwardsSearchCompleted bool               `json:"awards_search_completed"`
	ElapsedSeconds        float64            `json:"elapsed_seconds"`
	Error                 string             `json:"error,omitempty"`
}
