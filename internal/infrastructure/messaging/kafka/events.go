// Package kafka carries screening events and background jobs over
// segmentio/kafka-go. The producer publishes completion events and
// enqueues jobs; the consumer drives the background worker.
package kafka

import (
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

var (
	errUnknownJobType          = errors.New(errors.ErrCodeValidation, "unknown job type")
	errMissingScreeningPayload = errors.New(errors.ErrCodeValidation, "screening job missing request payload")
)

// Job types accepted on the job topic.
const (
	JobTypeScreening = "screening"
	JobTypeResolve   = "resolve"
)

// Job is the envelope for one unit of background work. A screening job
// carries the full request; a resolve job triggers a bulk resolver run
// and needs no payload.
type Job struct {
	Type       string             `json:"type"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
	Screening  *screening.Request `json:"screening,omitempty"`
}

// Key returns the partition key for the job so retries of the same
// subject stay ordered.
func (j Job) Key() string {
	if j.Screening != nil && j.Screening.SubjectID != "" {
		return j.Screening.SubjectID
	}
	return j.Type
}

// Validate rejects jobs the worker cannot act on.
func (j Job) Validate() error {
	switch j.Type {
	case JobTypeScreening:
		if j.Screening == nil {
			return errMissingScreeningPayload
		}
		return nil
	case JobTypeResolve:
		return nil
	default:
		return errUnknownJobType
	}
}
