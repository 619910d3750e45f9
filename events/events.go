// Package events publishes what happened to problems and their root-cause
// trees so other services can follow along.
package events

import (
	"context"
	"time"
)

const (
	ProblemCreated   = "problem.created"
	RootCauseCreated = "rootcause.created"
	RootCauseToggled = "rootcause.toggled"
	SolutionCreated  = "solution.created"
)

type Event struct {
	Type       string      `json:"type"`
	ProblemID  int64       `json:"problem_id"`
	SubjectID  int64       `json:"subject_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(ctx context.Context, e Event) error {
	return nil
}

func (Nop) Close() error {
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(ctx context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error {
	return nil
}
