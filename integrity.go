package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aquilax/eightd/problem"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

type IntegrityReport struct {
	Problems    int `json:"problems"`
	Nodes       int `json:"nodes"`
	Dangling    int `json:"dangling"`
	Unreachable int `json:"unreachable"`
}

// IntegritySweep periodically rebuilds every tree and reports nodes that
// could not be placed under their parent.
type IntegritySweep struct {
	m    *Model
	log  zerolog.Logger
	cron *cron.Cron
}

func NewIntegritySweep(m *Model, schedule string, log zerolog.Logger) (*IntegritySweep, error) {
	s := &IntegritySweep{
		m:    m,
		log:  log.With().Str("job", "integrity").Logger(),
		cron: cron.New(),
	}
	if err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("integrity schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *IntegritySweep) Start() {
	s.cron.Start()
}

func (s *IntegritySweep) Stop() {
	s.cron.Stop()
}

func (s *IntegritySweep) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	report, err := s.Check(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("integrity sweep failed")
		return
	}
	event := s.log.Info()
	if report.Dangling > 0 || report.Unreachable > 0 {
		event = s.log.Warn()
	}
	event.
		Int("problems", report.Problems).
		Int("nodes", report.Nodes).
		Int("dangling", report.Dangling).
		Int("unreachable", report.Unreachable).
		Msg("integrity sweep done")
}

// Check walks every problem once.
func (s *IntegritySweep) Check(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport
	err := s.m.EachProblem(ctx, func(p problem.Problem) error {
		_, f, err := s.m.Forest(ctx, p.ID)
		if err != nil {
			return err
		}
		report.Problems++
		report.Nodes += f.Len()
		report.Dangling += len(f.Dangling())
		report.Unreachable += len(f.Unreachable())
		return nil
	})
	return report, err
}
