package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"planner/internal/model"
)

// Seeder is implemented by both SQLStore and Memory.
type Seeder interface {
	InsertSession(ctx context.Context, r model.Session) error
	InsertAppointment(ctx context.Context, r model.Appointment) error
	InsertCallback(ctx context.Context, r model.Callback) error
	CreatePlanningBlock(ctx context.Context, b model.PlanningBlock) error
}

// Fixture is the YAML layout accepted by LoadFixture.
type Fixture struct {
	Sessions     []model.Session       `yaml:"sessions"`
	Appointments []model.Appointment   `yaml:"appointments"`
	Callbacks    []model.Callback      `yaml:"callbacks"`
	Blocks       []model.PlanningBlock `yaml:"planning_blocks"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Seed inserts every record of f and returns how many were written.
func Seed(ctx context.Context, s Seeder, f *Fixture) (int, error) {
	n := 0
	for _, r := range f.Sessions {
		if err := s.InsertSession(ctx, r); err != nil {
			return n, fmt.Errorf("seed session %s: %w", r.ID, err)
		}
		n++
	}
	for _, r := range f.Appointments {
		if err := s.InsertAppointment(ctx, r); err != nil {
			return n, fmt.Errorf("seed appointment %s: %w", r.ID, err)
		}
		n++
	}
	for _, r := range f.Callbacks {
		if err := s.InsertCallback(ctx, r); err != nil {
			return n, fmt.Errorf("seed callback %s: %w", r.ID, err)
		}
		n++
	}
	for _, r := range f.Blocks {
		if err := s.CreatePlanningBlock(ctx, r); err != nil {
			return n, fmt.Errorf("seed planning block %s: %w", r.ID, err)
		}
		n++
	}
	return n, nil
}
