package storage

import (
	"time"

	"mtest/internal/config"
	"mtest/internal/domain"
)

// Storage persists and loads suite run results (e.g. for the failures viewer).
type Storage interface {
	Save(results []domain.InvocationResult, failures []domain.CaseFailure, duration time.Duration, workers, exitStatus int) error
	Load() (*domain.RunOutput, error)
	// SaveOutput writes the full output (e.g. after failures are marked resolved).
	SaveOutput(output *domain.RunOutput) error
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
