package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Timestamp   time.Time          `json:"timestamp"`
	Integrator  string             `json:"integrator"`
	Dt          float64            `json:"dt"`
	TimeMax     float64            `json:"time_max"`
	Params      map[string]float64 `json:"params"`
	InitState   map[string]float64 `json:"init_state"`
	Samples     int                `json:"samples"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

func newRunID(label string) string {
	return fmt.Sprintf("%s_%s", label, uuid.NewString()[:8])
}

// Save writes metadata.json and trajectory.csv for a finished run and
// returns the new run ID.
func (s *Store) Save(label string, cfg *config.Config, result *dynamo.Result) (string, error) {
	if label == "" {
		label = "run"
	}
	runID := newRunID(label)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Label:      label,
		Timestamp:  time.Now(),
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		TimeMax:    cfg.TimeMax,
		Params:     cfg.System().GetParams(),
		InitState: map[string]float64{
			"theta1": cfg.InitState.Theta1,
			"theta2": cfg.InitState.Theta2,
			"omega1": cfg.InitState.Omega1,
			"omega2": cfg.InitState.Omega2,
		},
		Samples:     len(result.Trajectory),
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	// metadata goes last so List never reports a run without its table
	if err := writeCSV(filepath.Join(runDir, trajectoryFile), result.Trajectory); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeCSV(path string, tr dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteTrajectoryCSV(f, tr); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) TrajectoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, trajectoryFile)
}

func (s *Store) LoadTrajectory(runID string) (dynamo.Trajectory, error) {
	f, err := os.Open(s.TrajectoryPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	return ReadTrajectoryCSV(f)
}
