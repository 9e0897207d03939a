// Package fs stores submissions and the contest status as JSON files.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
)

const (
	submissionsFile = "submissions.json"
	statusFile      = "status.json"
)

type Storage struct {
	rootPath string
	mu       sync.Mutex
}

// Ensure Storage implements the interfaces at compile time.
var (
	_ service.SubmissionRepository = (*Storage)(nil)
	_ service.StatusStore          = (*Storage)(nil)
)

func New(rootPath string) (*Storage, error) {
	// filepath.Clean turns "data/../data" into "data"
	p := filepath.Clean(rootPath)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", p, err)
	}
	return &Storage{rootPath: p}, nil
}

func (s *Storage) Load(ctx context.Context) ([]domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := []domain.Submission{}
	found, err := s.readJSON(submissionsFile, &subs)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := s.writeJSON(submissionsFile, subs); err != nil {
			return nil, err
		}
		return subs, nil
	}

	for i := range subs {
		// files written before the version field existed
		if subs[i].Version == 0 {
			subs[i].Version = domain.RecordVersion
		}
	}
	if err := domain.CheckSet(subs); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", submissionsFile, err)
	}
	return subs, nil
}

// SaveAll replaces the submissions file. The new content is written to a
// temp file and renamed over the old one, so readers see old or new, never a mix.
func (s *Storage) SaveAll(ctx context.Context, subs []domain.Submission) error {
	if err := domain.CheckSet(subs); err != nil {
		return fmt.Errorf("refusing to save submissions: %w", err)
	}
	if subs == nil {
		subs = []domain.Submission{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(submissionsFile, subs)
}

// LoadStatus returns the stored status, creating an open one on first use.
func (s *Storage) LoadStatus(ctx context.Context) (domain.ContestStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.ContestStatus{Open: true}
	found, err := s.readJSON(statusFile, &status)
	if err != nil {
		return domain.ContestStatus{}, err
	}
	if !found {
		if err := s.writeJSON(statusFile, status); err != nil {
			return domain.ContestStatus{}, err
		}
	}
	return status, nil
}

func (s *Storage) SaveStatus(ctx context.Context, status domain.ContestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(statusFile, status)
}

// Ping checks that the data directory is still reachable.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := os.Stat(s.rootPath)
	return err
}

func (s *Storage) Cleanup() error {
	return nil
}

func (s *Storage) readJSON(name string, out any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.rootPath, name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

func (s *Storage) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.rootPath, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.rootPath, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
