package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type userFile struct {
	Users []int64 `json:"users"`
}

// Store holds authorized user IDs in memory and mirrors them to disk on every
// change. All methods are safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	users map[int64]struct{}
}

// Load reads the persisted set from path. A missing file yields an empty
// store; a corrupt file is logged and discarded rather than blocking startup.
func Load(path string, logger *slog.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger,
		users:  make(map[int64]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to read authorized users file", slog.String("path", path), slog.Any("error", err))
		}
		return s
	}

	var f userFile
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("authorized users file is corrupt, starting empty",
			slog.String("path", path), slog.Any("error", err))
		return s
	}

	for _, id := range f.Users {
		s.users[id] = struct{}{}
	}
	logger.Info("loaded authorized users", slog.Int("count", len(s.users)))
	return s
}

// Contains reports whether the user has authenticated before.
func (s *Store) Contains(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok
}

// Authorize adds the user and persists the updated set. Adding an already
// authorized user is a no-op.
func (s *Store) Authorize(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; ok {
		return nil
	}
	s.users[userID] = struct{}{}

	if err := s.save(); err != nil {
		delete(s.users, userID)
		return fmt.Errorf("failed to persist authorized users: %w", err)
	}

	s.logger.Info("user authorized", slog.Int64("user_id", userID))
	return nil
}

// Len returns the number of authorized users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// save writes the current set. Caller holds the write lock.
func (s *Store) save() error {
	f := userFile{Users: make([]int64, 0, len(s.users))}
	for id := range s.users {
		f.Users = append(f.Users, id)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}
