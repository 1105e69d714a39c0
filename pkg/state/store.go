package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ruenh/tiktok-monitor/pkg/logger"
)

// MaxRecentRecords is the hard cap on RecentRecords results. It protects
// CLI and dashboard consumers from unbounded memory use on large histories.
const MaxRecentRecords = 100

// DeliveryStatus is the lifecycle state of a delivery record
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

// DeliveryRecord is the durable record of having seen one video and
// attempted to relay it. Once a video has a record it is never re-delivered
// by the normal poll path, regardless of status.
type DeliveryRecord struct {
	VideoID     string         `json:"video_id"`
	Author      string         `json:"author"`
	ProcessedAt time.Time      `json:"processed_at"`
	Status      DeliveryStatus `json:"status"`
	RetryCount  int            `json:"retry_count"`
}

// snapshot is the on-disk shape of the store
type snapshot struct {
	Videos     map[string]DeliveryRecord `json:"videos"`
	LastChecks map[string]time.Time      `json:"last_checks"`
	UpdatedAt  time.Time                 `json:"updated_at"`
	Version    int                       `json:"version"`
}

// Store is the file-backed delivery state. The monitor is the sole writer;
// the internal lock exists so CLI commands can read while a cycle runs.
type Store struct {
	path   string
	logger logger.Logger

	mu         sync.RWMutex
	videos     map[string]DeliveryRecord
	lastChecks map[string]time.Time
}

// NewStore creates a store backed by the given file path. An empty path
// selects the platform data directory. The store starts empty; call Load
// to hydrate it from disk.
func NewStore(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if path == "" {
		dataDir, err := getDataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		path = filepath.Join(dataDir, "state.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &Store{
		path:       path,
		logger:     log,
		videos:     make(map[string]DeliveryRecord),
		lastChecks: make(map[string]time.Time),
	}, nil
}

// Load hydrates the store from the backing file. A missing file yields an
// empty initialized store; a malformed file is an error the caller must
// treat as fatal rather than continuing with partial state.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.videos = make(map[string]DeliveryRecord)
			s.lastChecks = make(map[string]time.Time)
			s.logger.DebugWithFields("no state file, starting empty", map[string]interface{}{
				"path": s.path,
			})
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode state file %s: %w", s.path, err)
	}

	s.videos = snap.Videos
	if s.videos == nil {
		s.videos = make(map[string]DeliveryRecord)
	}
	s.lastChecks = snap.LastChecks
	if s.lastChecks == nil {
		s.lastChecks = make(map[string]time.Time)
	}

	s.logger.InfoWithFields("state loaded", map[string]interface{}{
		"path":       s.path,
		"records":    len(s.videos),
		"authors":    len(s.lastChecks),
		"updated_at": snap.UpdatedAt,
	})

	return nil
}

// Save flushes the full in-memory snapshot to disk atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked()
}

// saveLocked writes the snapshot; callers must hold at least a read lock.
// Uses a temp file, fsync, then rename so a crash never leaves a torn file.
func (s *Store) saveLocked() error {
	snap := snapshot{
		Videos:     s.videos,
		LastChecks: s.lastChecks,
		UpdatedAt:  time.Now().UTC(),
		Version:    1,
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&snap); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync state file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Exists reports whether a video already has a delivery record.
func (s *Store) Exists(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.videos[videoID]
	return ok
}

// MarkProcessed inserts or replaces the record keyed by its VideoID and
// durably persists before returning. Applying the same record twice yields
// the same final state.
func (s *Store) MarkProcessed(record DeliveryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.videos[record.VideoID] = record
	if err := s.saveLocked(); err != nil {
		return err
	}

	s.logger.DebugWithFields("record persisted", map[string]interface{}{
		"video_id": record.VideoID,
		"author":   record.Author,
		"status":   string(record.Status),
		"retries":  record.RetryCount,
	})

	return nil
}

// Record returns the delivery record for a video, if present.
func (s *Store) Record(videoID string) (DeliveryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.videos[videoID]
	return rec, ok
}

// RecentRecords returns up to min(limit, MaxRecentRecords) records sorted
// by ProcessedAt descending. A non-positive limit means "as many as the
// cap allows".
func (s *Store) RecentRecords(limit int) []DeliveryRecord {
	if limit <= 0 || limit > MaxRecentRecords {
		limit = MaxRecentRecords
	}

	s.mu.RLock()
	records := make([]DeliveryRecord, 0, len(s.videos))
	for _, rec := range s.videos {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].ProcessedAt.After(records[j].ProcessedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

// FailedRecords returns all records with status failed, used to drive the
// secondary retry sweep.
func (s *Store) FailedRecords() []DeliveryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var failed []DeliveryRecord
	for _, rec := range s.videos {
		if rec.Status == StatusFailed {
			failed = append(failed, rec)
		}
	}
	return failed
}

// GetLastCheck returns the last poll time for an author, if any.
func (s *Store) GetLastCheck(author string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastChecks[author]
	return t, ok
}

// LastChecks returns a copy of all per-author check times.
func (s *Store) LastChecks() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make(map[string]time.Time, len(s.lastChecks))
	for author, t := range s.lastChecks {
		checks[author] = t
	}
	return checks
}

// SetLastCheck records the poll time for an author and durably persists.
func (s *Store) SetLastCheck(author string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastChecks[author] = t
	return s.saveLocked()
}

// Len returns the number of delivery records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "tiktok-monitor")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "tiktok-monitor")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "tiktok-monitor")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "tiktok-monitor")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
