package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry is one persisted transcript line.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store manages transcript persistence using JSONL files.
type Store struct {
	dir        string
	writeLocks map[string]*sync.Mutex
	locksMu    sync.Mutex
}

// NewStore creates a transcript store rooted at dir. An empty dir defaults
// to ~/.baxter/sessions.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".baxter", "sessions")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	log.Debug().Str("dir", dir).Msg("Session store initialized")
	return &Store{dir: dir, writeLocks: make(map[string]*sync.Mutex)}, nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("session key cannot be empty")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("session key cannot contain '..'")
	}
	if strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("session key cannot contain path separators")
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("session key cannot contain null bytes")
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".jsonl")
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if lock, ok := s.writeLocks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.writeLocks[key] = lock
	return lock
}

// Append adds one entry to the session transcript, creating the file on
// first use.
func (s *Store) Append(key string, entry Entry) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if entry.Role == "" {
		return fmt.Errorf("entry role cannot be empty")
	}
	if entry.Content == "" {
		return fmt.Errorf("entry content cannot be empty")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	file, err := os.OpenFile(s.path(key), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return file.Sync()
}

// Load returns all readable entries of a session, skipping corrupted lines.
// A missing session yields an empty slice.
func (s *Store) Load(key string) ([]Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Warn().Str("session", key).Int("line", lineNum).Err(err).Msg("Skipping corrupted transcript line")
			continue
		}
		if entry.Role == "" || entry.Content == "" {
			log.Warn().Str("session", key).Int("line", lineNum).Msg("Skipping invalid transcript entry")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return entries, nil
}

// List returns the keys of all stored sessions.
func (s *Store) List() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var keys []string
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	return keys, nil
}

// Delete removes a session transcript.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	s.locksMu.Lock()
	delete(s.writeLocks, key)
	s.locksMu.Unlock()
	return nil
}

// Repair rewrites a session file keeping only readable entries, replacing it
// atomically.
func (s *Store) Repair(key string) error {
	entries, err := s.Load(key)
	if err != nil {
		return err
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	sessionPath := s.path(key)
	tempPath := sessionPath + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		if _, err := file.Write(append(data, '\n')); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, sessionPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	log.Info().Str("session", key).Int("entries", len(entries)).Msg("Session repaired")
	return nil
}

// PruneOlderThan deletes sessions whose files have not been modified within
// maxAge. Returns the number of sessions removed.
func (s *Store) PruneOlderThan(maxAge time.Duration) (int, error) {
	keys, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, key := range keys {
		info, err := os.Stat(s.path(key))
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := s.Delete(key); err != nil {
				log.Warn().Str("session", key).Err(err).Msg("Failed to prune session")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("Old sessions pruned")
	}
	return removed, nil
}

// Recorder adapts the store to a per-session append interface.
type Recorder struct {
	store *Store
	key   string
}

// NewRecorder binds the store to one session key.
func NewRecorder(store *Store, key string) *Recorder {
	return &Recorder{store: store, key: key}
}

// Record appends one transcript entry.
func (r *Recorder) Record(role, content string) error {
	return r.store.Append(r.key, Entry{Role: role, Content: content})
}
