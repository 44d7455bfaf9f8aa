// Package session holds the logged-in operator for an intake station and
// persists it behind an explicit Load/Save boundary.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"regdesk/internal/common/errors"
	"regdesk/internal/models"
)

// ErrNoSession is returned by Load when nothing is stored or the stored
// session has expired.
var ErrNoSession = stderrors.New("no active session")

// Store persists one session per station.
type Store interface {
	Load(ctx context.Context, stationID string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context, stationID string) error
}

const redisKeyPrefix = "intake:session:"

// RedisStore keeps sessions as JSON values whose TTL follows ExpiresAt.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Load(ctx context.Context, stationID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+stationID).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, errors.NewSessionStoreError(err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.NewSessionStoreError(fmt.Errorf("decode session: %w", err))
	}
	if sess.IsExpired(s.now()) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil || sess.StationID == "" {
		return errors.NewSessionStoreError(fmt.Errorf("session without station id"))
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.NewSessionStoreError(err)
	}

	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = sess.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return s.Clear(ctx, sess.StationID)
		}
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.StationID, data, ttl).Err(); err != nil {
		return errors.NewSessionStoreError(err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, stationID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+stationID).Err(); err != nil {
		return errors.NewSessionStoreError(err)
	}
	return nil
}

// FileStore keeps all station sessions in a single JSON file.
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Load(_ context.Context, stationID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return nil, err
	}
	sess, ok := all[stationID]
	if !ok || sess.IsExpired(s.now()) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *FileStore) Save(_ context.Context, sess *models.Session) error {
	if sess == nil || sess.StationID == "" {
		return errors.NewSessionStoreError(fmt.Errorf("session without station id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	all[sess.StationID] = *sess
	return s.write(all)
}

func (s *FileStore) Clear(_ context.Context, stationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := all[stationID]; !ok {
		return nil
	}
	delete(all, stationID)
	return s.write(all)
}

func (s *FileStore) read() (map[string]models.Session, error) {
	all := make(map[string]models.Session)
	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, errors.NewSessionStoreError(err)
	}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, errors.NewSessionStoreError(fmt.Errorf("decode %s: %w", s.path, err))
	}
	return all, nil
}

// write replaces the file atomically so a crash never leaves half a document.
func (s *FileStore) write(all map[string]models.Session) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.NewSessionStoreError(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.NewSessionStoreError(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return errors.NewSessionStoreError(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewSessionStoreError(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewSessionStoreError(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.NewSessionStoreError(err)
	}
	return nil
}
