package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/ports"
	"github.com/lablia/docflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates IO latency to provoke races if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	time.Sleep(10 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sessionID] = sess
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(10 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_SerializesConcurrentSaves(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_ = manager.Save(ctx, id, domain.NewSession(id, "agents", "user"))

	var wg sync.WaitGroup
	concurrentWrites := 10

	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Save(ctx, id, domain.NewSession(id, "agents", "user"))
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	// Two racing callers must converge on a single session.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.LoadOrStart(ctx, id, "agents", "user-1")
			assert.NoError(t, err)
			assert.NotNil(t, sess)
		}()
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, "agents", sess.AppName)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Empty(t, sess.History)
}

func TestManager_LoadMissing(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	_, err := manager.Load(context.Background(), "never-created")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// stubLocker counts distributed lock round trips.
type stubLocker struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (l *stubLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.acquired++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLockerWrapsEveryOperation(t *testing.T) {
	locker := &stubLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker))
	ctx := context.Background()

	_ = manager.Save(ctx, "d", domain.NewSession("d", "agents", "u"))
	_, _ = manager.Load(ctx, "d")
	_ = manager.Delete(ctx, "d")

	assert.Equal(t, 3, locker.acquired)
	assert.Equal(t, 3, locker.released)
}
