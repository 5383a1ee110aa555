package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/lablia/docflow/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	return nil
}
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return nil, nil
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockEntriesDoNotLeak(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.Session{ID: sid})
		_ = mgr.Delete(ctx, sid)
	}

	// Reference counting must have reaped every entry.
	if remaining := len(mgr.locks); remaining != 0 {
		t.Errorf("lock map leak: %d entries remaining after all sessions deleted", remaining)
	}
}
