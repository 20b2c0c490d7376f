package identity

import (
	"context"
	"sync"
)

// PrincipalStore persists the device session so it survives restarts
type PrincipalStore interface {
	// Load returns the persisted principal, or nil when signed out
	Load(ctx context.Context) (*Principal, error)
	Save(ctx context.Context, principal *Principal) error
	Clear(ctx context.Context) error
	// MarkSeen records uid and reports whether it had never been seen before
	MarkSeen(ctx context.Context, uid string) (bool, error)
}

// ChangeNotifier is implemented by stores shared between processes.
// Origin identifies the process that made the change.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, origin string) error
	// SubscribeChanges calls fn for every change until ctx is done
	SubscribeChanges(ctx context.Context, fn func(origin string)) error
}

// MemoryPrincipalStore keeps the session in process memory
type MemoryPrincipalStore struct {
	mu      sync.Mutex
	current *Principal
	seen    map[string]struct{}
}

// NewMemoryPrincipalStore creates an empty in-memory store
func NewMemoryPrincipalStore() *MemoryPrincipalStore {
	return &MemoryPrincipalStore{seen: make(map[string]struct{})}
}

func (s *MemoryPrincipalStore) Load(ctx context.Context) (*Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone(), nil
}

func (s *MemoryPrincipalStore) Save(ctx context.Context, principal *Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = principal.Clone()
	return nil
}

func (s *MemoryPrincipalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

func (s *MemoryPrincipalStore) MarkSeen(ctx context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[uid]; ok {
		return false, nil
	}
	s.seen[uid] = struct{}{}
	return true, nil
}

var _ PrincipalStore = (*MemoryPrincipalStore)(nil)
