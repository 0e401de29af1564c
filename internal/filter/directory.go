package filter

import (
	"context"
	"sync"
)

// Directory answers existence questions about entities that filter values
// reference. Lookups are expected to be cheap point reads.
type Directory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	LabelExists(ctx context.Context, id int64) (bool, error)
	UsersWithRole(ctx context.Context, role string) ([]int64, error)
}

// TrustingDirectory accepts every id and knows no roles. Useful when
// compiling filters without a database.
type TrustingDirectory struct{}

func (TrustingDirectory) UserExists(context.Context, int64) (bool, error)  { return true, nil }
func (TrustingDirectory) LabelExists(context.Context, int64) (bool, error) { return true, nil }

func (TrustingDirectory) UsersWithRole(context.Context, string) ([]int64, error) {
	return nil, nil
}

// MemoDirectory memoizes another Directory. Create one per request; it never
// expires entries. Errors are not cached.
type MemoDirectory struct {
	next Directory

	mu     sync.Mutex
	users  map[int64]bool
	labels map[int64]bool
	roles  map[string][]int64
}

// NewMemoDirectory wraps next.
func NewMemoDirectory(next Directory) *MemoDirectory {
	return &MemoDirectory{
		next:   next,
		users:  make(map[int64]bool),
		labels: make(map[int64]bool),
		roles:  make(map[string][]int64),
	}
}

func (m *MemoDirectory) UserExists(ctx context.Context, id int64) (bool, error) {
	return memoLookup(m, m.users, id, func() (bool, error) { return m.next.UserExists(ctx, id) })
}

func (m *MemoDirectory) LabelExists(ctx context.Context, id int64) (bool, error) {
	return memoLookup(m, m.labels, id, func() (bool, error) { return m.next.LabelExists(ctx, id) })
}

func (m *MemoDirectory) UsersWithRole(ctx context.Context, role string) ([]int64, error) {
	ids, err := memoLookup(m, m.roles, role, func() ([]int64, error) { return m.next.UsersWithRole(ctx, role) })
	return append([]int64(nil), ids...), err
}

func memoLookup[K comparable, V any](m *MemoDirectory, cache map[K]V, key K, load func() (V, error)) (V, error) {
	m.mu.Lock()
	v, ok := cache[key]
	m.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	m.mu.Lock()
	cache[key] = v
	m.mu.Unlock()
	return v, nil
}
