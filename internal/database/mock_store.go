// file: internal/database/mock_store.go
// version: 2.0.0
// guid: f10398ff-a9dc-4101-9602-7fa06a5228d3

package database

// MockStore is a Store for tests. Each method calls its Func field when set
// and otherwise falls through to an in-memory store, so a test only stubs
// the calls it wants to fail.
type MockStore struct {
	GetFunc    func(key string) ([]byte, bool, error)
	SetFunc    func(key string, value []byte) error
	RemoveFunc func(key string) error
	KeysFunc   func() ([]string, error)
	CloseFunc  func() error

	SetCalls []string

	mem *MemoryStore
}

// NewMockStore creates a MockStore with an empty backing map.
func NewMockStore() *MockStore {
	return &MockStore{mem: NewMemoryStore()}
}

func (m *MockStore) backing() *MemoryStore {
	if m.mem == nil {
		m.mem = NewMemoryStore()
	}
	return m.mem
}

func (m *MockStore) Get(key string) ([]byte, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(key)
	}
	return m.backing().Get(key)
}

func (m *MockStore) Set(key string, value []byte) error {
	m.SetCalls = append(m.SetCalls, key)
	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	return m.backing().Set(key, value)
}

func (m *MockStore) Remove(key string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(key)
	}
	return m.backing().Remove(key)
}

func (m *MockStore) Keys() ([]string, error) {
	if m.KeysFunc != nil {
		return m.KeysFunc()
	}
	return m.backing().Keys()
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
