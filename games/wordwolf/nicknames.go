package wordwolf

import (
	"slices"
	"sync"
)

// NicknameStorageKey is the local storage key the last player list is kept under.
const NicknameStorageKey = "wordwolf_nicknames"

// NicknameStore remembers the nicknames of the most recently started game so
// the next setup form can be pre-filled.
type NicknameStore interface {
	Load() ([]string, error)
	Save(nicknames []string) error
}

// MemoryNicknames is a NicknameStore held in memory.
type MemoryNicknames struct {
	mu    sync.Mutex
	names []string
}

func (m *MemoryNicknames) Load() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.names), nil
}

func (m *MemoryNicknames) Save(nicknames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = slices.Clone(nicknames)
	return nil
}
