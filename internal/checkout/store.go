package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CartStore persists the cart between sessions.
type CartStore interface {
	// Get returns the stored cart, or an empty cart when nothing is stored.
	Get(ctx context.Context) (*Cart, error)

	// Set replaces the stored cart.
	Set(ctx context.Context, cart *Cart) error

	// Clear removes the stored cart.
	Clear(ctx context.Context) error
}

// MemoryCartStore keeps the cart in process memory.
type MemoryCartStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryCartStore creates an empty in-memory store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{}
}

func (s *MemoryCartStore) Get(ctx context.Context) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeCart(s.data)
}

func (s *MemoryCartStore) Set(ctx context.Context, cart *Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryCartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

// FileCartStore keeps the cart as a JSON document on disk so it survives restarts.
type FileCartStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCartStore creates a store backed by the file at path.
func NewFileCartStore(path string) *FileCartStore {
	return &FileCartStore{path: path}
}

func (s *FileCartStore) Get(ctx context.Context) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return decodeCart(data)
}

// Set writes to a temporary file and renames it over the old cart.
func (s *FileCartStore) Set(ctx context.Context, cart *Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cart-*.json")
	if err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

func (s *FileCartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func decodeCart(data []byte) (*Cart, error) {
	cart := &Cart{}
	if len(data) == 0 {
		return cart, nil
	}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return cart, nil
}
