package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"videosplit/internal/app/encoder"
)

// MockEncoder is a scriptable encoder.Encoder. Segment writes real files into
// outputDir so orchestrator code that stats and uploads them keeps working.
type MockEncoder struct {
	ProbeInfo    *encoder.MediaInfo
	ProbeErr     error
	SegmentCount int
	SegmentErr   error

	mu           sync.Mutex
	ProbeCalls   []string
	SegmentCalls int
	LastCrop     *encoder.CropRect
}

func (m *MockEncoder) Probe(ctx context.Context, path string) (*encoder.MediaInfo, error) {
	m.mu.Lock()
	m.ProbeCalls = append(m.ProbeCalls, path)
	m.mu.Unlock()

	if m.ProbeErr != nil {
		return nil, m.ProbeErr
	}
	if m.ProbeInfo != nil {
		info := *m.ProbeInfo
		return &info, nil
	}
	return &encoder.MediaInfo{DurationSeconds: 60, Width: 1920, Height: 1080}, nil
}

func (m *MockEncoder) Segment(ctx context.Context, path, outputDir string, segmentDuration int, crop *encoder.CropRect) ([]string, error) {
	m.mu.Lock()
	m.SegmentCalls++
	m.LastCrop = crop
	m.mu.Unlock()

	if m.SegmentErr != nil {
		return nil, m.SegmentErr
	}

	count := m.SegmentCount
	if count == 0 {
		count = 2
	}
	paths := make([]string, count)
	for i := 0; i < count; i++ {
		p := filepath.Join(outputDir, fmt.Sprintf(encoder.SegmentFilePattern, i))
		if err := os.WriteFile(p, []byte("segment"), 0o644); err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}

// MockObjectStore is an in-memory storage.ObjectStore.
type MockObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr    error
	ExistsErr error
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{objects: make(map[string][]byte)}
}

func (s *MockObjectStore) Put(ctx context.Context, key, localPath string) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *MockObjectStore) Get(ctx context.Context, key, localPath string) error {
	data, err := s.GetBytes(ctx, key)
	if err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *MockObjectStore) GetBytes(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (s *MockObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MockObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.ExistsErr != nil {
		return false, s.ExistsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MockObjectStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MockObjectStore) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (s *MockObjectStore) SignedPutURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://storage.test/put/" + key, nil
}

// SeedObject plants an object directly, for tests that skip the upload step.
func (s *MockObjectStore) SeedObject(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// ObjectCount returns how many objects are stored.
func (s *MockObjectStore) ObjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// MemoryCounterStore is an in-memory ratelimit.CounterStore.
type MemoryCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64

	Err error
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counts: make(map[string]int64)}
}

func (s *MemoryCounterStore) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}
