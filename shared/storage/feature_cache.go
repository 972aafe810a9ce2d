package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scene-validator/internal/models"
)

// FeatureCache persists extracted frame features keyed by content digest so
// unchanged frames skip repeat Vision API calls across runs.
type FeatureCache struct {
	filePath string
	entries  map[string]cachedFeatures
	mu       sync.RWMutex
	maxAge   time.Duration
}

type cachedFeatures struct {
	Digest      string                `json:"digest"`
	Features    *models.FrameFeatures `json:"features"`
	ExtractedAt time.Time             `json:"extracted_at"`
}

// NewFeatureCache creates a cache backed by a JSON file in dataDir. Entries
// older than maxAge are dropped on load.
func NewFeatureCache(dataDir string, maxAge time.Duration) (*FeatureCache, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &FeatureCache{
		filePath: filepath.Join(dataDir, "frame_features.json"),
		entries:  make(map[string]cachedFeatures),
		maxAge:   maxAge,
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load feature cache: %w", err)
	}
	cache.cleanup()

	return cache, nil
}

// Lookup returns the cached features for a content digest, if still fresh.
func (c *FeatureCache) Lookup(digest string) (*models.FrameFeatures, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[digest]
	if !exists || time.Since(entry.ExtractedAt) >= c.maxAge {
		return nil, false
	}
	return entry.Features, true
}

// Store records freshly extracted features under a content digest.
func (c *FeatureCache) Store(digest string, features *models.FrameFeatures) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[digest] = cachedFeatures{
		Digest:      digest,
		Features:    features,
		ExtractedAt: time.Now(),
	}
	return c.save()
}

// Len returns the number of cached frames.
func (c *FeatureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *FeatureCache) cleanup() {
	cutoff := time.Now().Add(-c.maxAge)
	for digest, entry := range c.entries {
		if entry.ExtractedAt.Before(cutoff) {
			delete(c.entries, digest)
		}
	}
}

func (c *FeatureCache) load() error {
	file, err := os.Open(c.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, start with empty cache
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var entries []cachedFeatures
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache data: %w", err)
	}

	for _, entry := range entries {
		c.entries[entry.Digest] = entry
	}
	return nil
}

func (c *FeatureCache) save() error {
	entries := make([]cachedFeatures, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	file, err := os.Create(c.filePath)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// DigestFile returns the hex SHA-256 digest of a file's content.
func DigestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
