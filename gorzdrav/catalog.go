package gorzdrav

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iabalyuk/gorzdravbot/logging"
)

// DistrictLister is the subset of the client the catalog refreshes from.
type DistrictLister interface {
	ListDistricts(ctx context.Context) ([]District, error)
}

// DistrictCatalog keeps the district list in memory and in a JSON file so the
// selection flow does not hit the API for data that rarely changes.
type DistrictCatalog struct {
	source   DistrictLister
	filePath string
	maxAge   time.Duration
	logger   *logging.Logger

	mu        sync.RWMutex
	districts []District
	updatedAt time.Time
}

// NewDistrictCatalog creates a catalog backed by filePath. An empty path keeps
// the catalog in memory only.
func NewDistrictCatalog(source DistrictLister, filePath string, maxAge time.Duration, logger *logging.Logger) *DistrictCatalog {
	if logger == nil {
		logger = logging.Default()
	}
	if maxAge <= 0 {
		maxAge = 6 * time.Hour
	}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." && dir != "/" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Warn("failed to create catalog directory", "dir", dir, "error", err)
			}
		}
	}
	return &DistrictCatalog{source: source, filePath: filePath, maxAge: maxAge, logger: logger}
}

// Districts returns the cached list, refreshing it from the file or the API
// when it is older than maxAge.
func (c *DistrictCatalog) Districts(ctx context.Context) ([]District, error) {
	c.mu.RLock()
	if c.districts != nil && time.Since(c.updatedAt) <= c.maxAge {
		out := append([]District(nil), c.districts...)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	if districts, modTime, err := c.load(); err == nil && time.Since(modTime) <= c.maxAge {
		c.store(districts, modTime)
		return districts, nil
	}

	districts, err := c.source.ListDistricts(ctx)
	if err != nil {
		return nil, err
	}
	c.store(districts, time.Now())
	if err := c.save(districts); err != nil {
		c.logger.Warn("failed to save districts cache", "path", c.filePath, "error", err)
	}
	return districts, nil
}

func (c *DistrictCatalog) store(districts []District, at time.Time) {
	c.mu.Lock()
	c.districts = append([]District(nil), districts...)
	c.updatedAt = at
	c.mu.Unlock()
}

func (c *DistrictCatalog) save(districts []District) error {
	if c.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(districts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal districts: %w", err)
	}
	if err := os.WriteFile(c.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write districts file: %w", err)
	}
	c.logger.Debug("saved districts cache", "count", len(districts), "path", c.filePath)
	return nil
}

func (c *DistrictCatalog) load() ([]District, time.Time, error) {
	if c.filePath == "" {
		return nil, time.Time{}, os.ErrNotExist
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read districts file: %w", err)
	}
	var districts []District
	if err := json.Unmarshal(data, &districts); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal districts file: %w", err)
	}
	return districts, info.ModTime(), nil
}
