package rejoin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// configRecord is the on-disk shape of one account's rejoin config.
// Durations are stored as whole seconds to keep the file hand-editable.
type configRecord struct {
	PlaceID       int64  `json:"place_id"`
	PrivateServer string `json:"private_server,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	CheckInterval int    `json:"check_interval,omitempty"`
	MaxRetries    int    `json:"max_retries,omitempty"`
	CheckPresence bool   `json:"check_presence"`
}

// LoadConfigs reads the per-account rejoin configs. A missing file yields an
// empty map.
func LoadConfigs(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("failed to read rejoin configs: %w", err)
	}

	var records map[string]configRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse rejoin configs: %w", err)
	}

	configs := make(map[string]Config, len(records))
	for account, rec := range records {
		configs[account] = Config{
			PlaceID:       rec.PlaceID,
			PrivateServer: rec.PrivateServer,
			JobID:         rec.JobID,
			PollInterval:  time.Duration(rec.CheckInterval) * time.Second,
			MaxRetries:    rec.MaxRetries,
			VerifyPlace:   rec.CheckPresence,
		}
	}

	return configs, nil
}

// SaveConfigs writes the per-account rejoin configs atomically.
func SaveConfigs(path string, configs map[string]Config) error {
	records := make(map[string]configRecord, len(configs))
	for account, cfg := range configs {
		records[account] = configRecord{
			PlaceID:       cfg.PlaceID,
			PrivateServer: cfg.PrivateServer,
			JobID:         cfg.JobID,
			CheckInterval: int(cfg.PollInterval / time.Second),
			MaxRetries:    cfg.MaxRetries,
			CheckPresence: cfg.VerifyPlace,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rejoin configs: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
