package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/flashbot/sim"
)

const dayLayout = "2006-01-02"

// SnapshotStore writes one JSON file per calendar day holding the whole
// trade log. Every save replaces the file through a temp file and rename,
// so readers never see a partial snapshot.
type SnapshotStore struct {
	dir string
}

func NewSnapshotStore(dir string) *SnapshotStore {
	if dir == "" {
		dir = "."
	}
	return &SnapshotStore{dir: dir}
}

// Path returns the snapshot file for day, using day's own calendar date.
func (s *SnapshotStore) Path(day time.Time) string {
	return filepath.Join(s.dir, "trades_"+day.Format(dayLayout)+".json")
}

func (s *SnapshotStore) Save(day time.Time, trades []sim.Trade) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if trades == nil {
		trades = []sim.Trade{}
	}

	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	path := s.Path(day)
	tmp, err := os.CreateTemp(s.dir, ".trades-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}

	slog.Debug("snapshot saved", slog.String("path", path), slog.Int("trades", len(trades)))
	return nil
}

// Load reads the snapshot for day. A missing file yields no trades.
func (s *SnapshotStore) Load(day time.Time) ([]sim.Trade, error) {
	path := s.Path(day)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var trades []sim.Trade
	if err := json.Unmarshal(data, &trades); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", path, err)
	}
	return trades, nil
}
