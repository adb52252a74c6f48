package managers

import (
	"context"
	"fmt"

	"github.com/chrissnell/gaugedata/internal/history"
	"github.com/chrissnell/gaugedata/internal/history/sqlite"
	"github.com/chrissnell/gaugedata/internal/history/timescaledb"
	"github.com/chrissnell/gaugedata/pkg/config"
)

// NewHistoryStore opens the configured history backend. Exactly one is
// configured; the configuration is validated when it is loaded.
func NewHistoryStore(ctx context.Context, h config.HistoryData) (history.Store, error) {
	switch {
	case h.SQLitePath != "":
		s, err := sqlite.New(ctx, h.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("could not open SQLite history: %w", err)
		}
		return s, nil
	case h.TimescaleDB != nil:
		s, err := timescaledb.New(ctx, h.TimescaleDB.ConnectionString, h.TimescaleDB.StationName)
		if err != nil {
			return nil, fmt.Errorf("could not open TimescaleDB history: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("no history backend configured")
	}
}
