package artifacts

import (
	"github.com/agenthands/profitgraph/internal/config"
	"github.com/agenthands/profitgraph/internal/logger"
)

// Store bundles every on-disk artifact of the pipeline.
type Store struct {
	Dir       string
	History   *Ledger
	Pending   *Ledger
	Debug     *DebugLog
	Telemetry *Telemetry
	Briefs    *Briefs
}

func NewStore(cfg config.StorageConfig, log *logger.Logger) *Store {
	return &Store{
		Dir:       cfg.Dir,
		History:   NewLedger(cfg.HistoryFile()),
		Pending:   NewLedger(cfg.PendingFile()),
		Debug:     NewDebugLog(cfg.LogsDir),
		Telemetry: NewTelemetry(cfg.TelemetryFile(), log),
		Briefs:    NewBriefs(cfg.Dir),
	}
}
