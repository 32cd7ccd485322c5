package imports

import (
	"time"

	"github.com/knowns/knowns/internal/history"
	"github.com/knowns/knowns/internal/logging"
	"github.com/knowns/knowns/internal/paths"
)

// recordRun journals one sync outcome. Best-effort: journal failures are
// logged, never surfaced to the sync they describe.
func recordRun(projectRoot string, started time.Time, res ImportResult) {
	journal, err := history.Open(paths.HistoryDBPath(projectRoot))
	if err != nil {
		logging.Warn("failed to open sync history", logging.Err(err))
		return
	}
	defer func() { _ = journal.Close() }()

	adds, updates, skips := res.Counts()
	run := history.Run{
		ImportName: res.Name,
		Source:     res.Source,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Success:    res.Success,
		Added:      adds,
		Updated:    updates,
		Skipped:    skips,
		Error:      res.Error,
	}
	if err := journal.Record(run); err != nil {
		logging.Warn("failed to record sync run", logging.Import(res.Name), logging.Err(err))
	}
}
