package deps

import (
	"time"

	"github.com/localpub/localpub/internal/logger"
	"github.com/localpub/localpub/internal/table"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	AllowedCIDRS []string // IPs allowed to reach the ops endpoints (empty = all)

	Table         *table.Table // read-only snapshots of the publication table
	Ready         func() bool  // true once the startup reconciliation finished
	ResyncTrigger func()       // queues a reconciliation sweep
}
