package plugins

import (
	"github.com/kilianp07/meshcast/config"
	dispatchlog "github.com/kilianp07/meshcast/core/dispatch/logging"
)

func init() {
	RegisterLogStore("jsonl", openJSONL)
	RegisterLogStore("sqlite", func(lc config.DispatchLogConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewSQLiteStore(lc.Path)
	})
	RegisterLogStore("none", func(config.DispatchLogConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NopStore{}, nil
	})
}

// openJSONL rotates the file through lumberjack once a size cap is set.
func openJSONL(lc config.DispatchLogConfig) (dispatchlog.LogStore, error) {
	if lc.MaxSizeMB <= 0 {
		return dispatchlog.NewJSONLStore(lc.Path)
	}
	return dispatchlog.NewRotatingJSONLStore(lc.Path, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays)
}
