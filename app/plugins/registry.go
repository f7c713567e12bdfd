package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/meshcast/config"
	dispatchlog "github.com/kilianp07/meshcast/core/dispatch/logging"
)

// LogStoreFactory builds a dispatch log store from its configuration.
type LogStoreFactory func(cfg config.DispatchLogConfig) (dispatchlog.LogStore, error)

var LogStores = map[string]LogStoreFactory{}

func RegisterLogStore(name string, f LogStoreFactory) { LogStores[name] = f }

// OpenLogStore opens the backend named by cfg.Backend.
func OpenLogStore(cfg config.DispatchLogConfig) (dispatchlog.LogStore, error) {
	f, ok := LogStores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("dispatch log: unknown backend %q (known: %v)", cfg.Backend, backends())
	}
	return f(cfg)
}

func backends() []string {
	names := make([]string, 0, len(LogStores))
	for n := range LogStores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
