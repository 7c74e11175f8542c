package storage

import (
	"fmt"
	"io"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/tomlfile"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverTOML   = "toml"
)

// Config selects and locates the durable backend.
type Config struct {
	Driver string
	Path   string
}

// Backend is a durable store that also reports health and owns resources.
type Backend interface {
	ports.KeyValueStore
	ports.HealthChecker
	io.Closer
}

// Open opens the backend named by cfg.Driver.
func Open(cfg Config) (Backend, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil
	case DriverTOML:
		s, err := tomlfile.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening toml store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
