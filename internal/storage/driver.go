package storage

import (
	"fmt"
	"log/slog"

	"github.com/your-org/icg/internal/config"
	"github.com/your-org/icg/internal/identity"
)

// Open builds the Store named by cfg.Storage.Driver. The returned close
// function is a no-op for the filesystem driver.
func Open(cfg *config.Config, extractor identity.Extractor, logger *slog.Logger) (Store, func(), error) {
	switch cfg.Storage.Driver {
	case "filesystem":
		s, err := NewFilesystemStore(cfg.Storage.Root, cfg.Storage.ThumbnailSize, extractor, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "postgres":
		s, err := NewPostgresStore(cfg.Database, cfg.Storage.Root, cfg.Storage.ThumbnailSize, extractor, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
