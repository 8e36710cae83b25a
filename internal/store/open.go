// internal/store/open.go
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Open picks a backend from the URL scheme. An empty URL gives a MemoryStore.
func Open(ctx context.Context, url string, logger *logrus.Logger) (Store, error) {
	switch {
	case url == "":
		logger.Info("no store configured, keeping rooms in memory")
		return NewMemoryStore(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		s, err := ConnectRedis(ctx, url, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis room store")
		return s, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		s, err := ConnectPostgres(ctx, url, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres room store")
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store url scheme: %q", url)
	}
}
