package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/okian/arena/internal/domain/types"
	"github.com/okian/arena/pkg/jsonfile"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// GameLogStore archives finished games.
type GameLogStore interface {
	Save(ctx context.Context, log *types.GameLog) error
	// Get returns ErrGameNotFound for unknown ids.
	Get(ctx context.Context, gameID string) (*types.GameLog, error)
	// List returns up to limit summaries, most recently written first.
	List(ctx context.Context, limit int) ([]types.GameSummary, error)
}

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const logExt = ".json"

// FileGameLogs stores one JSON document per game in a directory.
type FileGameLogs struct {
	dir    string
	logger logger.Logger
}

// NewFileGameLogs creates dir if needed.
func NewFileGameLogs(dir string) (*FileGameLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create game log dir: %w", err)
	}
	return &FileGameLogs{dir: dir, logger: logger.Named("gamelogs")}, nil
}

func (s *FileGameLogs) path(id string) string {
	return filepath.Join(s.dir, id+logExt)
}

// Save writes log to {dir}/{game_id}.json. Logs are write-once.
func (s *FileGameLogs) Save(ctx context.Context, log *types.GameLog) error {
	if log == nil || !gameIDPattern.MatchString(log.GameID) {
		return ErrInvalidGame
	}
	if err := jsonfile.Create(s.path(log.GameID), log); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrGameExists, log.GameID)
		}
		metrics.RecordPersistenceError("game_logs")
		return err
	}
	s.logger.Debug(ctx, "Saved game log", logger.String("game_id", log.GameID))
	return nil
}

func (s *FileGameLogs) Get(_ context.Context, gameID string) (*types.GameLog, error) {
	if !gameIDPattern.MatchString(gameID) {
		return nil, ErrGameNotFound
	}
	var log types.GameLog
	found, err := jsonfile.Read(s.path(gameID), &log)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrGameNotFound
	}
	return &log, nil
}

func (s *FileGameLogs) List(ctx context.Context, limit int) ([]types.GameSummary, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []types.GameSummary{}, nil
		}
		return nil, fmt.Errorf("list game logs: %w", err)
	}

	type file struct {
		id      string
		modTime time.Time
	}
	files := make([]file, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, logExt) || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{id: strings.TrimSuffix(name, logExt), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].id > files[j].id
	})

	out := make([]types.GameSummary, 0, min(limit, len(files)))
	for _, f := range files {
		if len(out) >= limit {
			break
		}
		log, err := s.Get(ctx, f.id)
		if err != nil {
			s.logger.Warn(ctx, "Skipping unreadable game log",
				logger.String("game_id", f.id), logger.Error(err))
			continue
		}
		out = append(out, log.Summary())
	}
	return out, nil
}
