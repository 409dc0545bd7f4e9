package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"transcode-service/internal/logging"
	"transcode-service/internal/mediatypes"
	"transcode-service/internal/metrics"
	"transcode-service/internal/pubsub"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

var logger = logging.For("store")

// Store records which transcoded versions exist per message, so API
// consumers can look up every rendition of a piece of media without
// walking the filesystem.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the version database at dbPath. The parent
// directory must already exist and be writable; use startup.LoadConfig to
// validate that before calling New.
func New(ctx context.Context, dbPath string) (*Store, error) {
	logger.Info("version database path: %s", dbPath)

	// WAL mode so readers never block the writer goroutine; busy_timeout
	// prevents "database is locked" errors under concurrent access.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logger.Info("version database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_versions (
		msg_id TEXT NOT NULL,
		type TEXT NOT NULL,
		conf_name TEXT NOT NULL,
		path TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		notify INTEGER NOT NULL DEFAULT 0,
		original INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (msg_id, type, conf_name)
	);

	CREATE INDEX IF NOT EXISTS idx_media_versions_msg ON media_versions(msg_id);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(initCtx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordVersion upserts one transcoded version. Re-running the same
// (message, kind, profile) replaces the previous row, matching the
// rename-over-existing behavior in the media tree.
func (s *Store) RecordVersion(ctx context.Context, res mediatypes.Result) error {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(opCtx, `
		INSERT OR REPLACE INTO media_versions
			(msg_id, type, conf_name, path, width, height, duration, notify, original)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.MsgID, string(res.Kind), res.ConfName, res.Path,
		res.Width, res.Height, res.Duration, res.Notify, res.Original,
	)
	if err != nil {
		metrics.StoreErrors.Inc()
		return fmt.Errorf("failed to record version %s/%s for message %s: %w",
			res.Kind, res.ConfName, res.MsgID, err)
	}
	metrics.VersionsRecorded.Inc()
	return nil
}

// VersionsFor returns all recorded versions of a message's media, ordered
// by kind then profile name. The slice is empty, not nil-erroring, for an
// unknown message.
func (s *Store) VersionsFor(ctx context.Context, msgID string) ([]mediatypes.Result, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(opCtx, `
		SELECT msg_id, type, conf_name, path, width, height, duration, notify, original
		FROM media_versions
		WHERE msg_id = ?
		ORDER BY type, conf_name`,
		msgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions for message %s: %w", msgID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows: %v", err)
		}
	}()

	versions := []mediatypes.Result{}
	for rows.Next() {
		var v mediatypes.Result
		var kind string
		if err := rows.Scan(&v.MsgID, &kind, &v.ConfName, &v.Path,
			&v.Width, &v.Height, &v.Duration, &v.Notify, &v.Original); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		v.Kind = mediatypes.Kind(kind)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate version rows: %w", err)
	}
	return versions, nil
}

// Listen subscribes the store to transcode.finished events and records
// each result as it arrives. It returns a stop function that unsubscribes
// and waits for the recorder goroutine to exit.
func (s *Store) Listen(bus *pubsub.Bus) func() {
	events, cancel := bus.Subscribe(pubsub.TopicTranscodeFinished, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range events {
			res, ok := ev.Payload.(mediatypes.Result)
			if !ok {
				logger.Warn("unexpected payload %T on %s, dropping", ev.Payload, ev.Topic)
				continue
			}
			if err := s.RecordVersion(context.Background(), res); err != nil {
				logger.Error("%v", err)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	logger.Info("closing version database")
	return s.db.Close()
}
