package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/attention"
)

// ErrNoSnapshot is returned by LoadLatest when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no attention snapshot persisted")

// Store persists attention store snapshots in PostgreSQL so an engine can
// be restored across daemon restarts.
type Store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// Snapshot is one persisted attention store state.
type Snapshot struct {
	ID        string
	Bank      float64
	Values    map[string]attention.AttentionValue
	CreatedAt time.Time
}

// New creates a Store with a pgx connection pool.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return &Store{db: pool, logger: logger}, nil
}

// Migrate reads and executes all .up.sql files from the migrations directory.
func (s *Store) Migrate(ctx context.Context, migrationsDir string) error {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(migrationsDir, f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		s.logger.Info("Migration applied", zap.String("file", f))
	}
	return nil
}

// SaveSnapshot writes the engine's current values and bank balance in one
// transaction and returns the snapshot id.
func (s *Store) SaveSnapshot(ctx context.Context, values map[string]attention.AttentionValue, bank float64) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO attention_snapshots (id, bank) VALUES ($1, $2)`,
		id, bank); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	rows := make([][]interface{}, 0, len(values))
	for nodeID, av := range values {
		rows = append(rows, []interface{}{id, nodeID, av.STI, av.LTI, av.VLTI})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"attention_values"},
			[]string{"snapshot_id", "node_id", "sti", "lti", "vlti"},
			pgx.CopyFromRows(rows)); err != nil {
			return "", fmt.Errorf("copy attention values: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}

	s.logger.Info("attention snapshot saved",
		zap.String("snapshot", id),
		zap.Int("values", len(values)),
		zap.Float64("bank", bank))
	return id, nil
}

// LoadLatest returns the most recent snapshot, or ErrNoSnapshot.
func (s *Store) LoadLatest(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Values: make(map[string]attention.AttentionValue)}

	err := s.db.QueryRow(ctx,
		`SELECT id, bank, created_at FROM attention_snapshots
		 ORDER BY created_at DESC LIMIT 1`).
		Scan(&snap.ID, &snap.Bank, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT node_id, sti, lti, vlti FROM attention_values WHERE snapshot_id = $1`,
		snap.ID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var nodeID string
		var av attention.AttentionValue
		if err := rows.Scan(&nodeID, &av.STI, &av.LTI, &av.VLTI); err != nil {
			return nil, fmt.Errorf("scan attention value: %w", err)
		}
		snap.Values[nodeID] = av
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot values: %w", err)
	}
	return snap, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM attention_snapshots WHERE id NOT IN (
			SELECT id FROM attention_snapshots ORDER BY created_at DESC LIMIT $1
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.db.Close()
}
