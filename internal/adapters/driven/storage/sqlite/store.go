package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sightline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// Store is a SQLite-based storage that provides access to the path and
// location stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sightline/data/navigation.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sightline", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "navigation.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PathStore returns a PathStore interface backed by this store.
func (s *Store) PathStore() driven.PathStore {
	return &pathStore{store: s}
}

// LocationStore returns a LocationStore interface backed by this store.
func (s *Store) LocationStore() driven.LocationStore {
	return &locationStore{store: s}
}

// migrate runs all pending migrations. Each migration and its version
// row are applied in one transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// schemaVersion returns the highest applied migration.
func (s *Store) schemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// ==================== Path Store ====================

// pathStore implements driven.PathStore.
type pathStore struct {
	store *Store
}

var _ driven.PathStore = (*pathStore)(nil)

// Save stores a path and its waypoints in one transaction.
func (s *pathStore) Save(ctx context.Context, path *domain.NavigationPath) error {
	if path == nil || path.ID == "" {
		return fmt.Errorf("%w: path id is required", domain.ErrInvalidInput)
	}
	createdAt := path.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO paths (id, start_node_id, end_node_id, estimated_distance, estimated_steps, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, path.ID, path.StartNodeID, path.EndNodeID, path.EstimatedDistance,
		path.EstimatedSteps, path.Dimensions, createdAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving path: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO waypoints (path_id, sequence_number, embedding, heading, heading_change,
			turn_type, is_decision_point, landmark_description, distance_from_previous)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range path.Waypoints {
		w := &path.Waypoints[i]
		if _, err := stmt.ExecContext(ctx, path.ID, w.SequenceNumber, float32SliceToBytes(w.Embedding),
			w.Heading, w.HeadingChange, string(w.TurnType), w.IsDecisionPoint,
			w.LandmarkDescription, w.DistanceFromPrevious); err != nil {
			return fmt.Errorf("saving waypoint %d: %w", w.SequenceNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves a path with its waypoints in sequence order.
func (s *pathStore) Get(ctx context.Context, id string) (*domain.NavigationPath, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, start_node_id, end_node_id, estimated_distance, estimated_steps, dimensions, created_at
		FROM paths WHERE id = ?
	`, id)
	return s.load(ctx, row)
}

// FindByNodes returns the newest path from start to end.
func (s *pathStore) FindByNodes(ctx context.Context, startNodeID, endNodeID string) (*domain.NavigationPath, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, start_node_id, end_node_id, estimated_distance, estimated_steps, dimensions, created_at
		FROM paths WHERE start_node_id = ? AND end_node_id = ?
		ORDER BY created_at DESC, id ASC
		LIMIT 1
	`, startNodeID, endNodeID)
	return s.load(ctx, row)
}

func (s *pathStore) load(ctx context.Context, row *sql.Row) (*domain.NavigationPath, error) {
	var p domain.NavigationPath
	var createdAt int64
	if err := row.Scan(&p.ID, &p.StartNodeID, &p.EndNodeID, &p.EstimatedDistance,
		&p.EstimatedSteps, &p.Dimensions, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning path: %w", err)
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()

	waypoints, err := s.waypoints(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Waypoints = waypoints
	return &p, nil
}

func (s *pathStore) waypoints(ctx context.Context, pathID string) ([]domain.Waypoint, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT sequence_number, embedding, heading, heading_change, turn_type,
			is_decision_point, landmark_description, distance_from_previous
		FROM waypoints WHERE path_id = ?
		ORDER BY sequence_number
	`, pathID)
	if err != nil {
		return nil, fmt.Errorf("querying waypoints: %w", err)
	}
	defer rows.Close()

	var waypoints []domain.Waypoint //nolint:prealloc // size unknown from query
	for rows.Next() {
		var w domain.Waypoint
		var blob []byte
		var turn string
		if err := rows.Scan(&w.SequenceNumber, &blob, &w.Heading, &w.HeadingChange, &turn,
			&w.IsDecisionPoint, &w.LandmarkDescription, &w.DistanceFromPrevious); err != nil {
			return nil, fmt.Errorf("scanning waypoint: %w", err)
		}
		w.Embedding = bytesToFloat32Slice(blob)
		w.TurnType = domain.TurnType(turn)
		waypoints = append(waypoints, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating waypoints: %w", err)
	}
	return waypoints, nil
}

// List returns summaries of all paths, newest first.
func (s *pathStore) List(ctx context.Context) ([]domain.PathSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT p.id, p.start_node_id, p.end_node_id, p.estimated_distance, p.estimated_steps, p.created_at,
			(SELECT COUNT(*) FROM waypoints w WHERE w.path_id = p.id)
		FROM paths p
		ORDER BY p.created_at DESC, p.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying paths: %w", err)
	}
	defer rows.Close()

	var summaries []domain.PathSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.PathSummary
		var createdAt int64
		if err := rows.Scan(&sum.ID, &sum.StartNodeID, &sum.EndNodeID, &sum.EstimatedDistance,
			&sum.EstimatedSteps, &createdAt, &sum.WaypointCount); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt).UTC()
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating paths: %w", err)
	}
	return summaries, nil
}

// Delete removes a path. Waypoints are removed by cascade.
func (s *pathStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM paths WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting path: %w", err)
	}
	return nil
}

// ==================== Location Store ====================

// locationStore implements driven.LocationStore.
type locationStore struct {
	store *Store
}

var _ driven.LocationStore = (*locationStore)(nil)

// SaveLocation creates or renames a node.
func (s *locationStore) SaveLocation(ctx context.Context, loc domain.Location) error {
	if loc.NodeID == "" {
		return fmt.Errorf("%w: node id is required", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO locations (node_id, name) VALUES (?, ?)
		ON CONFLICT(node_id) DO UPDATE SET name = excluded.name
	`, loc.NodeID, loc.Name)
	if err != nil {
		return fmt.Errorf("saving location: %w", err)
	}
	return nil
}

// AddEmbedding appends a reference view for an existing node.
func (s *locationStore) AddEmbedding(ctx context.Context, nodeID string, embedding []float32) error {
	var exists int
	err := s.store.db.QueryRowContext(ctx, "SELECT 1 FROM locations WHERE node_id = ?", nodeID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking location: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO location_embeddings (node_id, embedding) VALUES (?, ?)",
		nodeID, float32SliceToBytes(embedding))
	if err != nil {
		return fmt.Errorf("saving location embedding: %w", err)
	}
	return nil
}

// ListLocations returns all nodes ordered by ID.
func (s *locationStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT node_id, name FROM locations ORDER BY node_id")
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location //nolint:prealloc // size unknown from query
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.NodeID, &loc.Name); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	return locations, nil
}

// LoadLocationEmbeddings returns every reference view for a node in
// insertion order.
func (s *locationStore) LoadLocationEmbeddings(ctx context.Context, nodeID string) ([]domain.LocationEmbedding, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT embedding FROM location_embeddings WHERE node_id = ? ORDER BY id", nodeID)
	if err != nil {
		return nil, fmt.Errorf("querying location embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.LocationEmbedding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning location embedding: %w", err)
		}
		out = append(out, domain.LocationEmbedding{NodeID: nodeID, Embedding: bytesToFloat32Slice(blob)})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location embeddings: %w", err)
	}
	return out, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return []byte{}
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
