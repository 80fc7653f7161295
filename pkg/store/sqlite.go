package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
)

// Schema is the table layout SQLiteStore reads. Equipment and tags hold JSON
// arrays as text; a value that does not parse is dropped for that row.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	kind      TEXT,
	parent_id TEXT
);
CREATE TABLE IF NOT EXISTS exercises (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	type      TEXT,
	media_url TEXT,
	equipment TEXT,
	tags      TEXT
);
CREATE TABLE IF NOT EXISTS exercise_links (
	node_id     TEXT NOT NULL REFERENCES nodes(id),
	exercise_id TEXT NOT NULL REFERENCES exercises(id),
	role        TEXT NOT NULL DEFAULT 'primary',
	PRIMARY KEY (node_id, exercise_id, role)
);
`

// SQLiteStore reads snapshots from a SQLite database opened read-only.
type SQLiteStore struct {
	db   *sql.DB
	path string
	cfg  config
}

// OpenSQLite opens the database at path in read-only mode.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "open %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "open %s", path)
	}
	return &SQLiteStore{db: db, path: path, cfg: newConfig(opts)}, nil
}

// Snapshot reads all three tables inside one read-only transaction.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*catalog.Catalog, error) {
	return load(ctx, BackendSQLite, s.cfg, s.read)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) read(ctx context.Context) (doc graph.Catalog, err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return doc, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "begin snapshot on %s", s.path)
	}
	defer func() { _ = tx.Rollback() }()

	if doc.Exercises, err = readExercises(ctx, tx); err != nil {
		return doc, err
	}
	if doc.Nodes, err = readNodes(ctx, tx); err != nil {
		return doc, err
	}
	if doc.Links, err = readLinks(ctx, tx); err != nil {
		return doc, err
	}
	return doc, nil
}

func readExercises(ctx context.Context, tx *sql.Tx) ([]graph.Exercise, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, type, media_url, equipment, tags FROM exercises ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "query exercises")
	}
	defer rows.Close()

	var out []graph.Exercise
	for rows.Next() {
		var e graph.Exercise
		var typ, mediaURL, equipment, tags sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &typ, &mediaURL, &equipment, &tags); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "scan exercise")
		}
		e.Type = typ.String
		e.MediaURL = mediaURL.String
		// Raw JSON text; graph.ToCatalog parses it.
		if equipment.Valid {
			e.Equipment = equipment.String
		}
		if tags.Valid {
			e.Tags = tags.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read exercises")
	}
	return out, nil
}

func readNodes(ctx context.Context, tx *sql.Tx) ([]graph.Node, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, kind, parent_id FROM nodes ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "query nodes")
	}
	defer rows.Close()

	var out []graph.Node
	for rows.Next() {
		var n graph.Node
		var kind, parentID sql.NullString
		if err := rows.Scan(&n.ID, &n.Name, &kind, &parentID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "scan node")
		}
		n.Kind = kind.String
		n.ParentID = parentID.String
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read nodes")
	}
	return out, nil
}

func readLinks(ctx context.Context, tx *sql.Tx) ([]graph.Link, error) {
	rows, err := tx.QueryContext(ctx, `SELECT node_id, exercise_id, role FROM exercise_links ORDER BY node_id, exercise_id, role`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "query exercise_links")
	}
	defer rows.Close()

	var out []graph.Link
	for rows.Next() {
		var l graph.Link
		var role sql.NullString
		if err := rows.Scan(&l.NodeID, &l.ExerciseID, &role); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "scan exercise link")
		}
		l.Role = role.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read exercise_links")
	}
	return out, nil
}
