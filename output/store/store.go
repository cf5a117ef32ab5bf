package store

import (
	"bytes"
	"embed"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/notargets/gofsi/output"
	_ "github.com/notargets/gofsi/output/store/migrations"
)

//go:embed migrations/*.sql migrations/*.go
var embedMigrations embed.FS

// Run is one simulation recorded in the store
type Run struct {
	ID        uuid.UUID `db:"id"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	NumDofs   int       `db:"num_dofs"`
	Params    string    `db:"params"`
}

type dbSnapshot struct {
	RunID        uuid.UUID `db:"run_id"`
	Step         int       `db:"step"`
	Time         float64   `db:"time"`
	Iterations   int       `db:"iterations"`
	ResidualNorm float64   `db:"residual_norm"`
	Data         []byte    `db:"data"`
}

/*
Store is an output.Writer that records trajectories in SQLite. Each run gets
a uuid, snapshot vectors are stored as brotli compressed little endian
float64 blobs.
*/
type Store struct {
	dbConn   *sqlx.DB
	run      *Run
	started  bool
	lastTime float64
}

/*
trajectoryPragmas configure each connection. One goroutine writes while a run
is integrating, so WAL lets a viewer read the file mid run and NORMAL sync
only risks the last snapshots on power loss. Foreign keys tie snapshots to
their run.
*/
const trajectoryPragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Open creates or reopens a trajectory file and brings its schema up to date
func Open(name string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", "file:"+name+"?"+trajectoryPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening trajectory file %s: %w", name, err)
	}
	// A single connection serializes the writer and keeps the pragmas in force
	db.SetMaxOpenConns(1)

	var fk int
	if err = db.Get(&fk, "PRAGMA foreign_keys"); err != nil {
		db.Close()
		return nil, fmt.Errorf("reading pragmas of %s: %w", name, err)
	}
	if fk != 1 {
		db.Close()
		return nil, fmt.Errorf("trajectory file %s: foreign keys not enabled", name)
	}
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err = goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("trajectory schema dialect: %w", err)
	}
	if err = goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating trajectory schema in %s: %w", name, err)
	}
	return &Store{dbConn: db}, nil
}

func (s *Store) Close() error {
	if err := s.dbConn.Close(); err != nil {
		return fmt.Errorf("closing trajectory file: %w", err)
	}
	return nil
}

// BeginRun registers a new run, following snapshots are appended to it
func (s *Store) BeginRun(title string, numDofs int, params string) (run *Run, err error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("creating run id: %w", err)
	}
	run = &Run{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now().UTC(),
		NumDofs:   numDofs,
		Params:    params,
	}
	query := `INSERT INTO runs (id, title, created_at, num_dofs, params)
	          VALUES (:id, :title, :created_at, :num_dofs, :params)`
	if _, err = s.dbConn.NamedExec(query, run); err != nil {
		return nil, fmt.Errorf("inserting run %s: %w", id, err)
	}
	s.run, s.started = run, false
	return
}

func (s *Store) Append(snap output.Snapshot) error {
	if s.run == nil {
		return fmt.Errorf("no run started")
	}
	if len(snap.X) != s.run.NumDofs {
		return fmt.Errorf("snapshot has %d entries, run has %d dofs", len(snap.X), s.run.NumDofs)
	}
	if s.started && !(snap.Time > s.lastTime) {
		return fmt.Errorf("%w: t = %g after t = %g", output.ErrNonMonotonic, snap.Time, s.lastTime)
	}
	data, err := encodeVector(snap.X)
	if err != nil {
		return err
	}
	row := &dbSnapshot{
		RunID:        s.run.ID,
		Step:         snap.Step,
		Time:         snap.Time,
		Iterations:   snap.Iterations,
		ResidualNorm: snap.ResidualNorm,
		Data:         data,
	}
	query := `INSERT INTO snapshots (run_id, step, time, iterations, residual_norm, data)
	          VALUES (:run_id, :step, :time, :iterations, :residual_norm, :data)`
	if _, err = s.dbConn.NamedExec(query, row); err != nil {
		return fmt.Errorf("inserting snapshot at t = %g: %w", snap.Time, err)
	}
	s.started, s.lastTime = true, snap.Time
	return nil
}

func (s *Store) Runs() (runs []Run, err error) {
	if err = s.dbConn.Select(&runs, `SELECT * FROM runs ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("fetching runs: %w", err)
	}
	return
}

// Snapshots loads the trajectory of a run in time order
func (s *Store) Snapshots(runID uuid.UUID) (snaps []output.Snapshot, err error) {
	var rows []dbSnapshot
	query := `SELECT * FROM snapshots WHERE run_id = ? ORDER BY time`
	if err = s.dbConn.Select(&rows, query, runID); err != nil {
		return nil, fmt.Errorf("fetching snapshots of run %s: %w", runID, err)
	}
	snaps = make([]output.Snapshot, len(rows))
	for i, r := range rows {
		snaps[i] = output.Snapshot{
			Step:         r.Step,
			Time:         r.Time,
			Iterations:   r.Iterations,
			ResidualNorm: r.ResidualNorm,
		}
		if snaps[i].X, err = decodeVector(r.Data); err != nil {
			return nil, fmt.Errorf("decoding snapshot %d of run %s: %w", r.Step, runID, err)
		}
	}
	return
}

func encodeVector(x []float64) ([]byte, error) {
	raw := make([]byte, 8*len(x))
	for i, v := range x {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := bw.Write(raw); err != nil {
		return nil, fmt.Errorf("compressing vector: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("compressing vector: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeVector(data []byte) (x []float64, err error) {
	raw, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decompressing vector: %w", err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes is not a whole number of float64", len(raw))
	}
	x = make([]float64, len(raw)/8)
	for i := range x {
		x[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return
}
