package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const iterationsSchema = `
CREATE TABLE IF NOT EXISTS search_iterations (
    run_id         uuid        NOT NULL,
    iteration      integer     NOT NULL,
    candidate_cost bigint      NOT NULL,
    candidate_seen integer     NOT NULL,
    incumbent_cost bigint      NOT NULL,
    best_cost      bigint      NOT NULL,
    evaluations    integer     NOT NULL,
    infeasible     integer     NOT NULL,
    elapsed        double precision NOT NULL,
    temperature    double precision,
    PRIMARY KEY (run_id, iteration)
)`

const runsSchema = `
CREATE TABLE IF NOT EXISTS search_runs (
    id        uuid        PRIMARY KEY,
    instance  text        NOT NULL,
    strategy  text        NOT NULL,
    started   timestamptz NOT NULL
)`

// Postgres persists iteration traces through the pgx stdlib driver.
// Records are buffered and flushed in one transaction per flushEvery
// rows, so the search loop never blocks on a round trip.
type Postgres struct {
	db    *sql.DB
	runID uuid.UUID
	buf   []stampedRecord
	err   error
}

// stampedRecord pins a record to the run that produced it, so rows
// still buffered when the next run starts land under the right id.
type stampedRecord struct {
	run uuid.UUID
	rec IterationRecord
}

const flushEvery = 512

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	for _, schema := range []string{runsSchema, iterationsSchema} {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("telemetry schema: %w", err)
		}
	}
	return &Postgres{db: db}, nil
}

// StartRun registers a run row and directs subsequent records to it.
func (p *Postgres) StartRun(ctx context.Context, instance, strategy string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO search_runs (id, instance, strategy, started) VALUES ($1,$2,$3,$4)`,
		id, instance, strategy, time.Now())
	if err != nil {
		return uuid.Nil, err
	}
	p.runID = id
	return id, nil
}

func (p *Postgres) Record(rec IterationRecord) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, stampedRecord{run: p.runID, rec: rec})
	if len(p.buf) >= flushEvery {
		p.err = p.flush(context.Background())
	}
}

// Flush drains the buffer. Call it when a run finishes so its rows are
// committed before the next run redirects the sink.
func (p *Postgres) Flush() error {
	if p.err == nil {
		p.err = p.flush(context.Background())
	}
	return p.err
}

func (p *Postgres) flush(ctx context.Context) error {
	if len(p.buf) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO search_iterations (run_id, iteration, candidate_cost, candidate_seen,
		 incumbent_cost, best_cost, evaluations, infeasible, elapsed, temperature)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, stamped := range p.buf {
		rec := stamped.rec
		var temperature any
		if rec.Temperature != nil {
			temperature = *rec.Temperature
		}
		if _, err := stmt.ExecContext(ctx, stamped.run, rec.Iteration,
			int64(rec.CandidateCost), rec.CandidateSeen,
			int64(rec.IncumbentCost), int64(rec.BestCost),
			rec.Evaluations, rec.Infeasible, rec.Time, temperature); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.buf = p.buf[:0]
	return nil
}

// Close flushes buffered rows and releases the connection pool.
func (p *Postgres) Close() error {
	if p.err == nil {
		p.err = p.flush(context.Background())
	}
	if cerr := p.db.Close(); p.err == nil {
		p.err = cerr
	}
	return p.err
}
