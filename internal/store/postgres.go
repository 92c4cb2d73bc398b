package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/veridoc/veridoc/internal/model"
)

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks"`

	ID         int64    `bun:"id,pk,autoincrement"`
	SourcePath string   `bun:"source_path,notnull"`
	Size       int64    `bun:"size,notnull"`
	Text       string   `bun:"text,notnull"`
	Statements []string `bun:"statements,type:jsonb,nullzero"`
	Score      *float64 `bun:"score"`
}

// PostgresStore is the bun-backed chunk store. Each corpus area maps to its
// own table (unverified_chunks / verified_chunks).
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore connects to Postgres and wraps the connection with bun
func NewPostgresStore(dsn string, debug bool) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &PostgresStore{db: db}, nil
}

func tableName(area model.CorpusArea) string {
	return string(area) + "_chunks"
}

// Init creates both area tables if they do not exist
func (s *PostgresStore) Init(ctx context.Context) error {
	for _, area := range []model.CorpusArea{model.AreaUnverified, model.AreaVerified} {
		_, err := s.db.NewCreateTable().
			Model((*chunkRow)(nil)).
			ModelTableExpr(tableName(area)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create table %s: %w", tableName(area), err)
		}
	}
	return nil
}

// InsertChunks appends chunks to an area
func (s *PostgresStore) InsertChunks(ctx context.Context, area model.CorpusArea, chunks []model.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = chunkRow{
			SourcePath: c.SourcePath,
			Size:       c.Size,
			Text:       c.Text,
			Statements: c.Statements,
			Score:      c.Score,
		}
	}

	res, err := s.db.NewInsert().
		Model(&rows).
		ModelTableExpr(tableName(area)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert chunks: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}

// Chunks lists all chunks of an area ordered by row id
func (s *PostgresStore) Chunks(ctx context.Context, area model.CorpusArea) ([]model.Chunk, error) {
	var rows []chunkRow
	err := s.db.NewSelect().
		Model(&rows).
		ModelTableExpr(tableName(area) + " AS chunk_row").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	chunks := make([]model.Chunk, len(rows))
	for i, r := range rows {
		chunks[i] = model.Chunk{
			ID:         r.ID,
			SourcePath: r.SourcePath,
			Size:       r.Size,
			Text:       r.Text,
			Statements: r.Statements,
			Score:      r.Score,
		}
	}
	return chunks, nil
}

// SetStatements attaches a statement list to one chunk by row id
func (s *PostgresStore) SetStatements(ctx context.Context, area model.CorpusArea, chunkID int64, statements []string) error {
	payload, err := json.Marshal(statements)
	if err != nil {
		return fmt.Errorf("encode statements: %w", err)
	}

	res, err := s.db.NewUpdate().
		Model((*chunkRow)(nil)).
		ModelTableExpr(tableName(area)).
		Set("statements = ?::jsonb", string(payload)).
		Where("id = ?", chunkID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update statements: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUnknownChunk
	}
	return nil
}

// SetScore attaches a score to one chunk by row id
func (s *PostgresStore) SetScore(ctx context.Context, area model.CorpusArea, chunkID int64, score float64) error {
	res, err := s.db.NewUpdate().
		Model((*chunkRow)(nil)).
		ModelTableExpr(tableName(area)).
		Set("score = ?", score).
		Where("id = ?", chunkID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUnknownChunk
	}
	return nil
}

// Count returns the number of chunks in an area
func (s *PostgresStore) Count(ctx context.Context, area model.CorpusArea) (int, error) {
	n, err := s.db.NewSelect().
		Model((*chunkRow)(nil)).
		ModelTableExpr(tableName(area) + " AS chunk_row").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// DeleteAll clears an area
func (s *PostgresStore) DeleteAll(ctx context.Context, area model.CorpusArea) error {
	_, err := s.db.NewDelete().
		Model((*chunkRow)(nil)).
		ModelTableExpr(tableName(area)).
		Where("TRUE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear %s: %w", tableName(area), err)
	}
	return nil
}

// DeleteBySource removes all chunks of one document from an area
func (s *PostgresStore) DeleteBySource(ctx context.Context, area model.CorpusArea, sourcePrefix string) error {
	_, err := s.db.NewDelete().
		Model((*chunkRow)(nil)).
		ModelTableExpr(tableName(area)).
		Where("source_path LIKE ?", sourcePrefix+"%").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete by source: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
