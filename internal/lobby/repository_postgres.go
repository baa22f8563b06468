package lobby

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"HoldemTable/internal/game/table"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS table_sessions (
    table_id TEXT PRIMARY KEY,
    version  BIGINT NOT NULL,
    data     JSONB  NOT NULL
)`

// pgStore 每桌一行，字段存于 jsonb 文档；局部更新用 || 合并顶层字段
type pgStore struct {
	db *sql.DB
}

// NewPostgresStore 需要已 Open 的 lib/pq 连接，首次调用建表
func NewPostgresStore(ctx context.Context, db *sql.DB) (Store, error) {
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("migrate table_sessions: %w", err)
	}
	return &pgStore{db: db}, nil
}

func encodeDoc(s table.Session, fields ...string) ([]byte, error) {
	enc, err := table.EncodeFields(s, fields...)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]json.RawMessage, len(enc))
	for k, v := range enc {
		doc[k] = json.RawMessage(v)
	}
	return json.Marshal(doc)
}

func (p *pgStore) Create(ctx context.Context, s table.Session) error {
	doc, err := encodeDoc(s, table.AllFields...)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO table_sessions (table_id, version, data) VALUES ($1, 1, $2)
		 ON CONFLICT (table_id) DO NOTHING`,
		s.TableID, string(doc))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableExists
	}
	return nil
}

func (p *pgStore) Get(ctx context.Context, tableID string) (table.Session, error) {
	var (
		version int64
		data    []byte
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT version, data FROM table_sessions WHERE table_id = $1`, tableID).
		Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return table.Session{}, ErrNotFound
	}
	if err != nil {
		return table.Session{}, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return table.Session{}, fmt.Errorf("decode table_sessions row: %w", err)
	}
	fields := make(map[string]string, len(doc)+1)
	for k, v := range doc {
		fields[k] = string(v)
	}
	fields[table.FieldVersion] = strconv.FormatInt(version, 10)
	return table.DecodeFields(fields)
}

func (p *pgStore) Update(ctx context.Context, s table.Session, fields ...string) (int64, error) {
	doc, err := encodeDoc(s, fields...)
	if err != nil {
		return 0, err
	}

	var next int64
	err = p.db.QueryRowContext(ctx,
		`UPDATE table_sessions SET data = data || $1::jsonb, version = version + 1
		 WHERE table_id = $2 AND version = $3
		 RETURNING version`,
		string(doc), s.TableID, s.Version).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// 没有命中：区分桌子不存在和 version 冲突
	var exists bool
	if err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM table_sessions WHERE table_id = $1)`, s.TableID).
		Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrStorageConflict
}
