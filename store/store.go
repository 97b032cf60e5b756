// Package store 用 SQLite 持久化高亮，实现引擎的添加/删除出口。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ByLCY/folio/engine"
	"github.com/ByLCY/folio/highlight"
)

// ErrNotFound 表示要删除的高亮不存在。
var ErrNotFound = errors.New("store: 高亮不存在")

const schema = `
CREATE TABLE IF NOT EXISTS highlights (
	id         TEXT PRIMARY KEY,
	scope      TEXT NOT NULL,
	text       TEXT NOT NULL,
	color      TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS highlights_scope ON highlights(scope, created_at);
`

// Store 是基于 modernc.org/sqlite 的高亮存储。
type Store struct {
	db *sql.DB
	// Now 提供创建时间，测试可替换。
	Now func() time.Time
}

var _ engine.Store = (*Store)(nil)

// Open 打开（必要时创建）数据库。dsn 可以是文件路径或 ":memory:"。
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// :memory: 数据库只在同一连接内可见
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据表失败: %w", err)
	}
	return &Store{db: db, Now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// AddHighlight 实现 engine.Store。
func (s *Store) AddHighlight(d highlight.Draft) error {
	_, err := s.Add(context.Background(), d)
	return err
}

// RemoveHighlight 实现 engine.Store。
func (s *Store) RemoveHighlight(id string) error {
	return s.Remove(context.Background(), id)
}

// Add 校验草稿，分配 id 与创建时间后写入。
func (s *Store) Add(ctx context.Context, d highlight.Draft) (highlight.Highlight, error) {
	if err := d.Validate(); err != nil {
		return highlight.Highlight{}, err
	}
	h := highlight.Highlight{
		ID:        uuid.NewString(),
		Text:      d.Text,
		Color:     d.Color,
		Scope:     d.Scope,
		Note:      d.Note,
		Tags:      d.Tags,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.insert(ctx, h); err != nil {
		return highlight.Highlight{}, err
	}
	return h, nil
}

// Import 写入已有的高亮（例如从高亮表导入）。缺少 id 或时间时补齐，id 冲突时覆盖。
func (s *Store) Import(ctx context.Context, h highlight.Highlight) (highlight.Highlight, error) {
	if err := h.Validate(); err != nil {
		return highlight.Highlight{}, err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.Now().UTC()
	}
	if err := s.insert(ctx, h); err != nil {
		return highlight.Highlight{}, err
	}
	return h, nil
}

func (s *Store) insert(ctx context.Context, h highlight.Highlight) error {
	tags, err := json.Marshal(nonNil(h.Tags))
	if err != nil {
		return fmt.Errorf("编码标签失败: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO highlights (id, scope, text, color, note, tags, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Scope, h.Text, string(h.Color), h.Note, string(tags), h.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("写入高亮失败: %w", err)
	}
	return nil
}

// Remove 删除指定 id 的高亮，不存在时返回 ErrNotFound。
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("删除高亮失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("删除高亮失败: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List 返回某个作用域的高亮，按创建时间排序。
func (s *Store) List(ctx context.Context, scope string) ([]highlight.Highlight, error) {
	return s.query(ctx, `SELECT id, scope, text, color, note, tags, created_at FROM highlights WHERE scope = ? ORDER BY created_at, rowid`, scope)
}

// All 返回全部高亮，按作用域与创建时间排序。
func (s *Store) All(ctx context.Context) ([]highlight.Highlight, error) {
	return s.query(ctx, `SELECT id, scope, text, color, note, tags, created_at FROM highlights ORDER BY scope, created_at, rowid`)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]highlight.Highlight, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("查询高亮失败: %w", err)
	}
	defer rows.Close()

	var out []highlight.Highlight
	for rows.Next() {
		var (
			h                      highlight.Highlight
			color, tags, createdAt string
		)
		if err := rows.Scan(&h.ID, &h.Scope, &h.Text, &color, &h.Note, &tags, &createdAt); err != nil {
			return nil, fmt.Errorf("读取高亮失败: %w", err)
		}
		h.Color = highlight.Color(color)
		if err := json.Unmarshal([]byte(tags), &h.Tags); err != nil {
			return nil, fmt.Errorf("解析标签失败: %w", err)
		}
		if len(h.Tags) == 0 {
			h.Tags = nil
		}
		if h.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("解析创建时间失败: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
