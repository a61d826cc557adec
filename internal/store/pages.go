package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/docstore"
	"fitsync/internal/errs"
)

const defaultPageSize = 100

// Pages is a docstore.Documents implementation over the local database.
// Filters, sorts and pagination are evaluated in Go with the same semantics
// as the remote store.
type Pages struct {
	store *Store
}

var _ docstore.Documents = (*Pages)(nil)

// Pages returns the document store view of the store.
func (s *Store) Pages() *Pages {
	return &Pages{store: s}
}

// Query returns one page of matching documents. The cursor is an offset.
func (p *Pages) Query(ctx context.Context, databaseID string, q docstore.Query) (*docstore.QueryResult, error) {
	rows, err := p.store.db.QueryContext(ctx, `
		SELECT id, properties, created_at, updated_at
		FROM pages
		WHERE database_id = ?
		ORDER BY created_at, id
	`, databaseID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var matched []docstore.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		if q.Filter.Match(page.Properties) {
			matched = append(matched, *page)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docstore.SortPages(matched, q.Sorts)

	offset := 0
	if q.StartCursor != "" {
		offset, err = strconv.Atoi(q.StartCursor)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("invalid start cursor %q", q.StartCursor)
		}
	}
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	result := &docstore.QueryResult{Results: []docstore.Page{}}
	if offset >= len(matched) {
		return result, nil
	}
	end := min(offset+size, len(matched))
	result.Results = matched[offset:end]
	if end < len(matched) {
		result.HasMore = true
		result.NextCursor = strconv.Itoa(end)
	}
	return result, nil
}

// Create inserts a new page with a random id.
func (p *Pages) Create(ctx context.Context, databaseID string, props docstore.Properties) (*docstore.Page, error) {
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encoding properties: %w", err)
	}

	now := p.store.now().UTC().Format(time.RFC3339Nano)
	page := &docstore.Page{
		ID:             uuid.NewString(),
		CreatedTime:    now,
		LastEditedTime: now,
		Properties:     props,
	}

	_, err = p.store.db.ExecContext(ctx, `
		INSERT INTO pages (id, database_id, properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, page.ID, databaseID, string(data), now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting page: %w", err)
	}
	return page, nil
}

// Update merges props into the stored page; properties not named are kept.
func (p *Pages) Update(ctx context.Context, pageID string, props docstore.Properties) (*docstore.Page, error) {
	tx, err := p.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	page, err := scanPage(tx.QueryRowContext(ctx, `
		SELECT id, properties, created_at, updated_at FROM pages WHERE id = ?
	`, pageID))
	if err != nil {
		return nil, err
	}

	if page.Properties == nil {
		page.Properties = docstore.Properties{}
	}
	for name, prop := range props {
		page.Properties[name] = prop
	}
	data, err := json.Marshal(page.Properties)
	if err != nil {
		return nil, fmt.Errorf("encoding properties: %w", err)
	}

	page.LastEditedTime = p.store.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `
		UPDATE pages SET properties = ?, updated_at = ? WHERE id = ?
	`, string(data), page.LastEditedTime, pageID); err != nil {
		return nil, fmt.Errorf("updating page: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return page, nil
}

// Retrieve returns a page by id.
func (p *Pages) Retrieve(ctx context.Context, pageID string) (*docstore.Page, error) {
	return scanPage(p.store.db.QueryRowContext(ctx, `
		SELECT id, properties, created_at, updated_at FROM pages WHERE id = ?
	`, pageID))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*docstore.Page, error) {
	var page docstore.Page
	var props string
	err := row.Scan(&page.ID, &props, &page.CreatedTime, &page.LastEditedTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.E(errs.KindNotFound, "retrieve page", err)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(props), &page.Properties); err != nil {
		return nil, fmt.Errorf("decoding page %s: %w", page.ID, err)
	}
	return &page, nil
}
