package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/snipstash/snipstash/internal/model"
)

type SnippetStore struct {
	db *sql.DB
}

func NewSnippetStore(db *sql.DB) *SnippetStore {
	return &SnippetStore{db: db}
}

// SnippetFilter narrows List results. Zero values mean "no constraint".
type SnippetFilter struct {
	Language string
	Tags     []string // result must carry every listed tag
	Search   string   // case-insensitive substring over title, description, code
}

// SnippetUpdate carries a partial update; nil fields are left unchanged.
type SnippetUpdate struct {
	Title       *string
	Language    *string
	Code        *string
	Description *string
	Tags        *[]string
}

func scanSnippet(scanner interface{ Scan(...any) error }) (*model.Snippet, error) {
	var sn model.Snippet
	var tags string

	err := scanner.Scan(
		&sn.ID, &sn.Title, &sn.Language, &sn.Code, &sn.Description,
		&tags, &sn.CreatedBy, &sn.CreatedAt, &sn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &sn.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if sn.Tags == nil {
		sn.Tags = []string{}
	}
	return &sn, nil
}

const snippetCols = `id, title, language, code, description, tags, created_by, created_at, updated_at`

func (s *SnippetStore) Create(title, language, code, description string, tags []string, createdBy string) (*model.Snippet, error) {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO snippets (id, title, language, code, description, tags, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, title, language, code, description, string(tagsJSON), createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snippet: %w", err)
	}
	return s.GetByID(id)
}

func (s *SnippetStore) GetByID(id string) (*model.Snippet, error) {
	row := s.db.QueryRow(`SELECT `+snippetCols+` FROM snippets WHERE id = ?`, id)
	sn, err := scanSnippet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snippet: %w", err)
	}
	return sn, nil
}

// List returns snippets matching the filter, newest first. Language and
// search narrow the query; the tag-superset check runs over the decoded tag
// list since tags live in a JSON column.
func (s *SnippetStore) List(f SnippetFilter) ([]model.Snippet, error) {
	query := `SELECT ` + snippetCols + ` FROM snippets`
	var conds []string
	var args []any

	if f.Language != "" {
		conds = append(conds, `language = ?`)
		args = append(args, f.Language)
	}
	if f.Search != "" {
		conds = append(conds, `(title LIKE ? OR description LIKE ? OR code LIKE ?)`)
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		if !hasAllTags(sn.Tags, f.Tags) {
			continue
		}
		snippets = append(snippets, *sn)
	}
	return snippets, rows.Err()
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}

// Update applies the non-nil fields of upd to the snippet and returns the
// updated row, or nil if the snippet does not exist.
func (s *SnippetStore) Update(id string, upd SnippetUpdate) (*model.Snippet, error) {
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if upd.Title != nil {
		existing.Title = *upd.Title
	}
	if upd.Language != nil {
		existing.Language = *upd.Language
	}
	if upd.Code != nil {
		existing.Code = *upd.Code
	}
	if upd.Description != nil {
		existing.Description = *upd.Description
	}
	if upd.Tags != nil {
		existing.Tags = *upd.Tags
	}
	if existing.Tags == nil {
		existing.Tags = []string{}
	}

	tagsJSON, err := json.Marshal(existing.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE snippets SET title = ?, language = ?, code = ?, description = ?, tags = ?, updated_at = datetime('now') WHERE id = ?`,
		existing.Title, existing.Language, existing.Code, existing.Description, string(tagsJSON), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update snippet: %w", err)
	}
	return s.GetByID(id)
}

func (s *SnippetStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snippet: %w", err)
	}
	return nil
}
