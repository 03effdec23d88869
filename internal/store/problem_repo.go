package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/noooah2000/solve-next/internal/catalog"
)

type problemRepo struct {
	db *sql.DB
}

func (r *problemRepo) Upsert(ctx context.Context, p catalog.Problem) error {
	topics, err := json.Marshal(p.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	companies, err := json.Marshal(p.CompanyTags)
	if err != nil {
		return fmt.Errorf("marshal company tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO problems (id, title, url, topics, difficulty, company_tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			topics = excluded.topics,
			difficulty = excluded.difficulty,
			company_tags = excluded.company_tags`,
		p.ID, p.Title, p.URL, string(topics), string(p.Difficulty), string(companies))
	if err != nil {
		return fmt.Errorf("upsert problem: %w", err)
	}
	return nil
}

func (r *problemRepo) Get(ctx context.Context, id string) (*catalog.Problem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, url, topics, difficulty, company_tags
		FROM problems WHERE id = ?`, id)

	p, err := scanProblem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns catalog problems matching the filters, ordered by ID.
// Filtering happens in memory over the full table; the catalog is small
// and the matchers are shared with the recommendation filter.
func (r *problemRepo) List(ctx context.Context, f catalog.Filters) ([]catalog.Problem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, url, topics, difficulty, company_tags
		FROM problems ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query problems: %w", err)
	}
	defer rows.Close()

	var out []catalog.Problem
	for rows.Next() {
		p, err := scanProblem(rows.Scan)
		if err != nil {
			return nil, err
		}
		if matchesFilters(p, f) {
			out = append(out, *p)
		}
	}
	return out, rows.Err()
}

func matchesFilters(p *catalog.Problem, f catalog.Filters) bool {
	if f.Empty() {
		return true
	}
	if len(f.Difficulties) > 0 {
		found := false
		for _, d := range f.Difficulties {
			if p.Difficulty == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Topics) > 0 {
		found := false
		for _, t := range f.Topics {
			if p.HasTopic(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Companies) > 0 && !p.HasAnyCompany(f.Companies) {
		return false
	}
	return true
}

func scanProblem(scan func(...any) error) (*catalog.Problem, error) {
	var p catalog.Problem
	var topicsJSON, companiesJSON string

	err := scan(&p.ID, &p.Title, &p.URL, &topicsJSON, &p.Difficulty, &companiesJSON)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(topicsJSON), &p.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal topics: %w", err)
	}
	if err := json.Unmarshal([]byte(companiesJSON), &p.CompanyTags); err != nil {
		return nil, fmt.Errorf("unmarshal company tags: %w", err)
	}
	return &p, nil
}
