package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/diario-cli/internal/core/domain"
	"github.com/custodia-labs/diario-cli/internal/core/ports/driven"
)

// publicationStore implements driven.PublicationStore.
type publicationStore struct {
	store *Store
}

var _ driven.PublicationStore = (*publicationStore)(nil)

// SaveBatch inserts the batch in a single transaction. Rows already
// present for the same (content hash, target) pair are skipped; the
// returned count is the number actually inserted. Any failure rolls
// the whole batch back.
func (p *publicationStore) SaveBatch(ctx context.Context, pubs []domain.ScoredPublication) (int, error) {
	if len(pubs) == 0 {
		return 0, nil
	}

	tx, err := p.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO publications
			(content_hash, target, source_id, tribunal, date, raw_text, recipients, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, sp := range pubs {
		recipientsJSON, err := json.Marshal(sp.Publication.Recipients)
		if err != nil {
			return 0, fmt.Errorf("marshalling recipients: %w", err)
		}
		scoreJSON, err := json.Marshal(sp.Score)
		if err != nil {
			return 0, fmt.Errorf("marshalling score: %w", err)
		}

		res, err := stmt.ExecContext(ctx,
			sp.Publication.ContentHash,
			sp.Target.String(),
			sp.Publication.SourceID,
			sp.Publication.Tribunal,
			sp.Publication.Date.Format(domain.DateFormat),
			sp.Publication.RawText,
			string(recipientsJSON),
			string(scoreJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting publication %s: %w", sp.Publication.ContentHash, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch: %w", err)
	}
	return inserted, nil
}

// Has reports whether a publication with the content hash is stored
// under any target.
func (p *publicationStore) Has(ctx context.Context, contentHash string) (bool, error) {
	var one int
	err := p.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM publications WHERE content_hash = ?", contentHash,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying publication: %w", err)
	}
	return true, nil
}

// List returns stored publications for a target, newest first. Zero
// filter values mean unbounded.
func (p *publicationStore) List(ctx context.Context, target domain.Registration, filter domain.Query) ([]domain.ScoredPublication, error) {
	query := `
		SELECT content_hash, target, source_id, tribunal, date, raw_text, recipients, score
		FROM publications WHERE target = ?
	`
	args := []any{target.String()}

	if !filter.Dates.Start.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.Dates.Start.Format(domain.DateFormat))
	}
	if !filter.Dates.End.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.Dates.End.Format(domain.DateFormat))
	}
	if filter.Tribunal != "" {
		query += " AND tribunal = ?"
		args = append(args, filter.Tribunal)
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := p.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredPublication
	for rows.Next() {
		sp, err := scanScoredPublication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publications: %w", err)
	}
	return out, nil
}

// Count returns how many publications are stored for a target.
func (p *publicationStore) Count(ctx context.Context, target domain.Registration) (int, error) {
	var count int
	err := p.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM publications WHERE target = ?", target.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting publications: %w", err)
	}
	return count, nil
}

func scanScoredPublication(rows *sql.Rows) (domain.ScoredPublication, error) {
	var sp domain.ScoredPublication
	var targetStr, dateStr, recipientsJSON, scoreJSON string

	if err := rows.Scan(
		&sp.Publication.ContentHash,
		&targetStr,
		&sp.Publication.SourceID,
		&sp.Publication.Tribunal,
		&dateStr,
		&sp.Publication.RawText,
		&recipientsJSON,
		&scoreJSON,
	); err != nil {
		return domain.ScoredPublication{}, fmt.Errorf("scanning publication: %w", err)
	}

	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return domain.ScoredPublication{}, fmt.Errorf("parsing stored date %q: %w", dateStr, err)
	}
	sp.Publication.Date = date

	if err := json.Unmarshal([]byte(recipientsJSON), &sp.Publication.Recipients); err != nil {
		return domain.ScoredPublication{}, fmt.Errorf("unmarshaling recipients: %w", err)
	}
	if err := json.Unmarshal([]byte(scoreJSON), &sp.Score); err != nil {
		return domain.ScoredPublication{}, fmt.Errorf("unmarshaling score: %w", err)
	}
	sp.Target = parseTarget(targetStr)

	return sp, nil
}

// parseTarget splits the stored "number/UF" form back into a
// registration. Stored targets are always normalised.
func parseTarget(s string) domain.Registration {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return domain.Registration{Number: s[:i], UF: s[i+1:]}
		}
	}
	return domain.Registration{Number: s}
}
