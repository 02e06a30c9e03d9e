// Package postgres persists items, gaps and audit entries in PostgreSQL.
// Item and gap writes and audit appends share the transaction carried in ctx.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/models"
	id "complytrack/pkg/domain"
	dErrors "complytrack/pkg/domain-errors"
	"complytrack/pkg/platform/sentinel"
	txcontext "complytrack/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

type Store struct {
	db      *sql.DB
	timeout time.Duration
}

type Option func(*Store)

// WithTxTimeout bounds transactions started without a deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) exec(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

// RunInTx wraps fn in BEGIN/COMMIT. Nested calls join the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const itemColumns = `id, kind, title, owner_id, owner_name, category, issued_at, expires_at,
	last_reviewed_at, next_review_at, review_cadence_days, score, status, risk_level,
	evidence_refs, credential, requirement, archived_at, created_at, updated_at, version`

const gapColumns = `id, item_id, description, severity, assignee_id, assignee_name, due_at,
	status, resolution_notes, opened_at, resolved_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item                            models.Item
		itemID                          uuid.UUID
		issued, expires, reviewed, next sql.NullTime
		archived                        sql.NullTime
		score                           sql.NullInt64
		refs                            []string
		credential, requirement         []byte
	)
	err := row.Scan(&itemID, &item.Kind, &item.Title, &item.Owner.ID, &item.Owner.DisplayName,
		&item.Category, &issued, &expires, &reviewed, &next, &item.ReviewCadenceDays, &score,
		&item.Status, &item.RiskLevel, pq.Array(&refs), &credential, &requirement, &archived,
		&item.CreatedAt, &item.UpdatedAt, &item.Version)
	if err != nil {
		return nil, err
	}
	item.ID = id.ItemID(itemID)
	item.IssuedAt = timePtr(issued)
	item.ExpiresAt = timePtr(expires)
	item.LastReviewedAt = timePtr(reviewed)
	item.NextReviewAt = timePtr(next)
	item.ArchivedAt = timePtr(archived)
	if score.Valid {
		v := int(score.Int64)
		item.Score = &v
	}
	item.EvidenceRefs = append([]string{}, refs...)
	item.Gaps = []models.Gap{}
	if len(credential) > 0 {
		item.Credential = &models.CredentialCheck{}
		if err := json.Unmarshal(credential, item.Credential); err != nil {
			return nil, fmt.Errorf("decode credential: %w", err)
		}
	}
	if len(requirement) > 0 {
		item.Requirement = &models.Requirement{}
		if err := json.Unmarshal(requirement, item.Requirement); err != nil {
			return nil, fmt.Errorf("decode requirement: %w", err)
		}
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func scanGap(row rowScanner) (models.Gap, error) {
	var (
		g             models.Gap
		gapID, itemID uuid.UUID
		due, resolved sql.NullTime
	)
	err := row.Scan(&gapID, &itemID, &g.Description, &g.Severity, &g.AssignedTo.ID,
		&g.AssignedTo.DisplayName, &due, &g.Status, &g.ResolutionNotes, &g.OpenedAt,
		&resolved, &g.UpdatedAt)
	if err != nil {
		return models.Gap{}, err
	}
	g.ID = id.GapID(gapID)
	g.ItemID = id.ItemID(itemID)
	g.DueAt = timePtr(due)
	g.ResolvedAt = timePtr(resolved)
	g.OpenedAt = g.OpenedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return g, nil
}

// GetItem loads an item with its gaps. Inside a transaction the item row is
// locked until commit.
func (s *Store) GetItem(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if _, ok := txcontext.From(ctx); ok {
		query += ` FOR UPDATE`
	}
	item, err := scanItem(s.exec(ctx).QueryRowContext(ctx, query, uuid.UUID(itemID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select item: %w", err)
	}
	if err := s.loadGaps(ctx, []*models.Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

// FindItemByGap loads the item owning a gap.
func (s *Store) FindItemByGap(ctx context.Context, gapID id.GapID) (*models.Item, error) {
	var itemID uuid.UUID
	err := s.exec(ctx).QueryRowContext(ctx, `SELECT item_id FROM gaps WHERE id = $1`, uuid.UUID(gapID)).Scan(&itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select gap owner: %w", err)
	}
	return s.GetItem(ctx, id.ItemID(itemID))
}

func (s *Store) loadGaps(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[id.ItemID]*models.Item, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		byID[item.ID] = item
		ids = append(ids, item.ID.String())
	}
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE item_id = ANY($1::uuid[]) ORDER BY opened_at, id`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("select gaps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		g, err := scanGap(rows)
		if err != nil {
			return fmt.Errorf("scan gap: %w", err)
		}
		if item, ok := byID[g.ItemID]; ok {
			item.Gaps = append(item.Gaps, g)
		}
	}
	return rows.Err()
}

func itemArgs(item *models.Item) ([]any, error) {
	var credential, requirement any
	if item.Credential != nil {
		b, err := json.Marshal(item.Credential)
		if err != nil {
			return nil, fmt.Errorf("encode credential: %w", err)
		}
		credential = string(b)
	}
	if item.Requirement != nil {
		b, err := json.Marshal(item.Requirement)
		if err != nil {
			return nil, fmt.Errorf("encode requirement: %w", err)
		}
		requirement = string(b)
	}
	refs := item.EvidenceRefs
	if refs == nil {
		refs = []string{}
	}
	return []any{
		uuid.UUID(item.ID), string(item.Kind), item.Title, item.Owner.ID, item.Owner.DisplayName,
		item.Category, item.IssuedAt, item.ExpiresAt, item.LastReviewedAt, item.NextReviewAt,
		item.ReviewCadenceDays, item.Score, string(item.Status), string(item.RiskLevel),
		pq.Array(refs), credential, requirement, item.ArchivedAt, item.CreatedAt, item.UpdatedAt,
		item.Version,
	}, nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	args, err := itemArgs(item)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx).ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrVersionConflict
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return s.upsertGaps(ctx, item)
}

// UpdateItem writes the item if the stored version is the one before it.
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	args, err := itemArgs(item)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE items SET
			kind = $2, title = $3, owner_id = $4, owner_name = $5, category = $6,
			issued_at = $7, expires_at = $8, last_reviewed_at = $9, next_review_at = $10,
			review_cadence_days = $11, score = $12, status = $13, risk_level = $14,
			evidence_refs = $15, credential = $16, requirement = $17, archived_at = $18,
			created_at = $19, updated_at = $20, version = $21
		WHERE id = $1 AND version = $21 - 1
	`, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := s.exec(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, uuid.UUID(item.ID)).Scan(&exists); err != nil {
			return fmt.Errorf("check item: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionConflict
	}
	return s.upsertGaps(ctx, item)
}

func (s *Store) upsertGaps(ctx context.Context, item *models.Item) error {
	for _, g := range item.Gaps {
		_, err := s.exec(ctx).ExecContext(ctx, `
			INSERT INTO gaps (`+gapColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				description = EXCLUDED.description,
				severity = EXCLUDED.severity,
				assignee_id = EXCLUDED.assignee_id,
				assignee_name = EXCLUDED.assignee_name,
				due_at = EXCLUDED.due_at,
				status = EXCLUDED.status,
				resolution_notes = EXCLUDED.resolution_notes,
				resolved_at = EXCLUDED.resolved_at,
				updated_at = EXCLUDED.updated_at
		`, uuid.UUID(g.ID), uuid.UUID(item.ID), g.Description, string(g.Severity), g.AssignedTo.ID,
			g.AssignedTo.DisplayName, g.DueAt, string(g.Status), g.ResolutionNotes, g.OpenedAt,
			g.ResolvedAt, g.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert gap %s: %w", g.ID, err)
		}
	}
	return nil
}

// ListItems returns items matching the query with their gaps loaded.
func (s *Store) ListItems(ctx context.Context, q models.ItemQuery) ([]*models.Item, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if q.Kind != "" {
		add("kind = $%d", string(q.Kind))
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.OwnerID != "" {
		add("owner_id = $%d", q.OwnerID)
	}
	if !q.IncludeArchived {
		add("status <> $%d", string(models.StatusArchived))
	}
	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()
	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	if err := s.loadGaps(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// AppendEntry inserts an entry; the database assigns Seq.
func (s *Store) AppendEntry(ctx context.Context, e *audit.Entry) error {
	var before any
	if len(e.Before) > 0 {
		before = string(e.Before)
	}
	err := s.exec(ctx).QueryRowContext(ctx, `
		INSERT INTO audit_entries (
			id, occurred_at, actor_id, actor_name, entity_type, entity_id, item_id,
			action, before, after, request_id, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq
	`, uuid.UUID(e.ID), e.Timestamp, e.Actor.ID, e.Actor.Name, string(e.EntityType), e.EntityID,
		uuid.UUID(e.ItemID), string(e.Action), before, string(e.After), e.RequestID, e.UserAgent,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListEntries returns entries newest first.
func (s *Store) ListEntries(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.EntityID != "" {
		add("entity_id = $%d", f.EntityID)
	}
	if f.EntityType != "" {
		add("entity_type = $%d", string(f.EntityType))
	}
	if !f.ItemID.IsNil() {
		add("item_id = $%d", uuid.UUID(f.ItemID))
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at <= $%d", *f.To)
	}
	if f.Action != "" {
		add("action = $%d", string(f.Action))
	}
	query := `SELECT seq, id, occurred_at, actor_id, actor_name, entity_type, entity_id, item_id,
		action, before, after, request_id, user_agent FROM audit_entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY occurred_at DESC, seq DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	defer rows.Close()
	entries := []audit.Entry{}
	for rows.Next() {
		var (
			e             audit.Entry
			entryID, item uuid.UUID
			before, after []byte
		)
		if err := rows.Scan(&e.Seq, &entryID, &e.Timestamp, &e.Actor.ID, &e.Actor.Name, &e.EntityType,
			&e.EntityID, &item, &e.Action, &before, &after, &e.RequestID, &e.UserAgent); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = id.EntryID(entryID)
		e.ItemID = id.ItemID(item)
		e.Timestamp = e.Timestamp.UTC()
		if len(before) > 0 {
			e.Before = json.RawMessage(before)
		}
		e.After = json.RawMessage(after)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	return entries, nil
}

// EntityExists resolves items and gaps visible to the current transaction.
func (s *Store) EntityExists(ctx context.Context, t audit.EntityType, entityID string) (bool, error) {
	u, err := uuid.Parse(entityID)
	if err != nil {
		return false, nil
	}
	var query string
	switch t {
	case audit.EntityItem:
		query = `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`
	case audit.EntityGap:
		query = `SELECT EXISTS (SELECT 1 FROM gaps WHERE id = $1)`
	default:
		return false, nil
	}
	var exists bool
	if err := s.exec(ctx).QueryRowContext(ctx, query, u).Scan(&exists); err != nil {
		return false, fmt.Errorf("check entity: %w", err)
	}
	return exists, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func isUniqueViolation(err error) bool {
	var coded interface{ SQLState() string }
	return errors.As(err, &coded) && coded.SQLState() == "23505"
}
