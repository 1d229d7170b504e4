package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Service reads the audit timeline. Writes go through shared.AuditLogger;
// this side only queries.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs the audit read service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Result bundles timeline rows with paging information.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// Timeline returns audit events, newest first, filtered and paged.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.pool == nil {
		return Result{}, fmt.Errorf("audit: pool not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}

	conditions := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}
	if filters.SchoolID != nil {
		add("school_id = $%d", *filters.SchoolID)
	}
	if filters.ActorID != nil {
		add("actor_id = $%d", *filters.ActorID)
	}
	if filters.Entity != "" {
		add("entity = $%d", filters.Entity)
	}
	if filters.Action != "" {
		add("action = $%d", filters.Action)
	}
	if !filters.From.IsZero() {
		add("occurred_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("occurred_at < $%d", filters.To)
	}

	// fetch one extra row to detect a next page without a count query
	args = append(args, pageSize+1, (page-1)*pageSize)
	query := fmt.Sprintf(`
		SELECT id, occurred_at, actor_id, school_id, action, entity, entity_id, meta
		FROM audit_logs
		WHERE %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	var timeline []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &row.SchoolID,
			&row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return Result{}, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &row.Meta)
		}
		timeline = append(timeline, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	hasNext := len(timeline) > pageSize
	if hasNext {
		timeline = timeline[:pageSize]
	}
	return Result{
		Rows:   timeline,
		Paging: PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext},
	}, nil
}

// ParseID is a helper for optional numeric query filters.
func ParseID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
