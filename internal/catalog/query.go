package catalog

import (
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

const (
	// DefaultPageSize applies when the caller gives no limit.
	DefaultPageSize = 10
	// DefaultMaxPageSize caps limit when no other cap is configured.
	DefaultMaxPageSize = 100
)

// SortField names a sortable workflow attribute.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
	SortName      SortField = "name"
	SortAppID     SortField = "app_id"
	SortStatus    SortField = "status"
)

func (f SortField) valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortName, SortAppID, SortStatus:
		return true
	}
	return false
}

// Sort orders a page. Ties are always broken by workflow ID ascending.
type Sort struct {
	Field SortField
	Asc   bool
}

// ListParams are the caller-facing listing options.
type ListParams struct {
	AppID      string
	IDs        IDSet
	Status     string
	OnlyActive bool
	SortBy     string
	SortAsc    bool
	Skip       int
	Limit      int
	Detail     domain.Detail
}

// Query is the composed filter handed to a Store.
type Query struct {
	AppID string
	IDs   IDSet
	// Statuses is nil for no constraint.
	Statuses []domain.Status
	Sort     Sort
	Skip     int
	Limit    int
}

// Page is one evaluation of a Query: the total match count ignoring
// skip/limit and the ordered IDs of the requested window.
type Page struct {
	Total int64
	IDs   []string
}

// BuildQuery validates p and composes the tenant, ID, status and paging
// constraints. The activity constraint is applied afterwards with
// WithActive. Limits above maxLimit are clamped.
func BuildQuery(p ListParams, maxLimit int) (Query, error) {
	statuses, err := domain.ParseStatusFilter(p.Status)
	if err != nil {
		return Query{}, err
	}

	sort := Sort{Field: SortCreatedAt, Asc: p.SortAsc}
	if p.SortBy != "" {
		sort.Field = SortField(p.SortBy)
		if !sort.Field.valid() {
			return Query{}, &domain.ValidationError{
				Field:  "sort_by",
				Value:  p.SortBy,
				Reason: "must be one of created_at, updated_at, name, app_id, status",
			}
		}
	}

	if p.Skip < 0 {
		return Query{}, &domain.ValidationError{Field: "skip", Reason: "must be >= 0"}
	}
	if p.Limit < 0 {
		return Query{}, &domain.ValidationError{Field: "limit", Reason: "must be >= 0"}
	}
	if maxLimit <= 0 {
		maxLimit = DefaultMaxPageSize
	}
	limit := min(p.Limit, maxLimit)

	return Query{
		AppID:    p.AppID,
		IDs:      p.IDs,
		Statuses: statuses,
		Sort:     sort,
		Skip:     p.Skip,
		Limit:    limit,
	}, nil
}

// WithActive narrows q to the active set. An empty intersection is a valid
// query that matches nothing.
func (q Query) WithActive(active IDSet) Query {
	q.IDs = q.IDs.Intersect(active)
	return q
}

// MatchesNothing reports whether q can be answered without touching the
// store.
func (q Query) MatchesNothing() bool {
	return q.IDs.Empty()
}
