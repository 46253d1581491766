package domain

// Status is a workflow or task execution state. The five primitive values
// are the raw states written by the execution layer; DONE, ACTIVE and
// EXCEPTION are filter categories that expand to sets of primitives.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusRevoked Status = "REVOKED"

	StatusDone      Status = "DONE"
	StatusActive    Status = "ACTIVE"
	StatusException Status = "EXCEPTION"
)

// PrimitiveStatuses returns the raw execution states in a fixed order.
func PrimitiveStatuses() []Status {
	return []Status{StatusPending, StatusStarted, StatusSuccess, StatusFailure, StatusRevoked}
}

// TerminalStatuses returns the raw states after which a task never runs again.
func TerminalStatuses() []Status {
	return []Status{StatusSuccess, StatusFailure, StatusRevoked}
}

// Valid reports whether s is one of the five raw execution states.
// Anything else read from the store is treated as unknown.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusSuccess, StatusFailure, StatusRevoked:
		return true
	}
	return false
}

// Terminal reports whether s is SUCCESS, FAILURE or REVOKED.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusRevoked:
		return true
	}
	return false
}

// Filterable reports whether s is accepted as a status filter value.
func (s Status) Filterable() bool {
	switch s {
	case StatusDone, StatusActive, StatusException:
		return true
	}
	return s.Valid()
}

// Expand maps a filter value onto the raw states it matches. Unknown values
// expand to nil.
func (s Status) Expand() []Status {
	switch s {
	case StatusDone:
		return []Status{StatusSuccess, StatusFailure, StatusRevoked}
	case StatusActive:
		return []Status{StatusPending, StatusStarted}
	case StatusException:
		return []Status{StatusFailure, StatusRevoked}
	}
	if s.Valid() {
		return []Status{s}
	}
	return nil
}

// ParseStatusFilter validates a raw status query value. An empty value means
// no constraint and yields nil. Matching is case-sensitive.
func ParseStatusFilter(raw string) ([]Status, error) {
	if raw == "" {
		return nil, nil
	}
	s := Status(raw)
	if !s.Filterable() {
		return nil, &ValidationError{
			Field:  "status",
			Value:  raw,
			Reason: "must be one of PENDING, STARTED, SUCCESS, FAILURE, REVOKED, DONE, ACTIVE, EXCEPTION",
		}
	}
	return s.Expand(), nil
}

// StatusCounts maps every primitive status to the number of workflows in it.
type StatusCounts map[Status]int64

// NewStatusCounts returns counts with an explicit zero for each primitive status.
func NewStatusCounts() StatusCounts {
	counts := make(StatusCounts, 5)
	for _, s := range PrimitiveStatuses() {
		counts[s] = 0
	}
	return counts
}

// Add increments the count for s. Unknown statuses are ignored and reported
// as not added.
func (c StatusCounts) Add(s Status, n int64) bool {
	if !s.Valid() {
		return false
	}
	c[s] += n
	return true
}
