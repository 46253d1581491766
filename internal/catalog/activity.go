package catalog

import (
	"context"
	"fmt"
)

// ActivityResolver computes the set of workflows considered active: those
// that never started plus those referenced by a task record in a
// non-terminal state.
//
// The second signal cannot be tenant-scoped at the task layer. The set it
// returns may therefore contain other tenants' workflows and dangling IDs;
// it is only ever used intersected with a metadata query that re-applies the
// tenant filter, which makes the scoping exact there.
type ActivityResolver struct {
	store Store
}

// NewActivityResolver creates an ActivityResolver over store.
func NewActivityResolver(store Store) *ActivityResolver {
	return &ActivityResolver{store: store}
}

// Resolve returns the active IDs as a restricted IDSet. An empty set is a
// valid result meaning no active workflows.
func (r *ActivityResolver) Resolve(ctx context.Context, appID string) (IDSet, error) {
	pending, err := r.store.FindPendingWorkflowIDs(ctx, appID)
	if err != nil {
		return IDSet{}, fmt.Errorf("resolve pending workflows: %w", err)
	}
	running, err := r.store.DistinctActiveTaskWorkflowIDs(ctx)
	if err != nil {
		return IDSet{}, fmt.Errorf("resolve running workflows: %w", err)
	}
	return OnlyIDs(pending...).Union(OnlyIDs(running...)), nil
}
