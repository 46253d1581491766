package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status Status
		valid  bool
	}{
		{name: "pending", status: StatusPending, valid: true},
		{name: "started", status: StatusStarted, valid: true},
		{name: "success", status: StatusSuccess, valid: true},
		{name: "failure", status: StatusFailure, valid: true},
		{name: "revoked", status: StatusRevoked, valid: true},
		{name: "done is a category", status: StatusDone, valid: false},
		{name: "retry is unknown", status: Status("RETRY"), valid: false},
		{name: "lowercase", status: Status("success"), valid: false},
		{name: "empty", status: Status(""), valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Status(%q).Valid() = %v, want %v", tt.status, got, tt.valid)
			}
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want []Status
	}{
		{raw: "", want: nil},
		{raw: "PENDING", want: []Status{StatusPending}},
		{raw: "STARTED", want: []Status{StatusStarted}},
		{raw: "SUCCESS", want: []Status{StatusSuccess}},
		{raw: "FAILURE", want: []Status{StatusFailure}},
		{raw: "REVOKED", want: []Status{StatusRevoked}},
		{raw: "DONE", want: []Status{StatusSuccess, StatusFailure, StatusRevoked}},
		{raw: "ACTIVE", want: []Status{StatusPending, StatusStarted}},
		{raw: "EXCEPTION", want: []Status{StatusFailure, StatusRevoked}},
	}
	for _, tt := range tests {
		t.Run("filter "+tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatusFilter(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatusFilter_Invalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"done", "RUNNING", "RETRY", " PENDING"} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			_, err := ParseStatusFilter(raw)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), raw)
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	t.Parallel()
	for _, s := range TerminalStatuses() {
		assert.True(t, s.Terminal(), s)
	}
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusStarted.Terminal())
	assert.False(t, Status("RETRY").Terminal())
}

func TestNewStatusCounts_ZeroFilled(t *testing.T) {
	t.Parallel()
	counts := NewStatusCounts()
	assert.Len(t, counts, 5)
	for _, s := range PrimitiveStatuses() {
		v, ok := counts[s]
		assert.True(t, ok, "missing %s", s)
		assert.Zero(t, v)
	}

	assert.True(t, counts.Add(StatusSuccess, 3))
	assert.False(t, counts.Add(Status("RETRY"), 2))
	assert.Equal(t, StatusCounts{
		StatusPending: 0, StatusStarted: 0, StatusSuccess: 3, StatusFailure: 0, StatusRevoked: 0,
	}, counts)
}
