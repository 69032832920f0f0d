package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		incoming []int
		limit    int
		want     []int
	}{
		{name: "empty incoming is identity", existing: []int{1, 2}, incoming: nil, limit: 3, want: []int{1, 2}},
		{name: "append under limit", existing: []int{1}, incoming: []int{2, 3}, limit: 5, want: []int{1, 2, 3}},
		{name: "drops oldest existing", existing: []int{1, 2, 3}, incoming: []int{4, 5}, limit: 3, want: []int{3, 4, 5}},
		{name: "incoming alone over limit", existing: []int{1, 2}, incoming: []int{3, 4, 5, 6}, limit: 3, want: []int{4, 5, 6}},
		{name: "nil existing", existing: nil, incoming: []int{7}, limit: 2, want: []int{7}},
		{name: "no limit", existing: []int{1, 2}, incoming: []int{3}, limit: 0, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.existing, tt.incoming, tt.limit))
		})
	}
}

func TestMerge_DoesNotAlias(t *testing.T) {
	existing := make([]int, 2, 10)
	existing[0], existing[1] = 1, 2
	incoming := []int{3}

	out := Merge(existing, incoming, 10)
	out[0] = 99
	out = append(out, 4)

	assert.Equal(t, []int{1, 2}, existing)
	assert.Equal(t, 0, existing[:3][2])
	assert.Equal(t, []int{3}, incoming)
	assert.Equal(t, []int{99, 2, 3, 4}, out)
}
