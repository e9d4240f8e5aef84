package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		wantExisting bool
		wantString   string
	}{
		{
			name:         "empty id creates new deployment",
			id:           "",
			wantExisting: false,
			wantString:   "new",
		},
		{
			name:         "non-empty id updates existing deployment",
			id:           "AKDe123",
			wantExisting: true,
			wantString:   "existing:AKDe123",
		},
		{
			name:         "whitespace id is treated as an identifier",
			id:           " ",
			wantExisting: true,
			wantString:   "existing: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := ResolveTarget(tt.id)
			assert.Equal(t, tt.wantExisting, target.IsExisting())
			assert.Equal(t, tt.id, target.ID())
			assert.Equal(t, tt.wantString, target.String())
		})
	}
}

func TestResolveTargetIsExclusive(t *testing.T) {
	// Exactly one publish branch per run: the target is either new or
	// existing, never both, and the choice depends only on the id.
	for _, id := range []string{"", "AKDe123", "x"} {
		target := ResolveTarget(id)
		assert.Equal(t, id != "", target.IsExisting(), "id=%q", id)
	}
}

func TestDescription(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	desc := Description(now)

	assert.True(t, strings.HasPrefix(desc, DescriptionPrefix))

	timestamp := strings.TrimPrefix(desc, DescriptionPrefix)
	assert.NotEmpty(t, timestamp)
	assert.Contains(t, timestamp, "2026")
}
