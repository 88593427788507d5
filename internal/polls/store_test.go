package polls

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/livepoll/internal/models"
)

func record(q string, at time.Time) models.PollRecord {
	return models.PollRecord{ID: uuid.New(), Question: q, Options: []models.PollOption{{Text: "A", Votes: 1}}, Duration: 10, CreatedAt: at}
}

func TestMemoryStore_ListRecentNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, record("first", base)))
	require.NoError(t, s.Save(ctx, record("third", base.Add(2*time.Minute))))
	require.NoError(t, s.Save(ctx, record("second", base.Add(time.Minute))))
	require.NoError(t, s.Save(ctx, record("fourth", base.Add(2*time.Minute))))

	recs, err := s.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "fourth", recs[0].Question, "ties resolve to the later save")
	assert.Equal(t, "third", recs[1].Question)
	assert.Equal(t, "second", recs[2].Question)
}

func TestMemoryStore_Empty(t *testing.T) {
	recs, err := NewMemoryStore().ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestArchiveKey(t *testing.T) {
	rec := record("q", time.Date(2026, 3, 4, 23, 30, 0, 0, time.FixedZone("x", -2*3600)))
	assert.Equal(t, "polls/2026/03/05/"+rec.ID.String()+".json", ArchiveKey(rec))
}
