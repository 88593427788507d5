package polls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/classpulse/livepoll/internal/models"
)

type failingStore struct{ MemoryStore }

func (*failingStore) Save(context.Context, models.PollRecord) error {
	return errors.New("disk full")
}

type fakeWriter struct {
	keys []string
	err  error
}

func (w *fakeWriter) PutJSON(_ context.Context, key string, _ interface{}) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestRecorder_SavesArchivesAndInvalidates(t *testing.T) {
	store := NewMemoryStore()
	cache := newMapCache()
	cache.pages[10] = []models.PollRecord{}
	writer := &fakeWriter{}

	r := NewRecorder(store, time.Second, zap.NewNop())
	r.SetHistory(NewHistory(store, cache, zap.NewNop()))
	r.SetArchiver(NewObjectArchive(writer))

	rec := record("Pick one", time.Now())
	r.Persist(rec)
	r.Wait()

	recs, _ := store.ListRecent(context.Background(), 10)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, []string{ArchiveKey(rec)}, writer.keys)
}

func TestRecorder_FailuresAreOnlyLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	writer := &fakeWriter{}
	r := NewRecorder(&failingStore{}, time.Second, zap.New(core))
	r.SetArchiver(NewObjectArchive(writer))

	r.Persist(record("q", time.Now()))
	r.Wait()

	assert.Equal(t, 1, logs.FilterMessage("failed to save poll to history").Len())
	assert.Empty(t, writer.keys, "nothing is archived when the save failed")
}

func TestRecorder_ArchiveFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := NewRecorder(NewMemoryStore(), time.Second, zap.New(core))
	r.SetArchiver(NewObjectArchive(&fakeWriter{err: errors.New("access denied")}))

	r.Persist(record("q", time.Now()))
	r.Wait()

	assert.Equal(t, 1, logs.FilterMessage("poll saved to history").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed to archive poll").Len())
}
