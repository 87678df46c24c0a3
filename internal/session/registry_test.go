package session

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/document"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClient struct{ text string }

func (c staticClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return c.text, nil
}
func (staticClient) GetModel(llm.ModelTier) string { return "static" }
func (staticClient) Close() error                  { return nil }

func newTestRegistry(t *testing.T, config Config) *Registry {
	t.Helper()
	renderer, err := rendering.NewRenderer()
	require.NoError(t, err)

	factory := func(context.Context, string) (llm.Client, error) {
		return staticClient{text: "Go, SQL"}, nil
	}
	return NewRegistry(config, renderer, factory, WithEntryIDs(&document.SequenceGenerator{}))
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := newTestRegistry(t, DefaultConfig())

	s := r.Create(nil)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Alex Morgan", s.Doc.Snapshot().Personal.FullName)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, r.Delete(s.ID))
	_, err = r.Get(s.ID)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.ErrorAs(t, r.Delete(s.ID), &nf)
}

func TestRegistry_CreateWithSeed(t *testing.T) {
	r := newTestRegistry(t, DefaultConfig())

	seed := types.Resume{
		Personal:   types.PersonalInfo{FullName: "Jo"},
		Experience: []types.ExperienceEntry{{ID: "x"}, {ID: "x"}},
	}
	s := r.Create(&seed)

	snap := s.Doc.Snapshot()
	assert.Equal(t, "Jo", snap.Personal.FullName)
	require.Len(t, snap.Experience, 2)
	assert.NotEqual(t, snap.Experience[0].ID, snap.Experience[1].ID)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := newTestRegistry(t, DefaultConfig())
	a := r.Create(nil)
	b := r.Create(nil)

	require.NoError(t, a.Doc.SetPersonalField(types.FieldFullName, "Changed"))

	assert.Equal(t, "Alex Morgan", b.Doc.Snapshot().Personal.FullName)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegistry_Sweep(t *testing.T) {
	r := newTestRegistry(t, Config{IdleTTL: time.Hour})
	stale := r.Create(nil)
	fresh := r.Create(nil)

	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, 1, r.Sweep(time.Now()))
	_, err := r.Get(stale.ID)
	assert.Error(t, err)
	_, err = r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestRegistry_SweepKeepsSessionsWithOpenStreams(t *testing.T) {
	r := newTestRegistry(t, Config{IdleTTL: time.Hour})
	s := r.Create(nil)
	_, unsubscribe := s.Events().Subscribe(1)

	later := time.Now().Add(2 * time.Hour)
	assert.Equal(t, 0, r.Sweep(later))
	_, err := r.Get(s.ID)
	require.NoError(t, err)

	unsubscribe()
	assert.Equal(t, 1, r.Sweep(later.Add(2*time.Hour)))
	_, err = r.Get(s.ID)
	assert.Error(t, err)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := newTestRegistry(t, Config{MaxSessions: 2})
	first := r.Create(nil)
	second := r.Create(nil)

	first.mu.Lock()
	first.lastSeen = time.Now().Add(-time.Minute)
	first.mu.Unlock()
	_, _ = r.Get(second.ID)

	third := r.Create(nil)

	assert.Equal(t, 2, r.Len())
	_, err := r.Get(first.ID)
	assert.Error(t, err)
	_, err = r.Get(third.ID)
	assert.NoError(t, err)
}

func TestRegistry_RunClosesOnCancel(t *testing.T) {
	r := newTestRegistry(t, Config{IdleTTL: time.Hour, CleanupInterval: time.Millisecond})
	r.Create(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- r.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, r.Len())
}

func TestSession_PublishesPreviewOnMutation(t *testing.T) {
	r := newTestRegistry(t, DefaultConfig())
	s := r.Create(nil)

	events, unsubscribe := s.Events().Subscribe(4)
	defer unsubscribe()

	s.Doc.SetThemeColor("#dc2626")

	ev := <-events
	require.Equal(t, EventPreview, ev.Type)
	payload, ok := ev.Data.(PreviewEvent)
	require.True(t, ok)
	assert.Equal(t, s.Doc.Revision(), payload.Revision)
	assert.Equal(t, "#dc2626", payload.Preview.ThemeColor)
}

func TestSession_PublishesAssistStates(t *testing.T) {
	r := newTestRegistry(t, DefaultConfig())
	s := r.Create(nil)

	events, unsubscribe := s.Events().Subscribe(8)
	defer unsubscribe()

	out, err := s.Assist.SuggestSkills(context.Background(), "key")
	require.NoError(t, err)
	assert.True(t, out.Applied)

	var states []assist.State
	var previews int
	for len(events) > 0 {
		ev := <-events
		switch ev.Type {
		case EventAssist:
			states = append(states, ev.Data.(assist.StateChange).State)
		case EventPreview:
			previews++
		}
	}

	assert.Equal(t, []assist.State{assist.StateRequesting, assist.StateApplied, assist.StateIdle}, states)
	assert.Equal(t, 1, previews)
	assert.Equal(t, "Go, SQL", s.Doc.Snapshot().Skills)
}
