package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocStore keeps documents as JSON, matching the encrypted store's
// marshal/unmarshal behavior without the crypto.
type fakeDocStore struct {
	data     map[string]json.RawMessage
	failSets int
	setCalls int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{data: map[string]json.RawMessage{}}
}

func (f *fakeDocStore) Get(_ context.Context, name string, v any) (bool, error) {
	raw, ok := f.data[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeDocStore) Set(_ context.Context, name string, value any) error {
	f.setCalls++
	if f.setCalls <= f.failSets {
		return errors.New("disk full")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[name] = raw
	return nil
}

func (f *fakeDocStore) seed(t *testing.T, doc any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	f.data[documentKey] = raw
}

func newTestStore(fake *fakeDocStore) *Store {
	s := NewStore(fake, nil)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestLoad_MissingDocument(t *testing.T) {
	s := newTestStore(newFakeDocStore())

	doc, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Empty(t, doc.CallLogs)
	assert.Empty(t, doc.CallCards)
	assert.NotNil(t, doc.Profile)
}

func TestLoad_MigratesV0(t *testing.T) {
	fake := newFakeDocStore()
	fake.seed(t, map[string]any{
		"callLogs": []map[string]any{
			{"id": "log-1", "leadId": "lead-1", "outcome": "follow-up", "createdAt": "2025-05-01T10:00:00Z"},
			{"id": "log-2", "leadId": "lead-2", "outcome": "no-answer"},
		},
		"battleCards": []map[string]any{
			{"id": "card-1", "leadId": "lead-1", "createdAt": "2025-05-01T10:00:00Z",
				"leadDetails": map[string]any{"companyName": "Acme", "contactName": "Pat"}},
		},
		"advancedMode": true,
	})
	s := newTestStore(fake)

	doc, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, doc.Version)
	require.Len(t, doc.CallLogs, 2)
	assert.Equal(t, "log-1", doc.CallLogs[0].ID)
	assert.False(t, doc.CallLogs[1].CreatedAt.IsZero(), "migration must default missing createdAt")
	require.Len(t, doc.CallCards, 1)
	assert.Equal(t, "Acme", doc.CallCards[0].LeadDetails.CompanyName)
	assert.True(t, doc.AdvancedMode)
}

func TestMigrate_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"battleCards": []any{
			map[string]any{"id": "card-1", "leadId": "lead-1"},
		},
	}

	once := migrate(raw, now)
	onceJSON, err := json.Marshal(once)
	require.NoError(t, err)

	twice := migrate(once, now)
	twiceJSON, err := json.Marshal(twice)
	require.NoError(t, err)

	assert.JSONEq(t, string(onceJSON), string(twiceJSON))
	assert.Equal(t, CurrentVersion, docVersion(twice))
	_, hasOld := twice["battleCards"]
	assert.False(t, hasOld)
}

func TestLoad_PartialRecovery(t *testing.T) {
	fake := newFakeDocStore()
	fake.seed(t, map[string]any{
		"version": CurrentVersion,
		"callLogs": []map[string]any{
			{"id": "log-1", "leadId": "lead-1", "outcome": "not-a-real-outcome", "createdAt": "2025-05-01T10:00:00Z"},
		},
		"callCards": []map[string]any{
			{"id": "card-1", "leadId": "lead-1", "createdAt": "2025-05-01T10:00:00Z"},
		},
		"salesWizardMode": true,
		"profile":         map[string]any{"name": "Jordan"},
	})
	s := newTestStore(fake)

	doc, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, doc.CallLogs, "invalid collection must be dropped")
	require.Len(t, doc.CallCards, 1, "valid collection must survive")
	assert.True(t, doc.SalesWizardMode)
	assert.Equal(t, "Jordan", doc.Profile["name"])
}

func TestSave_RoundTrip(t *testing.T) {
	fake := newFakeDocStore()
	s := newTestStore(fake)
	ctx := context.Background()

	active := "seq-1"
	doc := NewDocument()
	doc.CallLogs = []CallLog{{
		ID: "log-1", LeadID: "lead-1", Outcome: "meeting-booked",
		Notes: "asked for pricing", CreatedAt: s.now().Add(-time.Hour),
	}}
	doc.ActiveSequenceID = &active
	doc.AdvancedMode = true
	doc.Profile = map[string]any{"name": "Jordan"}

	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.CallLogs, 1)
	assert.Equal(t, "asked for pricing", got.CallLogs[0].Notes)
	require.NotNil(t, got.ActiveSequenceID)
	assert.Equal(t, "seq-1", *got.ActiveSequenceID)
	assert.True(t, got.AdvancedMode)
}

func TestSave_RetentionCapsCollections(t *testing.T) {
	fake := newFakeDocStore()
	s := newTestStore(fake)
	ctx := context.Background()

	doc := NewDocument()
	for i := 0; i < 1500; i++ {
		doc.CallLogs = append(doc.CallLogs, CallLog{
			ID:        fmt.Sprintf("log-%d", i),
			LeadID:    "lead-1",
			Outcome:   "no-answer",
			CreatedAt: s.now().Add(-time.Duration(i) * time.Minute),
		})
	}

	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.CallLogs, MaxItemsPerCollection)
	// Most recent entries survive; log-0 is newest, log-1499 oldest.
	assert.Equal(t, "log-0", got.CallLogs[0].ID)
	for _, l := range got.CallLogs {
		assert.True(t, l.CreatedAt.After(s.now().Add(-time.Duration(MaxItemsPerCollection)*time.Minute)))
	}
}

func TestSave_RetentionDropsStaleEncounters(t *testing.T) {
	fake := newFakeDocStore()
	s := newTestStore(fake)
	ctx := context.Background()

	doc := NewDocument()
	doc.CompetitiveEncounters = []Encounter{
		{ID: "fresh", Competitor: "Rival Inc", EncounteredAt: s.now().Add(-24 * time.Hour)},
		{ID: "stale", Competitor: "Rival Inc", EncounteredAt: s.now().Add(-EncounterRetention - time.Hour)},
	}

	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.CompetitiveEncounters, 1)
	assert.Equal(t, "fresh", got.CompetitiveEncounters[0].ID)
}

func TestSave_RetriesTransientFailure(t *testing.T) {
	fake := newFakeDocStore()
	fake.failSets = 1
	s := newTestStore(fake)
	ctx := context.Background()

	doc := NewDocument()
	doc.AdvancedMode = true

	require.NoError(t, s.Save(ctx, doc))
	assert.Equal(t, 2, fake.setCalls)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.AdvancedMode)
}

func TestSave_CriticalFallback(t *testing.T) {
	fake := newFakeDocStore()
	fake.failSets = saveAttempts
	s := newTestStore(fake)
	ctx := context.Background()

	doc := NewDocument()
	doc.CallLogs = []CallLog{{ID: "log-1", LeadID: "lead-1", Outcome: "follow-up", CreatedAt: s.now()}}
	doc.Profile = map[string]any{"name": "Jordan"}
	doc.AdvancedMode = true

	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.CallLogs, 1, "critical collections must survive the fallback")
	assert.False(t, got.AdvancedMode, "non-critical fields are not part of the fallback write")
	assert.Empty(t, got.Profile)
}

func TestSave_RejectsInvalidDocument(t *testing.T) {
	s := newTestStore(newFakeDocStore())

	doc := NewDocument()
	doc.CallLogs = []CallLog{{ID: "", Outcome: "follow-up", CreatedAt: s.now()}}

	err := s.Save(context.Background(), doc)
	require.Error(t, err)
}
