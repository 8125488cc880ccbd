package state

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/campbellco/wolfden/internal/logging"
)

const (
	documentKey = "wolf-den-storage"

	// MaxItemsPerCollection caps callLogs and callCards at the most recent
	// entries; older ones are dropped on save.
	MaxItemsPerCollection = 1000

	// EncounterRetention bounds how long competitive encounters are kept.
	EncounterRetention = 90 * 24 * time.Hour

	saveAttempts = 3
	saveBackoff  = 50 * time.Millisecond
)

// DocumentStore is the encrypted keyed storage the state document lives in.
type DocumentStore interface {
	Get(ctx context.Context, name string, v any) (bool, error)
	Set(ctx context.Context, name string, value any) error
}

// Store loads and saves the application-state document, applying schema
// migration and per-collection recovery on the way in, and retention policy
// with bounded write retries on the way out.
type Store struct {
	store DocumentStore
	log   logging.Logger
	now   func() time.Time
}

func NewStore(store DocumentStore, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Store{store: store, log: log, now: time.Now}
}

// Load reads the persisted document. A missing document yields an empty one
// at the current version. Stored data is migrated to the current schema and
// validated; when validation fails the document is rebuilt collection by
// collection, keeping whatever decodes and validates and dropping the rest.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	var raw map[string]any
	found, err := s.store.Get(ctx, documentKey, &raw)
	if err != nil {
		return nil, err
	}
	if !found || raw == nil {
		return NewDocument(), nil
	}

	raw = migrate(raw, s.now())

	data, err := json.Marshal(raw)
	if err != nil {
		s.log.Warn(ctx, "state document unreadable, starting fresh", "error", err)
		return NewDocument(), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil {
		doc.normalize()
		if doc.validate() == nil {
			return &doc, nil
		}
	}

	s.log.Warn(ctx, "state document failed validation, recovering collections")
	return s.recover(ctx, raw), nil
}

// recover rebuilds a document from raw fields one collection at a time.
// Collections that fail to decode or validate are replaced with empty ones.
func (s *Store) recover(ctx context.Context, raw map[string]any) *Document {
	doc := NewDocument()

	if ok := decodeField(raw, "callLogs", &doc.CallLogs); ok && validateCallLogs(doc.CallLogs) != nil {
		doc.CallLogs = doc.CallLogs[:0]
		s.log.Warn(ctx, "dropping invalid collection", "collection", "callLogs")
	}
	if ok := decodeField(raw, "callCards", &doc.CallCards); ok && validateCallCards(doc.CallCards) != nil {
		doc.CallCards = doc.CallCards[:0]
		s.log.Warn(ctx, "dropping invalid collection", "collection", "callCards")
	}
	decodeField(raw, "callSequences", &doc.CallSequences)
	decodeField(raw, "activeSequenceId", &doc.ActiveSequenceID)
	decodeField(raw, "advancedMode", &doc.AdvancedMode)
	decodeField(raw, "salesWizardMode", &doc.SalesWizardMode)
	decodeField(raw, "profile", &doc.Profile)
	if ok := decodeField(raw, "competitiveEncounters", &doc.CompetitiveEncounters); ok && validateEncounters(doc.CompetitiveEncounters) != nil {
		doc.CompetitiveEncounters = doc.CompetitiveEncounters[:0]
		s.log.Warn(ctx, "dropping invalid collection", "collection", "competitiveEncounters")
	}

	doc.normalize()
	return doc
}

// decodeField decodes one raw field into dst, leaving dst untouched when the
// field is absent or does not decode.
func decodeField[T any](raw map[string]any, name string, dst *T) bool {
	v, ok := raw[name]
	if !ok || v == nil {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return false
	}
	*dst = out
	return true
}

// Save applies retention policy and writes the document, retrying transient
// failures. When all attempts fail it falls back to writing only the
// critical collections (call logs and call cards) so work is not lost.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	doc.Version = CurrentVersion
	doc.normalize()
	s.applyRetention(doc)
	if err := doc.validate(); err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(saveAttempts-1, retry.NewConstant(saveBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(s.store.Set(ctx, documentKey, doc))
	})
	if err == nil {
		return nil
	}

	s.log.Error(ctx, "state save failed, writing critical collections only", "error", err)
	critical := NewDocument()
	critical.CallLogs = doc.CallLogs
	critical.CallCards = doc.CallCards
	if cerr := s.store.Set(ctx, documentKey, critical); cerr != nil {
		return err
	}
	return nil
}

// applyRetention trims capped collections to the most recent entries and
// drops encounters older than the retention horizon.
func (s *Store) applyRetention(doc *Document) {
	doc.CallLogs = trimCallLogs(doc.CallLogs)
	doc.CallCards = trimCallCards(doc.CallCards)

	horizon := s.now().Add(-EncounterRetention)
	kept := doc.CompetitiveEncounters[:0]
	for _, e := range doc.CompetitiveEncounters {
		if e.EncounteredAt.After(horizon) {
			kept = append(kept, e)
		}
	}
	doc.CompetitiveEncounters = kept
}

func trimCallLogs(logs []CallLog) []CallLog {
	if len(logs) <= MaxItemsPerCollection {
		return logs
	}
	sorted := make([]CallLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted[:MaxItemsPerCollection]
}

func trimCallCards(cards []CallCard) []CallCard {
	if len(cards) <= MaxItemsPerCollection {
		return cards
	}
	sorted := make([]CallCard, len(cards))
	copy(sorted, cards)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted[:MaxItemsPerCollection]
}
