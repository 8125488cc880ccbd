// Package state persists the versioned application-state document: call
// logs, generated call cards, sequences, feature-mode flags, profile, and
// competitive-intelligence encounters. Documents are validated and migrated
// on load, and trimmed by retention policy before every write.
package state

import (
	"fmt"
	"time"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 1

// Outcomes enumerates the accepted call outcomes, in display order.
var Outcomes = []string{
	"meeting-booked",
	"follow-up",
	"left-voicemail",
	"no-answer",
	"not-interested",
	"call-back-later",
	"nurture",
	"disqualified",
}

var validOutcomes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Outcomes))
	for _, o := range Outcomes {
		m[o] = struct{}{}
	}
	return m
}()

// ValidOutcome reports whether s is an accepted call outcome.
func ValidOutcome(s string) bool {
	_, ok := validOutcomes[s]
	return ok
}

// CallLog is one dialed call and its outcome.
type CallLog struct {
	ID             string         `json:"id"`
	LeadID         string         `json:"leadId"`
	Outcome        string         `json:"outcome"`
	Notes          string         `json:"notes,omitempty"`
	Intel          string         `json:"intel,omitempty"`
	KeyTakeaway    string         `json:"keyTakeaway,omitempty"`
	SequenceID     string         `json:"sequenceId,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	AdditionalInfo map[string]any `json:"additionalInfo,omitempty"`
}

// CardContent is one prepared talking block on a call card.
type CardContent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Persona string `json:"persona,omitempty"`
}

// LeadDetails identifies who a call card was generated for.
type LeadDetails struct {
	CompanyName string `json:"companyName"`
	ContactName string `json:"contactName"`
	Industry    string `json:"industry,omitempty"`
	Persona     string `json:"persona,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// CallCard is a generated pre-call briefing.
type CallCard struct {
	ID          string        `json:"id"`
	LeadID      string        `json:"leadId"`
	CreatedAt   time.Time     `json:"createdAt"`
	Content     []CardContent `json:"content"`
	LeadDetails LeadDetails   `json:"leadDetails"`
}

// Encounter is a competitive-intelligence sighting; time-boxed by retention.
type Encounter struct {
	ID            string    `json:"id"`
	Competitor    string    `json:"competitor"`
	Context       string    `json:"context,omitempty"`
	EncounteredAt time.Time `json:"encounteredAt"`
}

// Document is the whole persisted application state. Collections are
// defaulted to empty on load; unknown fields are dropped rather than fatal.
type Document struct {
	Version               int              `json:"version"`
	CallLogs              []CallLog        `json:"callLogs"`
	CallCards             []CallCard       `json:"callCards"`
	CallSequences         []map[string]any `json:"callSequences"`
	ActiveSequenceID      *string          `json:"activeSequenceId"`
	AdvancedMode          bool             `json:"advancedMode"`
	SalesWizardMode       bool             `json:"salesWizardMode"`
	Profile               map[string]any   `json:"profile"`
	CompetitiveEncounters []Encounter      `json:"competitiveEncounters"`
}

// NewDocument returns an empty document at the current version.
func NewDocument() *Document {
	return &Document{
		Version:               CurrentVersion,
		CallLogs:              []CallLog{},
		CallCards:             []CallCard{},
		CallSequences:         []map[string]any{},
		Profile:               map[string]any{},
		CompetitiveEncounters: []Encounter{},
	}
}

// normalize fills nil collections so consumers never see nil slices/maps.
func (d *Document) normalize() {
	if d.CallLogs == nil {
		d.CallLogs = []CallLog{}
	}
	if d.CallCards == nil {
		d.CallCards = []CallCard{}
	}
	if d.CallSequences == nil {
		d.CallSequences = []map[string]any{}
	}
	if d.Profile == nil {
		d.Profile = map[string]any{}
	}
	if d.CompetitiveEncounters == nil {
		d.CompetitiveEncounters = []Encounter{}
	}
}

// validate checks the document invariants after load/before save.
func (d *Document) validate() error {
	if d.Version != CurrentVersion {
		return fmt.Errorf("unexpected version %d, want %d", d.Version, CurrentVersion)
	}
	if err := validateCallLogs(d.CallLogs); err != nil {
		return err
	}
	if err := validateCallCards(d.CallCards); err != nil {
		return err
	}
	return validateEncounters(d.CompetitiveEncounters)
}

func validateCallLogs(logs []CallLog) error {
	for i, l := range logs {
		if l.ID == "" {
			return fmt.Errorf("callLogs[%d]: missing id", i)
		}
		if _, ok := validOutcomes[l.Outcome]; !ok {
			return fmt.Errorf("callLogs[%d]: invalid outcome %q", i, l.Outcome)
		}
		if l.CreatedAt.IsZero() {
			return fmt.Errorf("callLogs[%d]: missing createdAt", i)
		}
	}
	return nil
}

func validateCallCards(cards []CallCard) error {
	for i, c := range cards {
		if c.ID == "" {
			return fmt.Errorf("callCards[%d]: missing id", i)
		}
		if c.CreatedAt.IsZero() {
			return fmt.Errorf("callCards[%d]: missing createdAt", i)
		}
	}
	return nil
}

func validateEncounters(encounters []Encounter) error {
	for i, e := range encounters {
		if e.ID == "" {
			return fmt.Errorf("competitiveEncounters[%d]: missing id", i)
		}
		if e.EncounteredAt.IsZero() {
			return fmt.Errorf("competitiveEncounters[%d]: missing encounteredAt", i)
		}
	}
	return nil
}
