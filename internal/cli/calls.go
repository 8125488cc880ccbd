package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/campbellco/wolfden/internal/state"
)

// LogCall records the outcome of a dialed call into the encrypted state
// document. Requires a logged-in session.
func (a *App) LogCall(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		fmt.Println("Log in first.")
		return nil
	}

	leadID, err := getSimpleText(a.reader, "Lead (company or contact)", os.Stdout)
	if err != nil {
		return err
	}

	outcome, err := getSimpleText(a.reader,
		"Outcome ("+strings.Join(state.Outcomes, ", ")+")", os.Stdout)
	if err != nil {
		return err
	}
	if !state.ValidOutcome(outcome) {
		fmt.Println("Unknown outcome:", outcome)
		return nil
	}

	notes, err := GetMultiline(a.reader, "Notes", os.Stdout)
	if err != nil {
		return err
	}

	doc, err := a.state.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "loading state failed", "error", err)
		return err
	}

	doc.CallLogs = append(doc.CallLogs, state.CallLog{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		Outcome:   outcome,
		Notes:     notes,
		CreatedAt: a.now(),
	})

	if err := a.state.Save(ctx, doc); err != nil {
		a.log.Error(ctx, "saving state failed", "error", err)
		return err
	}

	fmt.Println("Call logged.")
	return nil
}

// ListCalls prints the most recent call logs, newest last.
func (a *App) ListCalls(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		fmt.Println("Log in first.")
		return nil
	}

	doc, err := a.state.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "loading state failed", "error", err)
		return err
	}

	if len(doc.CallLogs) == 0 {
		fmt.Println("No calls logged yet.")
		return nil
	}

	for _, l := range doc.CallLogs {
		line := fmt.Sprintf("%s  %-15s  %s", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Outcome, l.LeadID)
		if l.Notes != "" {
			line += "  | " + firstLine(l.Notes)
		}
		fmt.Println(line)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
