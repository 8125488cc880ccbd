package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Profile shows the current profile, or updates one field when called as
// "profile <name> <value>".
func (a *App) Profile(ctx context.Context, args []string) error {
	if !a.isLoggedIn(ctx) {
		fmt.Println("Log in first.")
		return nil
	}

	doc, err := a.state.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "loading state failed", "error", err)
		return err
	}

	if len(args) == 0 {
		if len(doc.Profile) == 0 {
			fmt.Println("Profile is empty. Set a field with: profile <name> <value>")
			return nil
		}
		names := make([]string, 0, len(doc.Profile))
		for k := range doc.Profile {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Printf("%s: %v\n", k, doc.Profile[k])
		}
		return nil
	}

	if len(args) < 2 {
		fmt.Println("Usage: profile <name> <value>")
		return nil
	}

	name, value := args[0], strings.Join(args[1:], " ")
	doc.Profile[name] = value
	if err := a.auth.UpdateProfile(ctx, map[string]any{name: value}); err != nil {
		a.log.Error(ctx, "updating account profile failed", "error", err)
		return err
	}
	if err := a.state.Save(ctx, doc); err != nil {
		a.log.Error(ctx, "saving state failed", "error", err)
		return err
	}

	fmt.Printf("Profile updated: %s = %s\n", name, value)
	return nil
}

// Mode toggles feature modes: "mode advanced" or "mode wizard" flips the
// flag; bare "mode" prints both.
func (a *App) Mode(ctx context.Context, args []string) error {
	if !a.isLoggedIn(ctx) {
		fmt.Println("Log in first.")
		return nil
	}

	doc, err := a.state.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "loading state failed", "error", err)
		return err
	}

	if len(args) == 0 {
		fmt.Printf("advanced: %v\nwizard: %v\n", doc.AdvancedMode, doc.SalesWizardMode)
		return nil
	}

	switch args[0] {
	case "advanced":
		doc.AdvancedMode = !doc.AdvancedMode
		fmt.Printf("Advanced mode: %v\n", doc.AdvancedMode)
	case "wizard":
		doc.SalesWizardMode = !doc.SalesWizardMode
		fmt.Printf("Sales wizard mode: %v\n", doc.SalesWizardMode)
	default:
		fmt.Println("Usage: mode [advanced|wizard]")
		return nil
	}

	if err := a.state.Save(ctx, doc); err != nil {
		a.log.Error(ctx, "saving state failed", "error", err)
		return err
	}
	return nil
}

// used to keep the prompt informative without another session round trip
func (a *App) promptName(ctx context.Context) string {
	sess, err := a.auth.CurrentSession(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.UserID
}
