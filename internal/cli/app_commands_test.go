package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campbellco/wolfden/internal/auth"
	"github.com/campbellco/wolfden/internal/config"
	"github.com/campbellco/wolfden/internal/cryptox"
	"github.com/campbellco/wolfden/internal/csrf"
	"github.com/campbellco/wolfden/internal/keystore"
	"github.com/campbellco/wolfden/internal/logging"
	"github.com/campbellco/wolfden/internal/password"
	"github.com/campbellco/wolfden/internal/securestore"
	"github.com/campbellco/wolfden/internal/state"
	"github.com/campbellco/wolfden/internal/storage"
)

const strongPassword = "Str0ng!Passw0rd123"

// newTestApp wires a complete app over in-memory stores, skipping SQLite.
func newTestApp(t *testing.T) *App {
	t.Helper()

	log := logging.NewDiscard()
	durable := storage.NewMemoryStore()
	keys := keystore.NewManager(durable)
	secure := securestore.New(durable, keys, log)

	ephemeral := storage.NewMemoryStore()
	guard := csrf.NewGuard(ephemeral)

	hasher := password.NewHasher(cryptox.PBKDF2SHA256{Iterations: 16})
	creds := auth.NewSecureCredentialRepository(secure)
	authn := auth.New(creds, hasher, guard, ephemeral, keys, log)

	return &App{
		config: &config.Config{},
		auth:   authn,
		state:  state.NewStore(secure, log),
		log:    log,
		reader: bufio.NewReader(strings.NewReader("")),
		now:    func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

// stubInputs replaces the interactive input seams. Text prompts are answered
// in order; the password is returned as a fresh copy on every call since
// handlers wipe it.
func stubInputs(t *testing.T, texts []string, pw string) func() {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(texts) {
			return "", errors.New("unexpected prompt")
		}
		s := texts[i]
		i++
		return s, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) {
		return []byte(pw), nil
	}
	return func() {
		getSimpleText = origST
		getPassword = origGP
	}
}

func TestRegister_CreatesSessionAndAccount(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	defer restore()

	require.NoError(t, a.Register(ctx))
	assert.True(t, a.isLoggedIn(ctx))
	assert.Equal(t, "wolf@den.io", a.promptName(ctx))
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, "short")
	defer restore()

	err := a.Register(ctx)
	var weak *auth.WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.False(t, a.isLoggedIn(ctx))
}

func TestLoginLogout_Flow(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	require.NoError(t, a.Register(ctx))
	restore()

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn(ctx))

	restore = stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	defer restore()
	require.NoError(t, a.Login(ctx))
	assert.True(t, a.isLoggedIn(ctx))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"nobody@den.io"}, strongPassword)
	defer restore()

	err := a.Login(ctx)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.False(t, a.isLoggedIn(ctx))
}

func TestLogCall_AppendsToState(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	require.NoError(t, a.Register(ctx))
	restore()

	restore = stubInputs(t, []string{"Acme Corp", "follow-up"}, "")
	defer restore()
	a.reader = bufio.NewReader(strings.NewReader("asked about pricing\n\n"))

	require.NoError(t, a.LogCall(ctx))

	doc, err := a.state.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.CallLogs, 1)
	l := doc.CallLogs[0]
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "Acme Corp", l.LeadID)
	assert.Equal(t, "follow-up", l.Outcome)
	assert.Equal(t, "asked about pricing", l.Notes)
	assert.Equal(t, a.now(), l.CreatedAt)
}

func TestLogCall_RequiresLogin(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.LogCall(ctx))

	doc, err := a.state.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.CallLogs)
}

func TestLogCall_RejectsUnknownOutcome(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	require.NoError(t, a.Register(ctx))
	restore()

	restore = stubInputs(t, []string{"Acme Corp", "crushed-it"}, "")
	defer restore()

	require.NoError(t, a.LogCall(ctx))

	doc, err := a.state.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.CallLogs)
}

func TestMode_Toggles(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	require.NoError(t, a.Register(ctx))
	restore()

	require.NoError(t, a.Mode(ctx, []string{"advanced"}))
	doc, err := a.state.Load(ctx)
	require.NoError(t, err)
	assert.True(t, doc.AdvancedMode)
	assert.False(t, doc.SalesWizardMode)

	require.NoError(t, a.Mode(ctx, []string{"advanced"}))
	doc, err = a.state.Load(ctx)
	require.NoError(t, err)
	assert.False(t, doc.AdvancedMode)
}

func TestProfile_SetAndPersist(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	restore := stubInputs(t, []string{"wolf@den.io"}, strongPassword)
	require.NoError(t, a.Register(ctx))
	restore()

	require.NoError(t, a.Profile(ctx, []string{"name", "Jordan", "Wolfe"}))

	doc, err := a.state.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Wolfe", doc.Profile["name"])
}
