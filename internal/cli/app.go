// Package cli implements the interactive Wolf Den shell: account
// registration and login, call logging, and state inspection over the
// encrypted local store.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"
	"time"

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

	_ "modernc.org/sqlite"
)

// App wires the subsystem together for interactive use. Durable data lives
// in the SQLite-backed encrypted store; session descriptors and CSRF tokens
// stay in a memory store that dies with the process.
type App struct {
	config *config.Config
	auth   *auth.Authenticator
	state  *state.Store
	log    logging.Logger
	reader *bufio.Reader
	db     *sql.DB

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.NewDiscard()
	}

	db, durable, err := storage.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	keys := keystore.NewManager(durable)
	secure := securestore.New(durable, keys, log)

	ephemeral := storage.NewMemoryStore()
	guard := csrf.NewGuard(ephemeral)

	hasher := password.NewHasher(cryptox.PBKDF2SHA256{Iterations: cfg.KDFIterations})
	creds := auth.NewSecureCredentialRepository(secure)

	authenticator := auth.New(creds, hasher, guard, ephemeral, keys, log,
		auth.WithSessionTTL(cfg.SessionTTL))

	return &App{
		config: cfg,
		auth:   authenticator,
		state:  state.NewStore(secure, log),
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		db:     db,
		now:    time.Now,
	}, nil
}

// Run starts the interactive shell and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	sess, err := a.auth.CurrentSession(ctx)
	return err == nil && sess != nil
}
