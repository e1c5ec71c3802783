package factory

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/services/auth"
	"github.com/mcoot/wordduel/internal/services/duel"
	"github.com/mcoot/wordduel/internal/storage/memory"
	"github.com/mcoot/wordduel/internal/testutil"
	"github.com/mcoot/wordduel/internal/transport"
)

// TestPassword is the shared secret of every TestApp
const TestPassword = "letmein"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The game listener uses a unix socket in a temporary directory and logs go to t.
func NewTestApp(t testing.TB) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.Password = TestPassword
	authCfg.HashCost = bcrypt.MinCost

	transportCfg := transport.DefaultConfig()
	transportCfg.SocketPath = filepath.Join(t.TempDir(), "wordduel.sock")
	transportCfg.ShutdownTimeout = 2 * time.Second

	app, err := newWithDependencies(store, mockClock, mockRandom, authCfg, duel.DefaultConfig(), transportCfg, testutil.TestLogger(t))
	if err != nil {
		t.Fatalf("wire test app: %v", err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
