package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/notekeeper/notekeeper/internal/server/config"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repotest"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newFakeRepoManager() *repotest.Manager { return repotest.NewManager() }

// --- hasher ---

type fakeHasher struct {
	dummyCalls int
	hashErr    error
}

func (h *fakeHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + plaintext, nil
}

func (h *fakeHasher) Verify(ctx context.Context, plaintext, digest string) bool {
	return digest == "hashed:"+plaintext
}

func (h *fakeHasher) DummyVerify(ctx context.Context, plaintext string) { h.dummyCalls++ }
