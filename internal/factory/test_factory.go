package factory

import (
	"time"

	"github.com/mcoot/scoresnap/internal/config"
	"github.com/mcoot/scoresnap/internal/dependencies/mocks"
	"github.com/mcoot/scoresnap/internal/metrics"
	"github.com/mcoot/scoresnap/internal/storage/memory"
	"github.com/mcoot/scoresnap/internal/testutil"
	"github.com/mcoot/scoresnap/internal/vision"
)

// TestJWTSecret signs tokens issued by test apps
const TestJWTSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
	Memory    *memory.Storage
}

// TestConfig returns the default configuration with a test signing secret
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = TestJWTSecret
	return cfg
}

// NewTestApp creates an App backed by memory storage with mocked time and ids
func NewTestApp() *TestApp {
	return NewTestAppWithExtractor(nil)
}

// NewTestAppWithExtractor is NewTestApp with image uploads served by extractor
func NewTestAppWithExtractor(extractor vision.Extractor) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()

	app := newWithDependencies(TestConfig(), store, mockClock, mockIDs, metrics.New(), extractor, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
		Memory:    store,
	}
}
