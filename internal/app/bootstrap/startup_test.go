package bootstrap

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "teamline_test",
		SessionKey:            "test-session-key-0123456789ABCDEFGH",
		SessionName:           "teamline-session",
		SessionMaxAge:         720 * time.Hour,
		PresenceSweepInterval: time.Minute,
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	if err := ValidateConfig(nil, validAppConfig(), testLogger()); err != nil {
		t.Fatalf("ValidateConfig rejected valid config: %v", err)
	}
}

func TestValidateConfig_RejectsBadURI(t *testing.T) {
	cfg := validAppConfig()
	cfg.MongoURI = "http://not-a-mongo-uri"

	if err := ValidateConfig(nil, cfg, testLogger()); err == nil {
		t.Fatal("expected error for non-mongodb URI")
	}
}

func TestValidateConfig_RejectsWeakSessionKey(t *testing.T) {
	cfg := validAppConfig()
	cfg.SessionKey = "short"

	err := ValidateConfig(nil, cfg, testLogger())
	if err == nil {
		t.Fatal("expected error for weak session key")
	}
	if !strings.Contains(err.Error(), "session_key") {
		t.Errorf("error should name session_key, got %v", err)
	}
}

func TestValidateConfig_RejectsTinySweepInterval(t *testing.T) {
	cfg := validAppConfig()
	cfg.PresenceSweepInterval = 100 * time.Millisecond

	if err := ValidateConfig(nil, cfg, testLogger()); err == nil {
		t.Fatal("expected error for sub-second sweep interval")
	}
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins(" http://localhost:3000 ,, https://teamline.example.com ")
	want := []string{"http://localhost:3000", "https://teamline.example.com"}

	if len(got) != len(want) {
		t.Fatalf("splitOrigins returned %d entries, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
