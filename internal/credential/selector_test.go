package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenEnvOverrideWins(t *testing.T) {
	path := writeTokenFile(t, "BEARER_TOKEN=from-file\n")
	t.Setenv("TEST_BEARER_OVERRIDE", "from-env")

	src := Source{Name: "test", EnvVar: "TEST_BEARER_OVERRIDE", Path: path}
	token, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "from-env" {
		t.Errorf("token = %q, want the environment override", token)
	}
}

func TestTokenFromFile(t *testing.T) {
	path := writeTokenFile(t, "# comment\nOTHER=ignored\nBEARER_TOKEN=abc=with=equals\n")

	src := Source{Name: "test", Path: path}
	token, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "abc=with=equals" {
		t.Errorf("token = %q, want value after the first equals sign", token)
	}
}

func TestTokenMissingFile(t *testing.T) {
	src := Source{Name: "test", Path: filepath.Join(t.TempDir(), "nope.env")}
	token, err := src.Token()
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}
}

func TestTokenFileWithoutKey(t *testing.T) {
	path := writeTokenFile(t, "SOMETHING=else\n")

	src := Source{Name: "test", Path: path}
	token, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}
}

func TestSelectorSkipsToFirstHealthyCredential(t *testing.T) {
	good := writeTokenFile(t, "BEARER_TOKEN=good\n")
	bad := writeTokenFile(t, "BEARER_TOKEN=revoked\n")

	sources := []Source{
		{Name: "empty", Path: filepath.Join(t.TempDir(), "nope.env")},
		{Name: "revoked", Path: bad},
		{Name: "good", Path: good},
	}

	var probed []string
	probe := func(ctx context.Context, token string) error {
		probed = append(probed, token)
		if token == "revoked" {
			return fmt.Errorf("probe: %w", domain.ErrUnauthorized)
		}
		return nil
	}

	selector := NewSelector(sources, probe, testLogger())
	cred, err := selector.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if cred.Token != "good" || cred.Source != "good" {
		t.Errorf("selected %+v, want the third source", cred)
	}

	// Sources without a token are skipped without probing.
	if len(probed) != 2 || probed[0] != "revoked" || probed[1] != "good" {
		t.Errorf("probed %v, want [revoked good]", probed)
	}
}

func TestSelectorExhaustion(t *testing.T) {
	sources := []Source{
		{Name: "one", Path: filepath.Join(t.TempDir(), "nope.env")},
	}
	probe := func(ctx context.Context, token string) error { return nil }

	selector := NewSelector(sources, probe, testLogger())
	if _, err := selector.Next(context.Background()); !errors.Is(err, domain.ErrNoValidCredential) {
		t.Errorf("Next() error = %v, want ErrNoValidCredential", err)
	}
}

func TestSelectorResumesAfterSuccess(t *testing.T) {
	first := writeTokenFile(t, "BEARER_TOKEN=first\n")
	second := writeTokenFile(t, "BEARER_TOKEN=second\n")

	sources := []Source{
		{Name: "first", Path: first},
		{Name: "second", Path: second},
	}
	probe := func(ctx context.Context, token string) error { return nil }

	selector := NewSelector(sources, probe, testLogger())

	cred, err := selector.Next(context.Background())
	if err != nil || cred.Source != "first" {
		t.Fatalf("first Next() = %+v, %v", cred, err)
	}

	// A later call, e.g. after a rate-limited search, moves on rather than
	// handing out the same credential again.
	cred, err = selector.Next(context.Background())
	if err != nil || cred.Source != "second" {
		t.Fatalf("second Next() = %+v, %v", cred, err)
	}

	if _, err := selector.Next(context.Background()); !errors.Is(err, domain.ErrNoValidCredential) {
		t.Errorf("third Next() error = %v, want ErrNoValidCredential", err)
	}
}

func TestDefaultSourcesOrder(t *testing.T) {
	t.Setenv("XTOKEN1_PATH", "/tmp/alt1.env")

	sources := DefaultSources()
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].EnvVar != "BEARER_TOKEN_1" || sources[1].EnvVar != "BEARER_TOKEN_2" {
		t.Errorf("env vars = %q, %q", sources[0].EnvVar, sources[1].EnvVar)
	}
	if sources[0].Path != "/tmp/alt1.env" {
		t.Errorf("path override ignored: %q", sources[0].Path)
	}
	if sources[1].Path != "xtoken2.env" {
		t.Errorf("default path = %q, want xtoken2.env", sources[1].Path)
	}
}
