package credential

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// tokenKey is the key looked for in .env-style token files.
const tokenKey = "BEARER_TOKEN"

// Source is one place a bearer token may come from: an environment variable
// override consulted first, then a .env-style file with a BEARER_TOKEN= line.
type Source struct {
	// Name identifies the source in logs.
	Name string

	// EnvVar is the environment override, checked before the file.
	EnvVar string

	// Path is the fallback token file for non-managed environments.
	Path string
}

// Token resolves the bearer token for this source. A source that simply has
// no token (unset variable, missing file, file without the key) yields an
// empty string and no error; errors are reserved for unreadable files.
func (s Source) Token() (string, error) {
	if s.EnvVar != "" {
		if v := os.Getenv(s.EnvVar); v != "" {
			return v, nil
		}
	}
	if s.Path == "" {
		return "", nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open token file %s: %w", s.Path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, tokenKey+"=") {
			continue
		}
		if token := strings.TrimPrefix(line, tokenKey+"="); token != "" {
			return token, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read token file %s: %w", s.Path, err)
	}
	return "", nil
}

// DefaultSources mirrors the deployment's two-token setup: BEARER_TOKEN_1
// and BEARER_TOKEN_2 from the environment, each falling back to a local
// token file whose path can itself be overridden.
func DefaultSources() []Source {
	return []Source{
		{Name: "token-1", EnvVar: "BEARER_TOKEN_1", Path: envOrDefault("XTOKEN1_PATH", "xtoken1.env")},
		{Name: "token-2", EnvVar: "BEARER_TOKEN_2", Path: envOrDefault("XTOKEN2_PATH", "xtoken2.env")},
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
