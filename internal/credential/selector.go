package credential

import (
	"context"
	"log/slog"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

// Probe reports whether a token can make an authenticated read against the
// upstream API.
type Probe func(ctx context.Context, token string) error

// Selector walks an ordered list of credential sources, handing out the next
// one that loads and passes the probe. It implements
// domain.CredentialSelector and is consumed within a single run: each call
// to Next resumes where the previous one left off.
type Selector struct {
	sources []Source
	probe   Probe
	logger  *slog.Logger
	next    int
}

// NewSelector creates a selector over the given sources.
func NewSelector(sources []Source, probe Probe, logger *slog.Logger) *Selector {
	return &Selector{
		sources: sources,
		probe:   probe,
		logger:  logger,
	}
}

// Next returns the next credential whose probe succeeds. Sources without a
// token are skipped without probing; probe failures are logged as warnings
// and skipped. Exhaustion returns domain.ErrNoValidCredential.
func (s *Selector) Next(ctx context.Context) (domain.Credential, error) {
	for s.next < len(s.sources) {
		src := s.sources[s.next]
		s.next++

		token, err := src.Token()
		if err != nil {
			s.logger.Warn("credential source unreadable, skipping", "source", src.Name, "error", err)
			continue
		}
		if token == "" {
			s.logger.Warn("credential source has no token, skipping", "source", src.Name)
			continue
		}

		if err := s.probe(ctx, token); err != nil {
			s.logger.Warn("credential failed liveness probe, skipping", "source", src.Name, "error", err)
			continue
		}

		return domain.Credential{Token: token, Source: src.Name}, nil
	}
	return domain.Credential{}, domain.ErrNoValidCredential
}
