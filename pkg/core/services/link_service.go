package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/tinylink/pkg/core/domain"
	"github.com/wadjakorntonsri/tinylink/pkg/core/shortcode"
	"github.com/wadjakorntonsri/tinylink/pkg/ports"
)

// maxGenerateAttempts bounds the generate-and-insert retry loop. With a
// 62^6 keyspace, exhausting it means something is wrong with the store.
const maxGenerateAttempts = 10

// clickWriteTimeout bounds the detached click accounting write, which has
// no caller left to cancel it.
const clickWriteTimeout = 5 * time.Second

type LinkService struct {
	repo ports.LinkRepository
}

func NewLinkService(repo ports.LinkRepository) *LinkService {
	return &LinkService{repo: repo}
}

// Create persists a new link. A supplied code must validate and be free;
// with no code, generation retries until the store's unique constraint
// accepts the insert. Validation happens before any store write.
func (s *LinkService) Create(ctx context.Context, targetURL, requestedCode string) (*domain.Link, error) {
	if err := validateTargetURL(targetURL); err != nil {
		return nil, err
	}

	if requestedCode != "" {
		if !shortcode.Validate(requestedCode) {
			return nil, domain.ErrInvalidCode
		}
		link := &domain.Link{
			Code:      requestedCode,
			TargetURL: targetURL,
			CreatedAt: time.Now().UTC(),
		}
		// The insert itself decides conflicts. A pre-check would leave a
		// race window between check and insert.
		if err := s.repo.Create(ctx, link); err != nil {
			return nil, err
		}
		return link, nil
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return nil, err
		}

		link := &domain.Link{
			Code:      code,
			TargetURL: targetURL,
			CreatedAt: time.Now().UTC(),
		}
		err = s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrCodeTaken) {
			return nil, err
		}
	}

	log.Error().Str("op", "create").Int("attempts", maxGenerateAttempts).Msg("code generation retries exhausted")
	return nil, domain.ErrCodeSpaceExhausted
}

func (s *LinkService) Get(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domain.ErrNotFound
	}
	return link, nil
}

func (s *LinkService) List(ctx context.Context) ([]domain.Link, error) {
	return s.repo.List(ctx)
}

func (s *LinkService) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, code)
}

// ResolveAndRecord looks up the target URL for a code and, on a hit,
// records the click without delaying the caller. A miss mutates nothing.
func (s *LinkService) ResolveAndRecord(ctx context.Context, code string) (string, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if link == nil {
		return "", domain.ErrNotFound
	}

	// Detached from the request: the redirect must not wait for the
	// accounting write, and the request context will be cancelled as soon
	// as the response is sent.
	go func() {
		clickCtx, cancel := context.WithTimeout(context.Background(), clickWriteTimeout)
		defer cancel()

		if err := s.repo.RecordClick(clickCtx, code, time.Now().UTC()); err != nil {
			log.Error().Err(err).Str("op", "record_click").Str("code", code).Msg("click accounting failed")
		}
	}()

	return link.TargetURL, nil
}

func validateTargetURL(raw string) error {
	if raw == "" {
		return domain.ErrInvalidURL
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return domain.ErrInvalidURL
	}
	if u.Scheme == "" || u.Host == "" {
		return domain.ErrInvalidURL
	}
	return nil
}

var _ ports.LinkService = (*LinkService)(nil)
