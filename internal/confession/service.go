package confession

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/sujalbistaa/confessly/internal/models"
	"github.com/sujalbistaa/confessly/internal/store"
)

// Submission length bounds, in runes, applied to trimmed text.
// Admin edits bypass them.
const (
	MinTextLength = 10
	MaxTextLength = 255
)

// Service carries the confession lifecycle: submission, voting,
// listing and moderation. All persistence goes through the store.
type Service struct {
	store store.ConfessionStore
}

func NewService(s store.ConfessionStore) *Service {
	return &Service{store: s}
}

// Submit validates and stores a new confession. The submitter metadata
// is best-effort and stored verbatim. New confessions start at score 1
// and unarchived.
func (s *Service) Submit(ctx context.Context, text, ipAddress, userAgent string) (*models.Confession, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < MinTextLength || n > MaxTextLength {
		return nil, &ValidationError{Reason: "Confession length should be between 10 and 255!"}
	}

	c := &models.Confession{
		Text:      text,
		Score:     1,
		Archived:  false,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Uint("id", c.ID).Msg("confession submitted")
	return c, nil
}

// Vote applies one unit of score change. token must be "1" or "-1";
// anything else fails before the store is touched. The new score is not
// returned: clients update their displayed score optimistically.
func (s *Service) Vote(ctx context.Context, id uint, token string) error {
	var delta int
	switch token {
	case "1":
		delta = 1
	case "-1":
		delta = -1
	default:
		return ErrInvalidVote
	}

	if err := s.store.AddScore(ctx, id, delta); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListPublic returns non-archived confessions, newest first, or by
// score descending when sort is "vote".
func (s *Service) ListPublic(ctx context.Context, sort string) ([]models.Confession, error) {
	order := store.OrderByCreatedAt
	if sort == "vote" {
		order = store.OrderByScore
	}
	archived := false
	return s.store.List(ctx, store.ListQuery{Archived: &archived, OrderBy: order})
}

// GetPublic returns a confession for public display. Archived records
// are reported as not found.
func (s *Service) GetPublic(ctx context.Context, id uint) (*models.Confession, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.Archived {
		return nil, ErrNotFound
	}
	return c, nil
}

// ListAll returns every confession, archived included, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.Confession, error) {
	return s.store.List(ctx, store.ListQuery{OrderBy: store.OrderByCreatedAt})
}

// Get returns a confession regardless of archived state (admin views).
func (s *Service) Get(ctx context.Context, id uint) (*models.Confession, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateInput is a partial admin edit. Nil pointer fields are left
// unchanged. Archived is a plain bool on purpose: the edit form sends
// the checkbox only when ticked, so an absent value means false, not
// "keep the current value".
type UpdateInput struct {
	Text      *string
	Score     *int
	Archived  bool
	IPAddress *string
	UserAgent *string
}

// AdminUpdate applies in verbatim, with no length re-check on Text.
func (s *Service) AdminUpdate(ctx context.Context, id uint, in UpdateInput) error {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if in.Text != nil {
		c.Text = *in.Text
	}
	if in.Score != nil {
		c.Score = *in.Score
	}
	if in.IPAddress != nil {
		c.IPAddress = *in.IPAddress
	}
	if in.UserAgent != nil {
		c.UserAgent = *in.UserAgent
	}
	c.Archived = in.Archived

	if err := s.store.Save(ctx, c); err != nil {
		return err
	}
	log.Info().Uint("id", id).Bool("archived", c.Archived).Msg("confession edited")
	return nil
}

// AdminDelete removes a confession permanently. Ids are never reused;
// the table's autoincrement key keeps counting past deletions.
func (s *Service) AdminDelete(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	log.Info().Uint("id", id).Msg("confession deleted")
	return nil
}

// ArchiveLowScores walks every live confession, highest score first,
// and archives the ones at or below threshold. Re-running it with no
// newly qualifying records is a no-op. Returns how many were archived.
func (s *Service) ArchiveLowScores(ctx context.Context, threshold int) (int, error) {
	archived := false
	live, err := s.store.List(ctx, store.ListQuery{Archived: &archived, OrderBy: store.OrderByScore})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, c := range live {
		if c.Score > threshold {
			continue
		}
		if err := s.store.SetArchived(ctx, c.ID, true); err != nil {
			// Deleted between list and update; nothing to archive.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return n, err
		}
		log.Info().Uint("id", c.ID).Int("score", c.Score).Msg("archived low-score confession")
		n++
	}
	return n, nil
}
