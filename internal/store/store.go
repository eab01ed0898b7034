package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sujalbistaa/confessly/internal/models"
)

// ErrNotFound is returned when an id does not match any confession.
// Updates and deletes report it from a zero-rows-affected result rather
// than a prior existence check.
var ErrNotFound = errors.New("confession not found")

// OrderBy selects the primary sort column for List. Ties are always
// broken by id ascending, i.e. insertion order.
type OrderBy int

const (
	OrderByCreatedAt OrderBy = iota
	OrderByScore
)

// ListQuery narrows and orders a List call. A nil Archived matches
// every record.
type ListQuery struct {
	Archived *bool
	OrderBy  OrderBy
}

// ConfessionStore is the persistence boundary for confessions.
type ConfessionStore interface {
	Create(ctx context.Context, c *models.Confession) error
	GetByID(ctx context.Context, id uint) (*models.Confession, error)
	List(ctx context.Context, q ListQuery) ([]models.Confession, error)
	// AddScore applies delta as a single atomic column update so that
	// concurrent votes on one confession never lose an increment.
	AddScore(ctx context.Context, id uint, delta int) error
	Save(ctx context.Context, c *models.Confession) error
	SetArchived(ctx context.Context, id uint, archived bool) error
	Delete(ctx context.Context, id uint) error
}

type gormStore struct {
	db *gorm.DB
}

// New returns a ConfessionStore backed by the given GORM handle.
func New(db *gorm.DB) ConfessionStore {
	return &gormStore{db: db}
}

// Migrate creates or updates the confessions table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Confession{})
}

func (s *gormStore) Create(ctx context.Context, c *models.Confession) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create confession: %w", err)
	}
	return nil
}

func (s *gormStore) GetByID(ctx context.Context, id uint) (*models.Confession, error) {
	var c models.Confession
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get confession %d: %w", id, err)
	}
	return &c, nil
}

func (s *gormStore) List(ctx context.Context, q ListQuery) ([]models.Confession, error) {
	tx := s.db.WithContext(ctx).Model(&models.Confession{})
	if q.Archived != nil {
		tx = tx.Where("archived = ?", *q.Archived)
	}
	switch q.OrderBy {
	case OrderByScore:
		tx = tx.Order("score DESC, id ASC")
	default:
		tx = tx.Order("created_at DESC, id ASC")
	}

	var out []models.Confession
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list confessions: %w", err)
	}
	return out, nil
}

func (s *gormStore) AddScore(ctx context.Context, id uint, delta int) error {
	res := s.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("id = ?", id).
		UpdateColumn("score", gorm.Expr("score + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("update score for %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) Save(ctx context.Context, c *models.Confession) error {
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("save confession %d: %w", c.ID, err)
	}
	return nil
}

func (s *gormStore) SetArchived(ctx context.Context, id uint, archived bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("id = ?", id).
		UpdateColumn("archived", archived)
	if res.Error != nil {
		return fmt.Errorf("set archived for %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Confession{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete confession %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
