package storage

import (
	"context"
	"errors"

	"github.com/obsidianempire/aoc-map/models"
	"gorm.io/gorm"
)

var ErrPinNotFound = errors.New("pin not found")

// PinChanges holds the mutable pin columns. Ownership and creation time are
// not part of it.
type PinChanges struct {
	Title       string
	Description string
	Category    string
	Lat         float64
	Lng         float64
}

// PinRepository is the backend-agnostic pin store.
type PinRepository interface {
	List(ctx context.Context) ([]models.Pin, error)
	Get(ctx context.Context, id uint) (*models.Pin, error)
	Create(ctx context.Context, pin *models.Pin) error
	Update(ctx context.Context, id uint, changes PinChanges) (*models.Pin, error)
	Delete(ctx context.Context, id uint) error
}

type pinRepository struct {
	db *gorm.DB
}

func NewPinRepository(db *gorm.DB) PinRepository {
	return &pinRepository{db: db}
}

// List returns every pin, newest first.
func (p *pinRepository) List(ctx context.Context) ([]models.Pin, error) {
	pins := make([]models.Pin, 0)
	err := p.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&pins).Error
	return pins, err
}

func (p *pinRepository) Get(ctx context.Context, id uint) (*models.Pin, error) {
	var pin models.Pin
	err := p.db.WithContext(ctx).First(&pin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPinNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

// Create inserts pin and fills in the store-assigned id and created_at.
func (p *pinRepository) Create(ctx context.Context, pin *models.Pin) error {
	pin.ID = 0
	return p.db.WithContext(ctx).Create(pin).Error
}

func (p *pinRepository) Update(ctx context.Context, id uint, changes PinChanges) (*models.Pin, error) {
	res := p.db.WithContext(ctx).Model(&models.Pin{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       changes.Title,
		"description": changes.Description,
		"category":    changes.Category,
		"lat":         changes.Lat,
		"lng":         changes.Lng,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrPinNotFound
	}
	return p.Get(ctx, id)
}

func (p *pinRepository) Delete(ctx context.Context, id uint) error {
	res := p.db.WithContext(ctx).Delete(&models.Pin{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPinNotFound
	}
	return nil
}
