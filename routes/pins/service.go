// Package routes_pins serves the pin CRUD endpoints and enforces who may
// change which pin.
package routes_pins

import (
	"context"
	"errors"
	"strings"

	"github.com/obsidianempire/aoc-map/metrics"
	"github.com/obsidianempire/aoc-map/models"
	"github.com/obsidianempire/aoc-map/routes"
	"github.com/obsidianempire/aoc-map/sessions"
	"github.com/obsidianempire/aoc-map/storage"
	"github.com/obsidianempire/aoc-map/validation"
)

// Service applies ownership rules on top of the pin repository.
type Service struct {
	repo   storage.PinRepository
	admins []string
}

// NewService builds a Service. Admins may delete any pin; matching is by
// username, case-insensitive.
func NewService(repo storage.PinRepository, admins []string) *Service {
	return &Service{repo: repo, admins: admins}
}

// IsAdmin reports whether identity may delete pins it does not own.
func (s *Service) IsAdmin(identity *sessions.Identity) bool {
	if identity == nil {
		return false
	}
	for _, name := range s.admins {
		if strings.EqualFold(name, identity.Username) {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context) ([]models.Pin, error) {
	pins, err := s.repo.List(ctx)
	if err != nil {
		return nil, routes.PersistenceError(err)
	}
	return pins, nil
}

// Create stores a pin owned by identity.
func (s *Service) Create(ctx context.Context, identity *sessions.Identity, req CreatePinRequest) (*models.Pin, error) {
	if identity == nil {
		return nil, routes.AuthenticationError("No token provided")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, routes.ValidationError(err.Error())
	}

	pin := &models.Pin{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Lat:             float64(*req.Lat),
		Lng:             float64(*req.Lng),
		DiscordUserID:   identity.DiscordID,
		DiscordUsername: identity.Username,
	}
	if err := s.repo.Create(ctx, pin); err != nil {
		return nil, routes.PersistenceError(err)
	}

	metrics.RecordPinMutation("create")
	return pin, nil
}

// Update changes the fields present in req. Only the owner may update.
func (s *Service) Update(ctx context.Context, identity *sessions.Identity, id uint, req UpdatePinRequest) (*models.Pin, error) {
	if identity == nil {
		return nil, routes.AuthenticationError("No token provided")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, routes.ValidationError(err.Error())
	}

	pin, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pin.DiscordUserID != identity.DiscordID {
		return nil, routes.AuthorizationError("You can only edit your own pins")
	}

	changes := storage.PinChanges{
		Title:       pin.Title,
		Description: pin.Description,
		Category:    pin.Category,
		Lat:         pin.Lat,
		Lng:         pin.Lng,
	}
	if req.Title != nil {
		changes.Title = *req.Title
	}
	if req.Description != nil {
		changes.Description = *req.Description
	}
	if req.Category != nil {
		changes.Category = *req.Category
	}
	if req.Lat != nil {
		changes.Lat = float64(*req.Lat)
	}
	if req.Lng != nil {
		changes.Lng = float64(*req.Lng)
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if errors.Is(err, storage.ErrPinNotFound) {
		return nil, routes.NotFoundError("Pin not found")
	}
	if err != nil {
		return nil, routes.PersistenceError(err)
	}

	metrics.RecordPinMutation("update")
	return updated, nil
}

// Delete removes a pin owned by identity, or any pin if identity is an admin.
func (s *Service) Delete(ctx context.Context, identity *sessions.Identity, id uint) error {
	if identity == nil {
		return routes.AuthenticationError("No token provided")
	}

	pin, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if pin.DiscordUserID != identity.DiscordID && !s.IsAdmin(identity) {
		return routes.AuthorizationError("You can only delete your own pins")
	}

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, storage.ErrPinNotFound) {
		return routes.NotFoundError("Pin not found")
	}
	if err != nil {
		return routes.PersistenceError(err)
	}

	metrics.RecordPinMutation("delete")
	return nil
}

func (s *Service) get(ctx context.Context, id uint) (*models.Pin, error) {
	pin, err := s.repo.Get(ctx, id)
	if errors.Is(err, storage.ErrPinNotFound) {
		return nil, routes.NotFoundError("Pin not found")
	}
	if err != nil {
		return nil, routes.PersistenceError(err)
	}
	return pin, nil
}
