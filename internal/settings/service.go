// Package settings stores the stall details shown on the public menu page.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/warung-pos/internal/events"
	"github.com/angelmondragon/warung-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"gorm.io/gorm"
)

// StoreInfo is the store_info record.
type StoreInfo struct {
	OpeningHours   string    `json:"opening_hours"`
	ClosedDay      string    `json:"closed_day"`
	WhatsAppNumber string    `json:"whatsapp_number"`
	Address        string    `json:"address"`
	Promo          []string  `json:"promo"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Service reads and replaces the store info.
type Service interface {
	Get(ctx context.Context) (*StoreInfo, error)
	Upsert(ctx context.Context, info StoreInfo) (*StoreInfo, error)
}

type repository interface {
	Find(ctx context.Context, key string) (*models.StoreSettings, error)
	Upsert(ctx context.Context, row *models.StoreSettings) (*models.StoreSettings, error)
}

type emitter interface {
	Emit(ctx context.Context, typ, subjectID string, payload any)
}

type service struct {
	repo repository
	feed emitter
	now  func() time.Time
}

// NewService builds the settings service. feed may be nil.
func NewService(repo repository, feed emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo, feed: feed, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context) (*StoreInfo, error) {
	row, err := s.repo.Find(ctx, models.StoreInfoKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store info not configured")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store info")
	}
	return FromModel(row), nil
}

func (s *service) Upsert(ctx context.Context, info StoreInfo) (*StoreInfo, error) {
	row := ToModel(info)
	row.UpdatedAt = s.now().UTC()
	saved, err := s.repo.Upsert(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save store info")
	}
	out := FromModel(saved)
	if s.feed != nil {
		s.feed.Emit(ctx, events.TypeSettingsChanged, models.StoreInfoKey, out)
	}
	return out, nil
}

// ToModel trims every field and drops blank promo lines.
func ToModel(info StoreInfo) *models.StoreSettings {
	promo := make([]string, 0, len(info.Promo))
	for _, line := range info.Promo {
		if line = strings.TrimSpace(line); line != "" {
			promo = append(promo, line)
		}
	}
	return &models.StoreSettings{
		Key:            models.StoreInfoKey,
		OpeningHours:   strings.TrimSpace(info.OpeningHours),
		ClosedDay:      strings.TrimSpace(info.ClosedDay),
		WhatsAppNumber: strings.TrimSpace(info.WhatsAppNumber),
		Address:        strings.TrimSpace(info.Address),
		PromoLines:     promo,
	}
}

func FromModel(row *models.StoreSettings) *StoreInfo {
	promo := row.PromoLines
	if promo == nil {
		promo = []string{}
	}
	return &StoreInfo{
		OpeningHours:   row.OpeningHours,
		ClosedDay:      row.ClosedDay,
		WhatsAppNumber: row.WhatsAppNumber,
		Address:        row.Address,
		Promo:          promo,
		UpdatedAt:      row.UpdatedAt,
	}
}
