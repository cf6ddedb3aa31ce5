package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apopovich85/Est/internal/estimating/entity"
	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	laborRateCacheKey = "est:labor_rates:current"
	laborRateCacheTTL = 10 * time.Minute
)

// LaborRateService serves the shop-wide rate set. The current row is cached
// in redis; cache misses and redis outages fall through to the database.
type LaborRateService struct {
	rates *repository.LaborRateRepository
	rdb   *redis.Client
}

func NewLaborRateService(rates *repository.LaborRateRepository, rdb *redis.Client) *LaborRateService {
	return &LaborRateService{rates: rates, rdb: rdb}
}

func (s *LaborRateService) CurrentRates(ctx context.Context) (*entity.LaborRate, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, laborRateCacheKey).Bytes(); err == nil {
			var rate entity.LaborRate
			if err := json.Unmarshal(raw, &rate); err == nil {
				return &rate, nil
			}
		}
	}

	rate, err := s.rates.Current(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(rate); err == nil {
			s.rdb.Set(ctx, laborRateCacheKey, raw, laborRateCacheTTL)
		}
	}
	return rate, nil
}

// UpdateRates appends a new current rate row and drops the cache. Existing
// estimates keep their snapshot.
func (s *LaborRateService) UpdateRates(ctx context.Context, input *UpdateLaborRatesInput) (*entity.LaborRate, error) {
	if input.EngineeringRate <= 0 || input.PanelShopRate <= 0 || input.MachineAssemblyRate <= 0 {
		return nil, fmt.Errorf("%w: rates must be positive", ErrValidation)
	}
	rate := &entity.LaborRate{
		ID:                  uuid.New().String()[:32],
		EngineeringRate:     input.EngineeringRate,
		PanelShopRate:       input.PanelShopRate,
		MachineAssemblyRate: input.MachineAssemblyRate,
		Notes:               input.Notes,
		CreatedBy:           input.CreatedBy,
	}
	if err := s.rates.Append(ctx, rate); err != nil {
		return nil, fmt.Errorf("append labor rates: %w", err)
	}
	if s.rdb != nil {
		s.rdb.Del(ctx, laborRateCacheKey)
	}
	return rate, nil
}

func (s *LaborRateService) History(ctx context.Context, limit int) ([]entity.LaborRate, error) {
	return s.rates.History(ctx, limit)
}

type UpdateLaborRatesInput struct {
	EngineeringRate     float64 `json:"engineering_rate" binding:"required"`
	PanelShopRate       float64 `json:"panel_shop_rate" binding:"required"`
	MachineAssemblyRate float64 `json:"machine_assembly_rate" binding:"required"`
	Notes               string  `json:"notes"`
	CreatedBy           string  `json:"created_by"`
}
