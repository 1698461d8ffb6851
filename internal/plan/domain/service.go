package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type CreatePlanRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	PricePaise      int64  `json:"price_paise"`
	BillingInterval string `json:"billing_interval"`
}

type UpdatePlanRequest struct {
	ID         string  `json:"id"`
	Name       *string `json:"name"`
	PricePaise *int64  `json:"price_paise"`
	Active     *bool   `json:"active"`
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	Update(ctx context.Context, req UpdatePlanRequest) (*Plan, error)
	GetByID(ctx context.Context, id string) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
}

func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidInterval = errors.New("invalid_interval")
	ErrCodeTaken       = errors.New("code_taken")
	ErrNotFound        = errors.New("not_found")
)
