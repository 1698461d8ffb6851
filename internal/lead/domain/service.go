package domain

import (
	"context"
	"errors"
)

type CaptureLeadRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
	Note   string `json:"note"`
}

type Service interface {
	Capture(ctx context.Context, req CaptureLeadRequest) (*Lead, error)
	List(ctx context.Context, limit int) ([]Lead, error)
}

var (
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidContact = errors.New("invalid_contact")
)
