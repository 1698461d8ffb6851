package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type OpenTicketRequest struct {
	CustomerID string `json:"customer_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

type Service interface {
	Open(ctx context.Context, req OpenTicketRequest) (*Ticket, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status TicketStatus) (*Ticket, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Ticket, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Ticket, error)
}

func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidSubject  = errors.New("invalid_subject")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrNotFound        = errors.New("not_found")
)
