package domain

import (
	"context"
	"errors"
)

type Service interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*CreateClientResponse, error)
	Authenticate(ctx context.Context, apiKey string) (*Client, error)
	AddGroup(ctx context.Context, clientID string, req AddGroupRequest) (*Group, error)
	GroupOwner(ctx context.Context, groupID string) (*Group, error)
	ListActiveGroups(ctx context.Context) ([]Group, error)
	Authorize(ctx context.Context, groupID string) (Decision, error)
	IncrementUsage(ctx context.Context, clientID string) error
	UpgradePlan(ctx context.Context, clientID, plan string) error
	HasFeature(ctx context.Context, clientID, feature string) (bool, error)
}

type CreateClientRequest struct {
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Plan        string `json:"plan"`
}

// CreateClientResponse carries the only copy of the plaintext API key.
type CreateClientResponse struct {
	ClientID string `json:"client_id"`
	APIKey   string `json:"api_key"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
}

type AddGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

// Decision is the usage verdict for a group. Reason is set when Allowed is
// false.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Remaining int    `json:"remaining"`
}

const (
	ReasonGroupNotRegistered = "Group not registered"
	ReasonClientNotFound     = "Client not found"
	ReasonClientInactive     = "Subscription inactive"
	ReasonLimitExceeded      = "Monthly transaction limit exceeded"
)

const APIKeyPrefix = "pb_"

var (
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidCompany = errors.New("invalid_company_name")
	ErrInvalidPlan    = errors.New("invalid_plan")
	ErrInvalidGroup   = errors.New("invalid_group_id")
	ErrEmailTaken     = errors.New("email_already_registered")
	ErrGroupTaken     = errors.New("group_already_registered")
	ErrGroupLimit     = errors.New("group_limit_reached")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
)
