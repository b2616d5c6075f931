package security

import (
	"context"
	"time"
)

// RevocationList records token ids that must be rejected before their natural expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NopRevocationList never revokes anything; logout stays client side.
type NopRevocationList struct{}

func (NopRevocationList) Revoke(context.Context, string, time.Time) error { return nil }

func (NopRevocationList) IsRevoked(context.Context, string) (bool, error) { return false, nil }
