package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionWalletCreate    AuditAction = "WALLET_CREATE"
	AuditActionTransactionSend AuditAction = "TX_SEND"
)

type clientIPKey struct{}

// ContextWithClientIP attaches the caller's IP for audit attribution.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the attached IP, or "" when none was set.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// AuditLog records a single audited wallet operation.
type AuditLog struct {
	ID         uuid.UUID   `json:"id"`
	UserID     string      `json:"user_id"`
	Action     AuditAction `json:"action"`
	ResourceID string      `json:"resource_id,omitempty"` // wallet address or tx hash
	IPAddress  string      `json:"ip_address,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
