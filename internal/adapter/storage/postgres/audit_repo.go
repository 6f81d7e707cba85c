package postgres

import (
	"context"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/pkg/apperror"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create appends an audit log entry.
func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	query := `INSERT INTO audit_logs (id, user_id, action, resource_id, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.ResourceID,
		entry.IPAddress, entry.CreatedAt,
	)
	if err != nil {
		return apperror.ErrStorageFailure(err)
	}
	return nil
}
