package repository

import (
	"context"
	"fmt"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ExternalServiceRepository interface {
	Create(ctx context.Context, svc *entity.ExternalService) error
	// FindActiveByPrefix returns candidates whose key hash must still be compared.
	FindActiveByPrefix(ctx context.Context, prefix string) ([]*entity.ExternalService, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

type externalServiceRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewExternalServiceRepository(db database.PgxIface, log *zap.Logger) ExternalServiceRepository {
	return &externalServiceRepository{
		db:  db,
		log: log.With(zap.String("repository", "external_service")),
	}
}

func (r *externalServiceRepository) Create(ctx context.Context, svc *entity.ExternalService) error {
	query := `
		INSERT INTO external_services (id, name, api_key_prefix, api_key_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		svc.ID,
		svc.Name,
		svc.APIKeyPrefix,
		svc.APIKeyHash,
		svc.IsActive,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create external service",
			zap.Error(err),
			zap.String("name", svc.Name),
		)
		return fmt.Errorf("create external service %s: %w", svc.Name, err)
	}

	return nil
}

func (r *externalServiceRepository) FindActiveByPrefix(ctx context.Context, prefix string) ([]*entity.ExternalService, error) {
	query := `
		SELECT id, name, api_key_prefix, api_key_hash, is_active, last_used_at, created_at, updated_at
		FROM external_services
		WHERE api_key_prefix = $1 AND is_active = TRUE
	`

	rows, err := r.db.Query(ctx, query, prefix)
	if err != nil {
		r.log.Error("Failed to look up external service", zap.Error(err))
		return nil, fmt.Errorf("find external service by prefix: %w", err)
	}
	defer rows.Close()

	var services []*entity.ExternalService
	for rows.Next() {
		var svc entity.ExternalService
		if err := rows.Scan(
			&svc.ID,
			&svc.Name,
			&svc.APIKeyPrefix,
			&svc.APIKeyHash,
			&svc.IsActive,
			&svc.LastUsedAt,
			&svc.CreatedAt,
			&svc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan external service: %w", err)
		}
		services = append(services, &svc)
	}

	return services, rows.Err()
}

func (r *externalServiceRepository) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE external_services SET last_used_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch external service %s: %w", id, err)
	}
	return nil
}
