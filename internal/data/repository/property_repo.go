package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"krib-booking/internal/data/entity"
	"krib-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PropertyFilter narrows a search. Nil fields are not applied. When both
// dates are set, properties with an occupying booking in that range are skipped.
type PropertyFilter struct {
	Location    string
	MinPrice    *float64
	MaxPrice    *float64
	MinBedrooms *int
	Guests      *int
	CheckIn     *time.Time
	CheckOut    *time.Time
	Limit       int
	Offset      int
}

type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error)
	Search(ctx context.Context, filter PropertyFilter) ([]*entity.Property, int64, error)
}

type propertyRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPropertyRepository(db database.PgxIface, log *zap.Logger) PropertyRepository {
	return &propertyRepository{
		db:  db,
		log: log.With(zap.String("repository", "property")),
	}
}

const propertyColumns = `id, host_id, title, description, city, country, address, price_per_night,
	bedrooms, bathrooms, max_guests, minimum_nights, maximum_nights, available_from, available_to,
	status, created_at, updated_at, deleted_at`

func scanProperty(row pgx.Row) (*entity.Property, error) {
	var p entity.Property
	err := row.Scan(
		&p.ID,
		&p.HostID,
		&p.Title,
		&p.Description,
		&p.City,
		&p.Country,
		&p.Address,
		&p.PricePerNight,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.MaxGuests,
		&p.MinimumNights,
		&p.MaximumNights,
		&p.AvailableFrom,
		&p.AvailableTo,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 AND deleted_at IS NULL`

	property, err := scanProperty(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find property by ID",
			zap.Error(err),
			zap.String("property_id", id.String()),
		)
		return nil, fmt.Errorf("find property by ID %s: %w", id, err)
	}

	return property, nil
}

func (r *propertyRepository) Search(ctx context.Context, filter PropertyFilter) ([]*entity.Property, int64, error) {
	conds := []string{"deleted_at IS NULL", "status = 'active'"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if loc := strings.TrimSpace(filter.Location); loc != "" {
		p := arg("%" + loc + "%")
		conds = append(conds, fmt.Sprintf("(city ILIKE %s OR country ILIKE %s OR title ILIKE %s)", p, p, p))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "price_per_night >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "price_per_night <= "+arg(*filter.MaxPrice))
	}
	if filter.MinBedrooms != nil {
		conds = append(conds, "bedrooms >= "+arg(*filter.MinBedrooms))
	}
	if filter.Guests != nil {
		conds = append(conds, "max_guests >= "+arg(*filter.Guests))
	}
	if filter.CheckIn != nil && filter.CheckOut != nil {
		in, out := arg(*filter.CheckIn), arg(*filter.CheckOut)
		conds = append(conds, fmt.Sprintf(`NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.property_id = properties.id
			  AND b.status IN ('pending', 'confirmed')
			  AND b.check_in < %s AND b.check_out > %s
		)`, out, in))
	}

	where := strings.Join(conds, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM properties WHERE "+where, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count properties", zap.Error(err))
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM properties WHERE %s ORDER BY created_at DESC LIMIT %s OFFSET %s",
		propertyColumns, where, arg(filter.Limit), arg(filter.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to search properties", zap.Error(err))
		return nil, 0, fmt.Errorf("search properties: %w", err)
	}
	defer rows.Close()

	var properties []*entity.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate properties: %w", err)
	}

	return properties, total, nil
}
