package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"subscription-service/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when an operation targets an id that does not
// exist (or no longer exists).
var ErrNotFound = errors.New("subscription not found")

// Filter selects the subscriptions of one user that overlap a month window.
// Window bounds and service name are optional; a subscription matches when
// it intersects the window, full containment is not required.
type Filter struct {
	UserID      uuid.UUID
	ServiceName *string
	StartDate   *model.MonthDate
	EndDate     *model.MonthDate
}

// Matches reports whether a subscription satisfies the filter. This is the
// same predicate the SQL queries express, kept in Go for the aggregation
// pipeline and for in-memory fakes.
func (f Filter) Matches(sub model.Subscription) bool {
	if sub.UserID != f.UserID {
		return false
	}
	if f.ServiceName != nil && sub.ServiceName != *f.ServiceName {
		return false
	}
	if f.StartDate != nil && sub.EndDate != nil && sub.EndDate.Before(f.StartDate.Time) {
		return false
	}
	if f.EndDate != nil && sub.StartDate.After(f.EndDate.Time) {
		return false
	}
	return true
}

// ListParams is a Filter plus pagination.
type ListParams struct {
	Filter
	Limit  int
	Offset int
}

// UpdateParams carries a partial update: nil fields are left untouched.
// EndDate is tri-state so an update can clear it back to open-ended.
type UpdateParams struct {
	ServiceName *string
	Price       *int
	StartDate   *model.MonthDate
	EndDate     model.MonthPatch
}

// SubscriptionStore is the persistence surface the handlers talk to.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*model.Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]model.Subscription, error)
	SumPeriod(ctx context.Context, filter Filter) (int, error)
}

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC()
	sub.ID = uuid.New()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
		INSERT INTO subscriptions (id, service_name, price, user_id, start_date, end_date, created_at, updated_at)
		VALUES (:id, :service_name, :price, :user_id, :start_date, :end_date, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		slog.Error("insert subscription failed", "error", err)
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	query := "SELECT * FROM subscriptions WHERE id = $1"
	err := r.db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("get subscription failed", "id", id, "error", err)
		return nil, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*model.Subscription, error) {
	query := "UPDATE subscriptions SET updated_at = $1"
	args := []interface{}{time.Now().UTC()}
	argIndex := 2

	if params.ServiceName != nil {
		query += fmt.Sprintf(", service_name = $%d", argIndex)
		args = append(args, *params.ServiceName)
		argIndex++
	}

	if params.Price != nil {
		query += fmt.Sprintf(", price = $%d", argIndex)
		args = append(args, *params.Price)
		argIndex++
	}

	if params.StartDate != nil {
		query += fmt.Sprintf(", start_date = $%d", argIndex)
		args = append(args, *params.StartDate)
		argIndex++
	}

	if params.EndDate.Set {
		query += fmt.Sprintf(", end_date = $%d", argIndex)
		if params.EndDate.Month != nil {
			args = append(args, *params.EndDate.Month)
		} else {
			args = append(args, nil)
		}
		argIndex++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argIndex)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("update subscription failed", "id", id, "error", err)
		return nil, fmt.Errorf("update subscription %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM subscriptions WHERE id = $1", id)
	if err != nil {
		slog.Error("delete subscription failed", "id", id, "error", err)
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// filterClause appends the overlap predicate for f to query, numbering
// placeholders from argIndex. Returns the grown query and args.
func filterClause(query string, args []interface{}, argIndex int, f Filter) (string, []interface{}, int) {
	query += fmt.Sprintf(" WHERE user_id = $%d", argIndex)
	args = append(args, f.UserID)
	argIndex++

	if f.ServiceName != nil {
		query += fmt.Sprintf(" AND service_name = $%d", argIndex)
		args = append(args, *f.ServiceName)
		argIndex++
	}

	if f.StartDate != nil {
		query += fmt.Sprintf(" AND (end_date IS NULL OR end_date >= $%d)", argIndex)
		args = append(args, *f.StartDate)
		argIndex++
	}

	if f.EndDate != nil {
		query += fmt.Sprintf(" AND start_date <= $%d", argIndex)
		args = append(args, *f.EndDate)
		argIndex++
	}

	return query, args, argIndex
}

func (r *SubscriptionRepository) List(ctx context.Context, params ListParams) ([]model.Subscription, error) {
	query, args, argIndex := filterClause("SELECT * FROM subscriptions", nil, 1, params.Filter)

	// No declared business ordering; creation order is pinned so that
	// pagination stays stable across pages.
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, params.Limit, params.Offset)

	subs := []model.Subscription{}
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		slog.Error("list subscriptions failed", "user_id", params.UserID, "error", err)
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return subs, nil
}

func (r *SubscriptionRepository) SumPeriod(ctx context.Context, filter Filter) (int, error) {
	query, args, _ := filterClause("SELECT * FROM subscriptions", nil, 1, filter)

	var subs []model.Subscription
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		slog.Error("sum subscriptions failed", "user_id", filter.UserID, "error", err)
		return 0, fmt.Errorf("sum subscriptions: %w", err)
	}

	return TotalCost(subs, filter, model.MonthOf(time.Now().UTC())), nil
}
