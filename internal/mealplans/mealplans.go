// Package mealplans stores the plan records created when a meal plan request
// is approved.
package mealplans

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusActive is the state a plan enters on approval.
const StatusActive = "ACTIVE"

// MealPlan is one purchased plan.
type MealPlan struct {
	ID          string    `json:"id"`
	ClientEmail string    `json:"clientEmail"`
	DietitianID string    `json:"dietitianId"`
	PlanType    string    `json:"planType"`
	RequestID   string    `json:"requestId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for meal plans.
type Store struct {
	db querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("mealplans: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db querier) *Store {
	if db == nil {
		panic("mealplans: querier required")
	}
	return &Store{db: db}
}

// ListForClient returns the client's plans, newest first.
func (s *Store) ListForClient(ctx context.Context, email string) ([]MealPlan, error) {
	query := `
		SELECT id, client_email, dietitian_id, plan_type, request_id, status, created_at
		FROM meal_plans
		WHERE client_email = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("mealplans: list for client: %w", err)
	}
	defer rows.Close()

	var out []MealPlan
	for rows.Next() {
		var mp MealPlan
		if err := rows.Scan(&mp.ID, &mp.ClientEmail, &mp.DietitianID, &mp.PlanType, &mp.RequestID, &mp.Status, &mp.CreatedAt); err != nil {
			return nil, fmt.Errorf("mealplans: scan: %w", err)
		}
		out = append(out, mp)
	}
	return out, rows.Err()
}

// Executor matches both a pool and an open pgx transaction.
type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertApprovedTx creates the ACTIVE plan for an approved request using the
// caller's executor, typically the approval transaction.
func InsertApprovedTx(ctx context.Context, exec Executor, clientEmail, dietitianID, planType, requestID string) (*MealPlan, error) {
	mp := &MealPlan{
		ID:          uuid.New().String(),
		ClientEmail: clientEmail,
		DietitianID: dietitianID,
		PlanType:    planType,
		RequestID:   requestID,
		Status:      StatusActive,
	}
	query := `
		INSERT INTO meal_plans (id, client_email, dietitian_id, plan_type, request_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := exec.QueryRow(ctx, query,
		mp.ID, mp.ClientEmail, mp.DietitianID, mp.PlanType, mp.RequestID, mp.Status,
	).Scan(&mp.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("mealplans: insert approved: %w", err)
	}
	return mp, nil
}
