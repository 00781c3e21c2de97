package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"customs-clearance/internal/domain"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, rec domain.ShipmentRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: encode shipment: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shipments (id, reference_number, transaction_type, current_stage, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`, rec.ID, rec.ReferenceNumber, rec.TransactionType, rec.CurrentStage, string(payload), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("storage: create shipment %q: duplicate (%s)", rec.ID, pqErr.Constraint)
		}
		return fmt.Errorf("storage: create shipment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.ShipmentRecord, error) {
	var payload []byte
	row := s.db.QueryRowContext(ctx, `SELECT record FROM shipments WHERE id = $1`, id)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ShipmentRecord{}, fmt.Errorf("%w: %s", domain.ErrShipmentNotFound, id)
		}
		return domain.ShipmentRecord{}, fmt.Errorf("storage: get shipment: %w", err)
	}
	var rec domain.ShipmentRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.ShipmentRecord{}, fmt.Errorf("storage: decode shipment %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec domain.ShipmentRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: encode shipment: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE shipments
		SET record = $2::jsonb, current_stage = $3, updated_at = $4
		WHERE id = $1
	`, rec.ID, string(payload), rec.CurrentStage, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storage: update shipment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: update shipment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrShipmentNotFound, rec.ID)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter domain.ShipmentFilter, offset, limit int) ([]domain.ShipmentRecord, int, error) {
	where, args := listConditions(filter)

	var total int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shipments`+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: count shipments: %w", err)
	}

	query := `SELECT record FROM shipments` + where + ` ORDER BY created_at ASC, id ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: list shipments: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ShipmentRecord, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, fmt.Errorf("storage: list shipments: %w", err)
		}
		var rec domain.ShipmentRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, 0, fmt.Errorf("storage: decode shipment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("storage: list shipments: %w", err)
	}
	return records, total, nil
}

func listConditions(filter domain.ShipmentFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.TransactionType != "" {
		args = append(args, filter.TransactionType)
		clauses = append(clauses, fmt.Sprintf("transaction_type = $%d", len(args)))
	}
	switch filter.Status {
	case "":
	case domain.StatusFilterActive:
		args = append(args, domain.LastStage())
		clauses = append(clauses, fmt.Sprintf("current_stage <> $%d", len(args)))
	case domain.StatusFilterCompleted:
		args = append(args, domain.LastStage())
		clauses = append(clauses, fmt.Sprintf("current_stage = $%d", len(args)))
	default:
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("current_stage = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Next increments the (transaction type, year) counter in one statement, so
// concurrent API instances never see the same sequence.
func (s *PostgresStore) Next(ctx context.Context, transactionType domain.TransactionType, year string) (int64, error) {
	var seq int64
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO reference_counters (transaction_type, year, sequence)
		VALUES ($1, $2, 1)
		ON CONFLICT (transaction_type, year) DO UPDATE SET
			sequence = reference_counters.sequence + 1,
			updated_at = NOW()
		RETURNING sequence
	`, transactionType, year)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("storage: next reference sequence: %w", err)
	}
	return seq, nil
}
