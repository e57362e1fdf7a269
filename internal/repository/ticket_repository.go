package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `
		ticket_id, ticket_number, service_id, COALESCE(room_id, ''), status, priority_type,
		issued_at, called_at, served_at, completed_at, COALESCE(desk_token, ''),
		version, pass_count, wait_time_seconds, service_time_seconds
`

// 每個診間最多一張 Calling/Serving，見 migrations/001_init.sql
const uniqueActiveSlot = "tickets_one_active_per_room"

// PostgresTicketStore 以 version 欄位做 compare-and-swap 的 TicketStore
type PostgresTicketStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTicketStore(pool *pgxpool.Pool) TicketStore {
	return &PostgresTicketStore{
		pool: pool,
	}
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.TicketID,
		&ticket.TicketNumber,
		&ticket.ServiceID,
		&ticket.RoomID,
		&ticket.Status,
		&ticket.PriorityType,
		&ticket.IssuedAt,
		&ticket.CalledAt,
		&ticket.ServedAt,
		&ticket.CompletedAt,
		&ticket.DeskToken,
		&ticket.Version,
		&ticket.PassCount,
		&ticket.WaitTimeSeconds,
		&ticket.ServiceTimeSeconds,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *PostgresTicketStore) Insert(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (
			ticket_id, ticket_number, service_id, room_id, status, priority_type,
			issued_at, version, pass_count)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		RETURNING` + ticketColumns

	created, err := scanTicket(r.pool.QueryRow(ctx, query,
		ticket.TicketID, ticket.TicketNumber, ticket.ServiceID, ticket.RoomID,
		ticket.Status, ticket.PriorityType, ticket.IssuedAt, ticket.Version, ticket.PassCount,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrDuplicateTicket
		}
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}
	return created, nil
}

func (r *PostgresTicketStore) Get(ctx context.Context, ref string) (*model.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE ticket_id = $1 OR ticket_number = $1
		LIMIT 1
	`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *PostgresTicketStore) ListPending(ctx context.Context, roomID string) ([]*model.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE room_id = $1 AND status = $2
		ORDER BY issued_at ASC, ticket_number ASC
	`
	return r.query(ctx, query, roomID, model.TicketStatusPending)
}

func (r *PostgresTicketStore) ListByRoom(ctx context.Context, roomID string) ([]*model.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE room_id = $1
		ORDER BY issued_at ASC, ticket_number ASC
	`
	return r.query(ctx, query, roomID)
}

func (r *PostgresTicketStore) query(ctx context.Context, query string, args ...interface{}) ([]*model.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *PostgresTicketStore) CurrentServing(ctx context.Context, roomID string) (*model.Ticket, error) {
	query := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE room_id = $1 AND status IN ($2, $3)
		LIMIT 1
	`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, roomID, model.TicketStatusCalling, model.TicketStatusServing))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ticket, nil
}

// CompareAndSwap 以 FOR UPDATE 讀出目前版本，在 Go 端套用 mutation 後以 version 條件更新
func (r *PostgresTicketStore) CompareAndSwap(ctx context.Context, ticketID string, expectedVersion int64, mutate Mutation) (*model.Ticket, error) {
	return r.Claim(ctx, ticketID, expectedVersion, mutate, nil)
}

// Claim 號碼牌與 rooms.normal_since_priority 在同一個交易內提交
func (r *PostgresTicketStore) Claim(ctx context.Context, ticketID string, expectedVersion int64, mutate Mutation, counter *CounterUpdate) (*model.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT` + ticketColumns + `
		FROM tickets
		WHERE ticket_id = $1
		FOR UPDATE
	`
	current, err := scanTicket(tx.QueryRow(ctx, lockQuery, ticketID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, apperrors.ErrVersionConflict
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE tickets
		SET service_id = $1, room_id = NULLIF($2, ''), status = $3, priority_type = $4,
			issued_at = $5, called_at = $6, served_at = $7, completed_at = $8,
			desk_token = NULLIF($9, ''), pass_count = $10, wait_time_seconds = $11,
			service_time_seconds = $12, version = version + 1, updated_at = $13
		WHERE ticket_id = $14 AND version = $15
		RETURNING` + ticketColumns

	updated, err := scanTicket(tx.QueryRow(ctx, updateQuery,
		next.ServiceID, next.RoomID, next.Status, next.PriorityType,
		next.IssuedAt, next.CalledAt, next.ServedAt, next.CompletedAt,
		next.DeskToken, next.PassCount, next.WaitTimeSeconds,
		next.ServiceTimeSeconds, time.Now().UTC(),
		ticketID, expectedVersion,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrVersionConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uniqueActiveSlot {
			return nil, apperrors.ErrRoomBusy
		}
		return nil, err
	}

	if counter != nil {
		if err := updateCounter(ctx, tx, counter); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func updateCounter(ctx context.Context, tx pgx.Tx, counter *CounterUpdate) error {
	query := `
		UPDATE rooms
		SET normal_since_priority = $1, version = version + 1, updated_at = $2
		WHERE room_id = $3 AND version = $4
	`
	tag, err := tx.Exec(ctx, query, counter.Counter, time.Now().UTC(), counter.RoomID, counter.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update interleave counter: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// 分辨房間不存在與版本不符
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE room_id = $1)`, counter.RoomID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrRoomNotFound
	}
	return apperrors.ErrVersionConflict
}
