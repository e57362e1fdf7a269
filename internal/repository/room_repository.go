package repository

import (
	"context"
	"time"

	"go-gin-qms/internal/model"
	apperrors "go-gin-qms/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRoomRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &PostgresRoomRepository{pool: pool}
}

const roomColumns = `
		room_id, room_code, room_name, service_id, COALESCE(priority_strategy, ''),
		interleave_interval, normal_since_priority, version
`

func scanRoom(row pgx.Row) (*model.Room, error) {
	var room model.Room
	err := row.Scan(
		&room.RoomID,
		&room.RoomCode,
		&room.RoomName,
		&room.ServiceID,
		&room.PriorityStrategy,
		&room.InterleaveInterval,
		&room.NormalServedSinceLastPriority,
		&room.Version,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *PostgresRoomRepository) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	query := `SELECT` + roomColumns + `FROM rooms WHERE room_id = $1`

	room, err := scanRoom(r.pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (r *PostgresRoomRepository) ListRooms(ctx context.Context) ([]*model.Room, error) {
	query := `SELECT` + roomColumns + `FROM rooms ORDER BY room_code ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*model.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *PostgresRoomRepository) GetService(ctx context.Context, serviceID string) (*model.Service, error) {
	query := `
		SELECT service_id, service_code, service_name, priority_strategy, interleave_interval
		FROM services
		WHERE service_id = $1
	`

	var svc model.Service
	err := r.pool.QueryRow(ctx, query, serviceID).Scan(
		&svc.ServiceID,
		&svc.ServiceCode,
		&svc.ServiceName,
		&svc.PriorityStrategy,
		&svc.InterleaveInterval,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrServiceNotFound
		}
		return nil, err
	}
	return &svc, nil
}

func (r *PostgresRoomRepository) SaveRoom(ctx context.Context, room *model.Room) (*model.Room, error) {
	if room.RoomID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	query := `
		INSERT INTO rooms (room_id, room_code, room_name, service_id, priority_strategy, interleave_interval)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (room_id) DO UPDATE
		SET room_code = EXCLUDED.room_code,
			room_name = EXCLUDED.room_name,
			service_id = EXCLUDED.service_id,
			priority_strategy = EXCLUDED.priority_strategy,
			interleave_interval = EXCLUDED.interleave_interval,
			version = rooms.version + 1,
			updated_at = $7
		RETURNING` + roomColumns

	return scanRoom(r.pool.QueryRow(ctx, query,
		room.RoomID, room.RoomCode, room.RoomName, room.ServiceID,
		room.PriorityStrategy, room.InterleaveInterval, time.Now().UTC(),
	))
}

func (r *PostgresRoomRepository) SaveService(ctx context.Context, service *model.Service) (*model.Service, error) {
	if service.ServiceID == "" {
		return nil, apperrors.ErrInvalidInput
	}
	query := `
		INSERT INTO services (service_id, service_code, service_name, priority_strategy, interleave_interval)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (service_id) DO UPDATE
		SET service_code = EXCLUDED.service_code,
			service_name = EXCLUDED.service_name,
			priority_strategy = EXCLUDED.priority_strategy,
			interleave_interval = EXCLUDED.interleave_interval
		RETURNING service_id, service_code, service_name, priority_strategy, interleave_interval
	`

	var svc model.Service
	err := r.pool.QueryRow(ctx, query,
		service.ServiceID, service.ServiceCode, service.ServiceName,
		service.PriorityStrategy, service.InterleaveInterval,
	).Scan(&svc.ServiceID, &svc.ServiceCode, &svc.ServiceName, &svc.PriorityStrategy, &svc.InterleaveInterval)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}
