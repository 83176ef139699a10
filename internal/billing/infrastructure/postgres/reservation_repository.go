package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"gopkg.in/guregu/null.v4"

	billing "smartpark-iot/internal/billing/domain"
)

const defaultReservationsTable = "reservations"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var reservationColumns = []string{
	"id",
	"slot_id",
	"slot_label",
	"slot_type",
	"user_id",
	"user_email",
	"reservation_date",
	"check_in_time",
	"check_out_time",
	"status",
	"duration_hours",
	"amount",
	"payment_status",
	"created_at",
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReservationRepository is a Postgres implementation for reservations.
type ReservationRepository struct {
	db    DBTX
	table string
}

// NewReservationRepository constructs a repository.
func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db, table: defaultReservationsTable}
}

// Save upserts a reservation.
func (r *ReservationRepository) Save(ctx context.Context, res billing.Reservation) error {
	if r == nil || r.db == nil {
		return errors.New("reservation repo: nil db")
	}
	if res.ID == "" {
		return errors.New("reservation repo: empty id")
	}
	query, args, err := psql.Insert(r.table).
		Columns(reservationColumns...).
		Values(
			res.ID,
			res.SlotID,
			res.SlotLabel,
			res.SlotType,
			null.NewString(res.UserID, res.UserID != ""),
			null.NewString(res.UserEmail, res.UserEmail != ""),
			res.ReservationDate.UTC(),
			null.TimeFromPtr(res.CheckInTime),
			null.TimeFromPtr(res.CheckOutTime),
			string(res.Status),
			res.DurationHours,
			res.Amount,
			string(res.PaymentStatus),
			res.CreatedAt.UTC(),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
	check_in_time = EXCLUDED.check_in_time,
	check_out_time = EXCLUDED.check_out_time,
	status = EXCLUDED.status,
	duration_hours = EXCLUDED.duration_hours,
	amount = EXCLUDED.amount,
	payment_status = EXCLUDED.payment_status`).
		ToSql()
	if err != nil {
		return fmt.Errorf("reservation repo: build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("reservation repo: save: %w", err)
	}
	return nil
}

// Get loads a reservation by id.
func (r *ReservationRepository) Get(ctx context.Context, id string) (*billing.Reservation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reservation repo: nil db")
	}
	query, args, err := psql.Select(reservationColumns...).
		From(r.table).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("reservation repo: build select: %w", err)
	}
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrNotFound
		}
		return nil, fmt.Errorf("reservation repo: get: %w", err)
	}
	return &res, nil
}

// List returns reservations matching filter, newest first.
func (r *ReservationRepository) List(ctx context.Context, filter billing.Filter) ([]billing.Reservation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reservation repo: nil db")
	}
	builder := psql.Select(reservationColumns...).From(r.table)
	if filter.Status != "" {
		builder = builder.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.PaymentStatus != "" {
		builder = builder.Where(squirrel.Eq{"payment_status": string(filter.PaymentStatus)})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"slot_label": pattern},
			squirrel.ILike{"user_email": pattern},
			squirrel.ILike{"id": pattern},
		})
	}
	query, args, err := builder.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("reservation repo: build list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reservation repo: list: %w", err)
	}
	defer rows.Close()

	var out []billing.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reservation repo: scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservation repo: rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (billing.Reservation, error) {
	var (
		res                 billing.Reservation
		userID, userEmail   null.String
		checkIn, checkOut   null.Time
		status, payment     string
		reservationDate, at time.Time
	)
	if err := row.Scan(
		&res.ID,
		&res.SlotID,
		&res.SlotLabel,
		&res.SlotType,
		&userID,
		&userEmail,
		&reservationDate,
		&checkIn,
		&checkOut,
		&status,
		&res.DurationHours,
		&res.Amount,
		&payment,
		&at,
	); err != nil {
		return billing.Reservation{}, err
	}
	res.UserID = userID.ValueOrZero()
	res.UserEmail = userEmail.ValueOrZero()
	res.ReservationDate = reservationDate.UTC()
	res.CheckInTime = utcPtr(checkIn)
	res.CheckOutTime = utcPtr(checkOut)
	res.Status = billing.ReservationStatus(status)
	res.PaymentStatus = billing.PaymentStatus(payment)
	res.CreatedAt = at.UTC()
	return res, nil
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
