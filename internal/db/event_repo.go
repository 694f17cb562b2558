package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"prison-events/internal/types"
)

// EventRepository provides the point lookups used by event enrichment.
// Every query is first-or-none: QueryRow scans the first matching row and
// discards the rest, which deliberately preserves the tolerated ambiguity
// when a key matches more than one row.
type EventRepository struct {
	db DBTX
}

// NewEventRepository creates an EventRepository backed by the given
// connection (pool or transaction).
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

// Movement is one row of the external-movements table. Date and time-of-day
// are stored in separate columns; CombineDateTime merges them downstream.
type Movement struct {
	OffenderNo    string
	FromAgency    *string
	ToAgency      *string
	MovementType  *string
	DirectionCode *string
	MovementDate  *time.Time
	MovementTime  *time.Time
}

// BookingDates carries the begin and last-admission dates of a booking.
type BookingDates struct {
	BeginDate         *time.Time
	LastAdmissionDate *time.Time
}

// OffenderNumberForOffender resolves the public offender number (display
// identifier) from an internal offender id. Zero rows is not an error and
// returns nil.
func (r *EventRepository) OffenderNumberForOffender(ctx context.Context, offenderID int64) (*string, error) {
	row := r.db.QueryRow(ctx,
		`SELECT o.offender_id_display
		 FROM offenders o
		 WHERE o.offender_id = $1`,
		offenderID,
	)

	var display string
	if err := row.Scan(&display); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to resolve offender number", err)
	}
	return &display, nil
}

// OffenderNumberForBooking resolves the offender number via the booking's
// owning offender record.
func (r *EventRepository) OffenderNumberForBooking(ctx context.Context, bookingID int64) (*string, error) {
	row := r.db.QueryRow(ctx,
		`SELECT o.offender_id_display
		 FROM offender_bookings b
		 JOIN offenders o ON o.offender_id = b.offender_id
		 WHERE b.offender_book_id = $1`,
		bookingID,
	)

	var display string
	if err := row.Scan(&display); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to resolve offender number for booking", err)
	}
	return &display, nil
}

// MovementByBookingAndSeq fetches the movement row for a booking and
// movement sequence, including the owning offender's display number.
func (r *EventRepository) MovementByBookingAndSeq(ctx context.Context, bookingID, movementSeq int64) (*Movement, error) {
	row := r.db.QueryRow(ctx,
		`SELECT o.offender_id_display, m.from_agy_loc_id, m.to_agy_loc_id,
		        m.movement_type, m.direction_code, m.movement_date, m.movement_time
		 FROM offender_external_movements m
		 JOIN offender_bookings b ON b.offender_book_id = m.offender_book_id
		 JOIN offenders o ON o.offender_id = b.offender_id
		 WHERE m.offender_book_id = $1 AND m.movement_seq = $2`,
		bookingID,
		movementSeq,
	)

	var mv Movement
	err := row.Scan(
		&mv.OffenderNo,
		&mv.FromAgency,
		&mv.ToAgency,
		&mv.MovementType,
		&mv.DirectionCode,
		&mv.MovementDate,
		&mv.MovementTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch movement", err)
	}
	return &mv, nil
}

// OffenderNumberForPersonRestriction resolves the restricted contact's
// owning offender number via restriction -> contact -> booking -> offender.
func (r *EventRepository) OffenderNumberForPersonRestriction(ctx context.Context, restrictionID int64) (*string, error) {
	row := r.db.QueryRow(ctx,
		`SELECT o.offender_id_display
		 FROM offender_person_restricts r
		 JOIN offender_contact_persons c ON c.offender_contact_person_id = r.offender_contact_person_id
		 JOIN offender_bookings b ON b.offender_book_id = c.offender_book_id
		 JOIN offenders o ON o.offender_id = b.offender_id
		 WHERE r.offender_person_restrict_id = $1`,
		restrictionID,
	)

	var display string
	if err := row.Scan(&display); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to resolve offender number for restriction", err)
	}
	return &display, nil
}

// BookingDatesByBookingID fetches the begin date and the most recent
// admission date for a booking. The admission subquery orders by movement
// sequence so the latest admission wins.
func (r *EventRepository) BookingDatesByBookingID(ctx context.Context, bookingID int64) (*BookingDates, error) {
	row := r.db.QueryRow(ctx,
		`SELECT b.booking_begin_date,
		        (SELECT m.movement_date
		         FROM offender_external_movements m
		         WHERE m.offender_book_id = b.offender_book_id
		           AND m.movement_type = 'ADM'
		         ORDER BY m.movement_seq DESC
		         LIMIT 1)
		 FROM offender_bookings b
		 WHERE b.offender_book_id = $1`,
		bookingID,
	)

	var dates BookingDates
	if err := row.Scan(&dates.BeginDate, &dates.LastAdmissionDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch booking dates", err)
	}
	return &dates, nil
}
