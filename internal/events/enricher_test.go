package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prison-events/internal/db"
	"prison-events/internal/types"
)

// mockLookupRepo implements LookupRepository for tests.
type mockLookupRepo struct {
	offenderNumbers    map[int64]string
	bookingNumbers     map[int64]string
	movements          map[int64]*db.Movement
	restrictionNumbers map[int64]string
	bookingDates       map[int64]*db.BookingDates
	err                error

	offenderLookups int
	bookingLookups  int
	movementLookups int
}

func (m *mockLookupRepo) OffenderNumberForOffender(_ context.Context, offenderID int64) (*string, error) {
	m.offenderLookups++
	if m.err != nil {
		return nil, m.err
	}
	if no, ok := m.offenderNumbers[offenderID]; ok {
		return &no, nil
	}
	return nil, nil
}

func (m *mockLookupRepo) OffenderNumberForBooking(_ context.Context, bookingID int64) (*string, error) {
	m.bookingLookups++
	if m.err != nil {
		return nil, m.err
	}
	if no, ok := m.bookingNumbers[bookingID]; ok {
		return &no, nil
	}
	return nil, nil
}

func (m *mockLookupRepo) MovementByBookingAndSeq(_ context.Context, bookingID, _ int64) (*db.Movement, error) {
	m.movementLookups++
	if m.err != nil {
		return nil, m.err
	}
	return m.movements[bookingID], nil
}

func (m *mockLookupRepo) OffenderNumberForPersonRestriction(_ context.Context, restrictionID int64) (*string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if no, ok := m.restrictionNumbers[restrictionID]; ok {
		return &no, nil
	}
	return nil, nil
}

func (m *mockLookupRepo) BookingDatesByBookingID(_ context.Context, bookingID int64) (*db.BookingDates, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bookingDates[bookingID], nil
}

func TestEnrichNilEventPassesThrough(t *testing.T) {
	e := NewEnricher(&mockLookupRepo{}, &testLogger{})

	event, err := e.Enrich(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestEnrichPassThroughLeavesEventUntouched(t *testing.T) {
	repo := &mockLookupRepo{offenderNumbers: map[int64]string{5: "A1234AA"}}
	e := NewEnricher(repo, &testLogger{})
	in := &OffenderEvent{
		EventType:  "ALERT-INSERTED",
		BookingID:  i64(1234),
		OffenderID: i64(5),
	}

	out, err := e.Enrich(context.Background(), in)

	require.NoError(t, err)
	assert.Same(t, in, out)
	assert.Nil(t, out.OffenderIDDisplay)
	assert.Zero(t, repo.offenderLookups)
	assert.Zero(t, repo.bookingLookups)
}

func TestEnrichOffenderUpdatedResolvesDisplayNumber(t *testing.T) {
	repo := &mockLookupRepo{offenderNumbers: map[int64]string{5: "A1234AA"}}
	e := NewEnricher(repo, &testLogger{})

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:  "OFFENDER-UPDATED",
		OffenderID: i64(5),
	})

	require.NoError(t, err)
	require.NotNil(t, out.OffenderIDDisplay)
	assert.Equal(t, "A1234AA", *out.OffenderIDDisplay)
	assert.Equal(t, 1, repo.offenderLookups)
}

func TestEnrichOffenderUpdatedSkipsWhenDisplayAlreadySet(t *testing.T) {
	repo := &mockLookupRepo{offenderNumbers: map[int64]string{5: "A1234AA"}}
	e := NewEnricher(repo, &testLogger{})
	display := "B9999ZZ"

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:         "OFFENDER-UPDATED",
		OffenderID:        i64(5),
		OffenderIDDisplay: &display,
	})

	require.NoError(t, err)
	assert.Equal(t, "B9999ZZ", *out.OffenderIDDisplay)
	assert.Zero(t, repo.offenderLookups)
}

func TestEnrichMovementReceptionResolvesFromBooking(t *testing.T) {
	repo := &mockLookupRepo{bookingNumbers: map[int64]string{1234: "A2345GB"}}
	e := NewEnricher(repo, &testLogger{})

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType: "OFFENDER_MOVEMENT-RECEPTION",
		BookingID: i64(1234),
	})

	require.NoError(t, err)
	require.NotNil(t, out.OffenderIDDisplay)
	assert.Equal(t, "A2345GB", *out.OffenderIDDisplay)
}

func TestEnrichExternalMovementRecordCopiesMovementRow(t *testing.T) {
	from := "MDI"
	to := "BAI"
	movementType := "REL"
	direction := "IN"
	movementDate := time.Date(2019, 7, 12, 0, 0, 0, 0, time.UTC)
	movementTime := time.Date(2019, 7, 12, 21, 0, 0, 0, time.UTC)
	repo := &mockLookupRepo{movements: map[int64]*db.Movement{
		1234: {
			OffenderNo:    "A2345GB",
			FromAgency:    &from,
			ToAgency:      &to,
			MovementType:  &movementType,
			DirectionCode: &direction,
			MovementDate:  &movementDate,
			MovementTime:  &movementTime,
		},
	}}
	e := NewEnricher(repo, &testLogger{})

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:   "EXTERNAL_MOVEMENT_RECORD-INSERTED",
		BookingID:   i64(1234),
		MovementSeq: i64(4),
	})

	require.NoError(t, err)
	assert.Equal(t, "A2345GB", *out.OffenderIDDisplay)
	assert.Equal(t, "MDI", *out.FromAgencyLocationID)
	assert.Equal(t, "BAI", *out.ToAgencyLocationID)
	assert.Equal(t, "REL", *out.MovementType)
	assert.Equal(t, "IN", *out.DirectionCode)
	require.NotNil(t, out.MovementDateTime)
	assert.Equal(t, time.Date(2019, 7, 12, 21, 0, 0, 0, time.UTC), *out.MovementDateTime)
}

func TestEnrichExternalMovementRecordNoRowLeavesFieldsNil(t *testing.T) {
	repo := &mockLookupRepo{}
	e := NewEnricher(repo, &testLogger{})

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:   "EXTERNAL_MOVEMENT_RECORD-INSERTED",
		BookingID:   i64(1234),
		MovementSeq: i64(4),
	})

	require.NoError(t, err)
	assert.Nil(t, out.OffenderIDDisplay)
	assert.Nil(t, out.MovementType)
	assert.Equal(t, 1, repo.movementLookups)
}

func TestEnrichPersonRestrictionResolvesOffenderNumber(t *testing.T) {
	repo := &mockLookupRepo{restrictionNumbers: map[int64]string{88: "A1234AA"}}
	e := NewEnricher(repo, &testLogger{})

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:           "PERSON_RESTRICTION-UPSERTED",
		PersonRestrictionID: i64(88),
	})

	require.NoError(t, err)
	require.NotNil(t, out.OffenderIDDisplay)
	assert.Equal(t, "A1234AA", *out.OffenderIDDisplay)
}

func TestEnrichBookingReassignedResolvesBothSidesAndDates(t *testing.T) {
	begin := time.Date(2018, 1, 5, 14, 30, 0, 0, time.UTC)
	admission := time.Date(2019, 3, 2, 9, 0, 0, 0, time.UTC)
	repo := &mockLookupRepo{
		offenderNumbers: map[int64]string{5: "A1234AA", 9: "B5678BB"},
		bookingDates: map[int64]*db.BookingDates{
			1234: {BeginDate: &begin, LastAdmissionDate: &admission},
		},
	}
	e := NewEnricher(repo, &testLogger{})

	out, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:          "OFFENDER_BOOKING-REASSIGNED",
		BookingID:          i64(1234),
		OffenderID:         i64(5),
		PreviousOffenderID: i64(9),
	})

	require.NoError(t, err)
	assert.Equal(t, "A1234AA", *out.OffenderIDDisplay)
	assert.Equal(t, "B5678BB", *out.PreviousOffenderIDDisplay)
	assert.Equal(t, begin, *out.BookingStartDateTime)
	assert.Equal(t, admission, *out.LastAdmissionDate)
	assert.Equal(t, 2, repo.offenderLookups)
}

func TestEnrichDatabaseErrorPropagates(t *testing.T) {
	repo := &mockLookupRepo{
		err: types.NewAppError(types.ErrCodeInternalDB, "replica unavailable", nil),
	}
	e := NewEnricher(repo, &testLogger{})

	_, err := e.Enrich(context.Background(), &OffenderEvent{
		EventType:  "OFFENDER-UPDATED",
		OffenderID: i64(5),
	})

	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
