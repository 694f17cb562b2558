package events

import (
	"context"

	"prison-events/internal/db"
	"prison-events/internal/types"
	"prison-events/internal/xtag"
)

// LookupRepository is the read-only replica access the Enricher needs.
// *db.EventRepository is the production implementation.
type LookupRepository interface {
	OffenderNumberForOffender(ctx context.Context, offenderID int64) (*string, error)
	OffenderNumberForBooking(ctx context.Context, bookingID int64) (*string, error)
	MovementByBookingAndSeq(ctx context.Context, bookingID, movementSeq int64) (*db.Movement, error)
	OffenderNumberForPersonRestriction(ctx context.Context, restrictionID int64) (*string, error)
	BookingDatesByBookingID(ctx context.Context, bookingID int64) (*db.BookingDates, error)
}

// Event types enriched from the offender id and from the booking id
// respectively. Everything else passes through untouched except the three
// special cases handled explicitly in Enrich.
var offenderEnrichable = map[string]bool{
	"OFFENDER-UPDATED":         true,
	"OFFENDER_DETAILS-CHANGED": true,
	"OFFENDER_ALIAS-CHANGED":   true,
}

var bookingEnrichable = map[string]bool{
	"OFFENDER_MOVEMENT-RECEPTION":     true,
	"OFFENDER_MOVEMENT-DISCHARGE":     true,
	"BED_ASSIGNMENT_HISTORY-INSERTED": true,
	"CONFIRMED_RELEASE_DATE-CHANGED":  true,
	"SENTENCE_DATES-CHANGED":          true,
}

// Enricher augments transformed events with fields the raw trigger message
// does not carry, via point lookups against the replica. A lookup that
// matches nothing leaves the dependent fields nil and is never an error;
// a lookup that fails (replica down) propagates so the message is retried.
//
// The Enricher mutates the event in place: the event is exclusively owned
// by the worker processing one message, so this is safe.
type Enricher struct {
	repo   LookupRepository
	logger types.Logger
}

// NewEnricher creates an Enricher backed by the given repository.
func NewEnricher(repo LookupRepository, logger types.Logger) *Enricher {
	return &Enricher{repo: repo, logger: logger}
}

// Enrich fills in derived fields for the enrichable event types and returns
// the same event. A nil event passes through as nil.
func (e *Enricher) Enrich(ctx context.Context, event *OffenderEvent) (*OffenderEvent, error) {
	if event == nil {
		return nil, nil
	}

	switch {
	case offenderEnrichable[event.EventType]:
		return event, e.enrichFromOffender(ctx, event)
	case bookingEnrichable[event.EventType]:
		return event, e.enrichFromBooking(ctx, event)
	case event.EventType == "EXTERNAL_MOVEMENT_RECORD-INSERTED":
		return event, e.enrichMovement(ctx, event)
	case event.EventType == "PERSON_RESTRICTION-UPSERTED", event.EventType == "PERSON_RESTRICTION-DELETED":
		return event, e.enrichPersonRestriction(ctx, event)
	case event.EventType == "OFFENDER_BOOKING-REASSIGNED":
		return event, e.enrichBookingReassigned(ctx, event)
	default:
		return event, nil
	}
}

func (e *Enricher) enrichFromOffender(ctx context.Context, event *OffenderEvent) error {
	if event.OffenderID == nil || event.OffenderIDDisplay != nil {
		return nil
	}
	display, err := e.repo.OffenderNumberForOffender(ctx, *event.OffenderID)
	if err != nil {
		return err
	}
	event.OffenderIDDisplay = display
	return nil
}

func (e *Enricher) enrichFromBooking(ctx context.Context, event *OffenderEvent) error {
	if event.BookingID == nil || event.OffenderIDDisplay != nil {
		return nil
	}
	display, err := e.repo.OffenderNumberForBooking(ctx, *event.BookingID)
	if err != nil {
		return err
	}
	event.OffenderIDDisplay = display
	return nil
}

func (e *Enricher) enrichMovement(ctx context.Context, event *OffenderEvent) error {
	if event.BookingID == nil || event.MovementSeq == nil {
		return nil
	}
	mv, err := e.repo.MovementByBookingAndSeq(ctx, *event.BookingID, *event.MovementSeq)
	if err != nil {
		return err
	}
	if mv == nil {
		// No matching row: the event still publishes with these fields nil.
		return nil
	}
	event.OffenderIDDisplay = &mv.OffenderNo
	event.FromAgencyLocationID = mv.FromAgency
	event.ToAgencyLocationID = mv.ToAgency
	event.MovementType = mv.MovementType
	event.DirectionCode = mv.DirectionCode
	event.MovementDateTime = xtag.CombineDateTime(mv.MovementDate, mv.MovementTime)
	return nil
}

func (e *Enricher) enrichPersonRestriction(ctx context.Context, event *OffenderEvent) error {
	if event.PersonRestrictionID == nil {
		return nil
	}
	display, err := e.repo.OffenderNumberForPersonRestriction(ctx, *event.PersonRestrictionID)
	if err != nil {
		return err
	}
	event.OffenderIDDisplay = display
	return nil
}

// enrichBookingReassigned resolves display numbers for both sides of the
// reassignment plus the booking's start and last-admission dates.
func (e *Enricher) enrichBookingReassigned(ctx context.Context, event *OffenderEvent) error {
	if event.OffenderID != nil {
		display, err := e.repo.OffenderNumberForOffender(ctx, *event.OffenderID)
		if err != nil {
			return err
		}
		event.OffenderIDDisplay = display
	}
	if event.PreviousOffenderID != nil {
		display, err := e.repo.OffenderNumberForOffender(ctx, *event.PreviousOffenderID)
		if err != nil {
			return err
		}
		event.PreviousOffenderIDDisplay = display
	}
	if event.BookingID != nil {
		dates, err := e.repo.BookingDatesByBookingID(ctx, *event.BookingID)
		if err != nil {
			return err
		}
		if dates != nil {
			event.BookingStartDateTime = dates.BeginDate
			event.LastAdmissionDate = dates.LastAdmissionDate
		}
	}
	return nil
}
