package events

import (
	"strings"
	"time"

	"prison-events/internal/types"
	"prison-events/internal/xtag"
)

// Transformer maps raw Xtag trigger events onto OffenderEvent variants.
//
// The dispatch table is fixed at compile time. Many raw codes share a
// handler. A raw code not present in the table is NOT dropped: it produces
// a minimal fallback event carrying only the raw code and the enqueue
// timestamp, so new trigger codes flow downstream before this table learns
// about them. Only a nil raw code drops the message.
//
// Transform is a pure function of its input and holds no per-call state, so
// one Transformer may be shared by any number of workers.
type Transformer struct {
	logger types.Logger
}

// NewTransformer creates a Transformer.
func NewTransformer(logger types.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform converts a raw event into its published shape, or nil when the
// message is unusable or a conditional handler elects to drop it.
//
// Handler panics (via Content.MustGetLong) are deliberately not recovered
// here: a typed raw code whose required fields are absent means the table's
// assumptions about the trigger schema are wrong, and that must surface at
// the delivery boundary rather than degrade into a silent drop.
func (t *Transformer) Transform(x xtag.Xtag) *OffenderEvent {
	if x.EventType == nil {
		t.logger.Warn("xtag message has no event type, dropping", "fields", x.Content.Len())
		return nil
	}

	switch *x.EventType {
	case "P8_RESULT":
		return riskScoreEventOf(x)
	case "A3_RESULT":
		return offenderSanctionEventOf(x)
	case "P1_RESULT", "BOOK_UPD_OASYS", "A2_CALLBACK":
		return bookingNumberChangedEventOf(x)
	case "OFF_HEALTH_PROB_INS":
		return maternityStatusEventOf(x, "MATERNITY_STATUS-INSERTED")
	case "OFF_HEALTH_PROB_UPD":
		return maternityStatusEventOf(x, "MATERNITY_STATUS-UPDATED")
	case "OFF_RECEP_OASYS":
		return offenderMovementEventOf(x, "OFFENDER_MOVEMENT-RECEPTION")
	case "OFF_DISCH_OASYS":
		return offenderMovementEventOf(x, "OFFENDER_MOVEMENT-DISCHARGE")
	case "M1_RESULT", "M1_UPD_RESULT":
		return externalMovementRecordEventOf(x)
	case "EXTERNAL_MOVEMENT-CHANGED":
		return externalMovementChangedEventOf(x)
	case "OFF_UPD_OASYS":
		// The OASYS update trigger fires for both booking-level and
		// offender-level changes; presence of the booking id decides which.
		if x.Content.GetLong("p_offender_book_id") != nil {
			return offenderBookingChangedEventOf(x)
		}
		return offenderDetailsChangedEventOf(x)
	case "ADDR_USG_INS":
		return addressUsageEventOf(x, "ADDRESS_USAGE-INSERTED")
	case "ADDR_USG_UPD":
		if x.Content.GetBool("p_address_deleted") {
			return addressUsageEventOf(x, "ADDRESS_USAGE-DELETED")
		}
		return addressUsageEventOf(x, "ADDRESS_USAGE-UPDATED")
	case "P4_RESULT":
		return hdcConditionChangedEventOf(x)
	case "P2_RESULT":
		return hdcFineInsertedEventOf(x)
	case "OFF_BKB_INS":
		return offenderBookingInsertedEventOf(x)
	case "OFF_BKB_UPD":
		return offenderBookingReassignedEventOf(x)
	case "OFF_CONT_PER_INS":
		return contactPersonEventOf(x, "CONTACT_PERSON-INSERTED")
	case "OFF_CONT_PER_UPD":
		if x.Content.GetBool("p_delete_flag") {
			return contactPersonEventOf(x, "CONTACT_PERSON-DELETED")
		}
		return contactPersonEventOf(x, "CONTACT_PERSON-UPDATED")
	case "OFF_EDUCATION_INSERT":
		return educationLevelEventOf(x, "EDUCATION_LEVEL-INSERTED")
	case "OFF_EDUCATION_UPDATE":
		return educationLevelEventOf(x, "EDUCATION_LEVEL-UPDATED")
	case "OFF_EDUCATION_DELETE":
		return educationLevelEventOf(x, "EDUCATION_LEVEL-DELETED")
	case "S1_RESULT":
		// One trigger, two meanings: an imprisonment-status row or an
		// assessment row. Neither field present means nothing to publish.
		if x.Content.GetLong("p_imprison_status_seq") != nil {
			return imprisonmentStatusChangedEventOf(x)
		}
		if x.Content.GetLong("p_assessment_seq") != nil {
			return assessmentChangedEventOf(x)
		}
		t.logger.Warn("S1_RESULT carried neither status nor assessment sequence, dropping")
		return nil
	case "S2_RESULT":
		return sentenceDatesChangedEventOf(x)
	case "OFF_SENT_OASYS":
		return sentenceCalculationDatesChangedEventOf(x)
	case "OFF_IMP_STAT_OASYS":
		return imprisonmentStatusChangedEventOf(x)
	case "OFF_ALERT_INSERT":
		return alertInsertedEventOf(x)
	case "OFF_ALERT_UPDATE":
		return alertUpdatedEventOf(x)
	case "OFF_ALERT_DELETE":
		return alertDeletedEventOf(x)
	case "INCIDENT-INSERTED":
		return incidentEventOf(x, *x.EventType)
	case "INCIDENT-UPDATED-CASES", "INCIDENT-UPDATED-PARTIES",
		"INCIDENT-UPDATED-REQUIREMENTS", "INCIDENT-UPDATED-RESPONSES":
		// Public name is computed from the raw code, not looked up.
		return incidentEventOf(x, strings.Replace(*x.EventType, "INCIDENT-UPDATED", "INCIDENT-CHANGED", 1))
	case "OFF_PROFILE_DETS_INS":
		return offenderProfileEventOf(x, "OFFENDER_PROFILE_DETAILS-INSERTED")
	case "OFF_PROFILE_DETS_UPD":
		return offenderProfileEventOf(x, "OFFENDER_PROFILE_DETAILS-UPDATED")
	case "OFF_IDENT_INS":
		return offenderIdentifierEventOf(x, "OFFENDER_IDENTIFIER-INSERTED")
	case "OFF_IDENT_DELETE":
		return offenderIdentifierEventOf(x, "OFFENDER_IDENTIFIER-DELETED")
	case "OFF_INS":
		return offenderEventOf(x, "OFFENDER-INSERTED")
	case "OFF_UPD":
		return offenderEventOf(x, "OFFENDER-UPDATED")
	case "OFF_DEL":
		return offenderEventOf(x, "OFFENDER-DELETED")
	case "OFF_ALIAS_CHG":
		return offenderAliasChangedEventOf(x)
	case "ADDR_INS":
		return addressEventOf(x, "INSERTED")
	case "ADDR_UPD":
		if x.Content.GetBool("p_address_deleted") {
			return addressEventOf(x, "DELETED")
		}
		return addressEventOf(x, "UPDATED")
	case "PHONES_INS":
		return phoneEventOf(x, "INSERTED")
	case "PHONES_UPD":
		return phoneEventOf(x, "UPDATED")
	case "PHONES_DEL":
		return phoneEventOf(x, "DELETED")
	case "INTERNET_ADDR_INS":
		return internetAddressEventOf(x, "INSERTED")
	case "INTERNET_ADDR_UPD":
		return internetAddressEventOf(x, "UPDATED")
	case "INTERNET_ADDR_DEL":
		return internetAddressEventOf(x, "DELETED")
	case "OFF_RESTRICTS_UPD":
		return offenderRestrictionEventOf(x)
	case "OFF_PERS_RESTRICTS_UPD":
		return personRestrictionEventOf(x)
	case "VISITOR_RESTRICTS_UPD":
		return visitorRestrictionEventOf(x)
	case "OFF_SENT_ADJ_UPD":
		return sentenceAdjustmentEventOf(x)
	case "OFF_KEY_DATES_ADJ_UPD":
		return keyDateAdjustmentEventOf(x)
	case "OFF_IEP_UPDATE":
		return iepEventOf(x)
	case "OFF_NA_DETAILS_ASSOC":
		return nonAssociationEventOf(x)
	case "OFF_EMPLOYMENTS_INS":
		return employmentEventOf(x, "OFFENDER_EMPLOYMENT-INSERTED")
	case "OFF_EMPLOYMENTS_UPD":
		return employmentEventOf(x, "OFFENDER_EMPLOYMENT-UPDATED")
	case "OFF_EMPLOYMENTS_DEL":
		return employmentEventOf(x, "OFFENDER_EMPLOYMENT-DELETED")
	case "BED_ASSIGNMENT_HISTORY-INSERTED":
		return bedAssignmentEventOf(x)
	case "CONFIRMED_RELEASE_DATE-CHANGED":
		return confirmedReleaseDateChangedEventOf(x)
	case "OFFENDER_CHARGES-INSERTED", "OFFENDER_CHARGES-UPDATED", "OFFENDER_CHARGES-DELETED":
		return offenderChargesEventOf(x)
	case "OFFENDER_CASES-INSERTED", "OFFENDER_CASES-UPDATED", "OFFENDER_CASES-DELETED":
		return offenderCasesEventOf(x)
	case "OFFENDER_CONTACT-INSERTED", "OFFENDER_CONTACT-UPDATED", "OFFENDER_CONTACT-DELETED":
		return offenderContactEventOf(x)
	case "OFFENDER_SENTENCES-INSERTED", "OFFENDER_SENTENCES-UPDATED", "OFFENDER_SENTENCES-DELETED",
		"OFFENDER_SENTENCE_CHARGES-INSERTED", "OFFENDER_SENTENCE_CHARGES-UPDATED", "OFFENDER_SENTENCE_CHARGES-DELETED",
		"OFFENDER_SENTENCE_TERMS-INSERTED", "OFFENDER_SENTENCE_TERMS-UPDATED", "OFFENDER_SENTENCE_TERMS-DELETED":
		return offenderSentenceEventOf(x)
	case "COURT_EVENT-INSERTED", "COURT_EVENT-UPDATED", "COURT_EVENT-DELETED",
		"COURT_EVENT_CHARGES-INSERTED", "COURT_EVENT_CHARGES-UPDATED", "COURT_EVENT_CHARGES-DELETED":
		return courtEventEventOf(x)
	case "CSIP_REPORTS-INSERTED", "CSIP_REPORTS-UPDATED", "CSIP_REPORTS-DELETED",
		"CSIP_PLANS-INSERTED", "CSIP_PLANS-UPDATED", "CSIP_PLANS-DELETED",
		"CSIP_REVIEWS-INSERTED", "CSIP_REVIEWS-UPDATED", "CSIP_REVIEWS-DELETED",
		"CSIP_ATTENDEES-INSERTED", "CSIP_ATTENDEES-UPDATED", "CSIP_ATTENDEES-DELETED",
		"CSIP_FACTORS-INSERTED", "CSIP_FACTORS-UPDATED", "CSIP_FACTORS-DELETED",
		"CSIP_INTVW-INSERTED", "CSIP_INTVW-UPDATED", "CSIP_INTVW-DELETED":
		return csipEventOf(x)
	default:
		// Forward-compatibility: unknown typed codes still flow downstream
		// with the minimal shape. Consumers depend on exactly this shape for
		// unmapped codes; do not extract best-effort fields here.
		return &OffenderEvent{
			EventType:     *x.EventType,
			EventDatetime: timePtr(x.Timestamp),
		}
	}
}

// baseEventOf populates the fields every named handler shares.
func baseEventOf(publicType string, x xtag.Xtag) *OffenderEvent {
	return &OffenderEvent{
		EventType:      publicType,
		EventDatetime:  timePtr(x.Timestamp),
		NomisEventType: x.EventType,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func i64(n int64) *int64 { return &n }

// --- OASYS-facing handlers ---

func riskScoreEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("RISK_SCORE-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.RiskPredictorID = x.Content.GetLong("p_offender_risk_predictor_id")
	return e
}

func offenderSanctionEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("SANCTION-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.SanctionSeq = x.Content.GetLong("p_sanction_seq")
	return e
}

func bookingNumberChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("BOOKING_NUMBER-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.BookingNumber = x.Content.GetString("p_new_prison_num")
	e.PreviousBookingNumber = x.Content.GetString("p_old_prison_num")
	return e
}

func maternityStatusEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	// The health-problem trigger fires for maternity rows only; the booking
	// id is guaranteed by the trigger schema.
	e.BookingID = i64(x.Content.MustGetLong("p_offender_book_id"))
	e.HealthProblemID = x.Content.GetLong("p_offender_health_problem_id")
	e.MaternityStatus = x.Content.GetString("p_problem_code")
	return e
}

func offenderMovementEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.BookingID = i64(x.Content.MustGetLong("p_offender_book_id"))
	e.MovementSeq = x.Content.GetLong("p_movement_seq")
	return e
}

// externalMovementRecordEventOf carries only the lookup keys; the Enricher
// fills agency, direction, type, and the combined timestamp from the
// movement row.
func externalMovementRecordEventOf(x xtag.Xtag) *OffenderEvent {
	publicType := "EXTERNAL_MOVEMENT_RECORD-INSERTED"
	if *x.EventType == "M1_UPD_RESULT" {
		publicType = "EXTERNAL_MOVEMENT_RECORD-UPDATED"
	} else if x.Content.GetBool("p_record_deleted") {
		publicType = "EXTERNAL_MOVEMENT_RECORD-DELETED"
	}
	e := baseEventOf(publicType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.MovementSeq = x.Content.GetLong("p_movement_seq")
	return e
}

func externalMovementChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.MovementSeq = x.Content.GetLong("p_movement_seq")
	e.MovementType = x.Content.GetString("p_movement_type")
	e.DirectionCode = x.Content.GetString("p_direction_code")
	e.MovementReasonCode = x.Content.GetString("p_movement_reason_code")
	e.EscortCode = x.Content.GetString("p_escort_code")
	e.FromAgencyLocationID = x.Content.GetString("p_from_agy_loc_id")
	e.ToAgencyLocationID = x.Content.GetString("p_to_agy_loc_id")
	e.MovementDateTime = x.Content.GetDateTime("p_movement_date", "p_movement_time")
	return e
}

func offenderBookingChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("OFFENDER_BOOKING-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	return e
}

func offenderDetailsChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("OFFENDER_DETAILS-CHANGED", x)
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	return e
}

func addressUsageEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.AddressID = x.Content.GetLong("p_address_id")
	e.AddressUsage = x.Content.GetString("p_address_usage")
	return e
}

func hdcConditionChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("HDC_CONDITION-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.SentenceConditionID = x.Content.GetLong("p_offender_sent_condition_id")
	e.ConditionCode = x.Content.GetString("p_condition_code")
	return e
}

func hdcFineInsertedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("HDC_FINE-INSERTED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.SanctionSeq = x.Content.GetLong("p_sanction_seq")
	return e
}

// --- Booking handlers ---

func offenderBookingInsertedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("OFFENDER_BOOKING-INSERTED", x)
	e.BookingID = i64(x.Content.MustGetLong("p_offender_book_id"))
	e.OffenderID = x.Content.GetLong("p_offender_id")
	return e
}

// offenderBookingReassignedEventOf records a booking moving between
// offender records. The Enricher resolves display numbers for both sides
// plus the booking's start and last-admission dates.
func offenderBookingReassignedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("OFFENDER_BOOKING-REASSIGNED", x)
	e.BookingID = i64(x.Content.MustGetLong("p_offender_book_id"))
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.PreviousOffenderID = x.Content.GetLong("p_old_offender_id")
	return e
}

func contactPersonEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.PersonID = x.Content.GetLong("p_person_id")
	e.ContactPersonID = x.Content.GetLong("p_offender_contact_person_id")
	e.ApprovedVisitorFlag = x.Content.GetString("p_approved_visitor_flag")
	return e
}

func educationLevelEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.EducationID = x.Content.GetLong("p_offender_education_id")
	return e
}

// --- Status, assessment, and sentencing handlers ---

func imprisonmentStatusChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("IMPRISONMENT_STATUS-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.ImprisonmentStatusSeq = x.Content.GetLong("p_imprison_status_seq")
	return e
}

func assessmentChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("ASSESSMENT-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.AssessmentSeq = x.Content.GetLong("p_assessment_seq")
	return e
}

func sentenceDatesChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("SENTENCE_DATES-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.SentenceCalculationID = x.Content.GetLong("p_offender_sent_calculation_id")
	return e
}

func sentenceCalculationDatesChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("SENTENCE_CALCULATION_DATES-CHANGED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	return e
}

// --- Alert handlers ---

func alertInsertedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("ALERT-INSERTED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	e.AlertSeq = x.Content.GetLong("p_alert_seq")
	e.AlertType = x.Content.GetString("p_alert_type")
	e.AlertCode = x.Content.GetString("p_alert_code")
	e.AlertDateTime = x.Content.GetDateTime("p_alert_date", "p_alert_time")
	e.ExpiryDateTime = x.Content.GetDateTime("p_expiry_date", "p_expiry_time")
	return e
}

// alertUpdatedEventOf keys the alert timestamp off the old date/time fields:
// the trigger reports the pre-update values there and downstream consumers
// match on them.
func alertUpdatedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("ALERT-UPDATED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	e.AlertSeq = x.Content.GetLong("p_alert_seq")
	e.AlertType = x.Content.GetString("p_alert_type")
	e.AlertCode = x.Content.GetString("p_alert_code")
	e.AlertDateTime = x.Content.GetDateTime("p_old_alert_date", "p_old_alert_time")
	e.ExpiryDateTime = x.Content.GetDateTime("p_expiry_date", "p_expiry_time")
	return e
}

func alertDeletedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("ALERT-DELETED", x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	e.AlertSeq = x.Content.GetLong("p_alert_seq")
	e.AlertType = x.Content.GetString("p_alert_type")
	e.AlertCode = x.Content.GetString("p_alert_code")
	e.AlertDateTime = x.Content.GetDateTime("p_alert_date", "p_alert_time")
	e.ExpiryDateTime = x.Content.GetDateTime("p_expiry_date", "p_expiry_time")
	return e
}

// --- Incident handlers ---

func incidentEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.IncidentCaseID = x.Content.GetLong("p_incident_case_id")
	e.IncidentPartySeq = x.Content.GetLong("p_party_seq")
	e.IncidentRequirementSeq = x.Content.GetLong("p_requirement_seq")
	e.IncidentQuestionSeq = x.Content.GetLong("p_question_seq")
	e.IncidentResponseSeq = x.Content.GetLong("p_response_seq")
	return e
}

// --- Offender record handlers ---

func offenderProfileEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.ProfileType = x.Content.GetString("p_profile_type")
	return e
}

func offenderIdentifierEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.OffenderID = i64(x.Content.MustGetLong("p_offender_id"))
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	e.IdentifierType = x.Content.GetString("p_identifier_type")
	e.IdentifierValue = x.Content.GetString("p_identifier_value")
	return e
}

func offenderEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.OffenderID = i64(x.Content.MustGetLong("p_offender_id"))
	e.OffenderIDDisplay = x.Content.GetString("p_offender_id_display")
	return e
}

func offenderAliasChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("OFFENDER_ALIAS-CHANGED", x)
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.AliasOffenderID = x.Content.GetLong("p_alias_offender_id")
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	return e
}

// --- Address, phone, and email handlers ---
//
// These triggers fire for rows owned by an offender, a person, or a bare
// address; p_owner_class selects both the public event family and which
// identifier field receives p_owner_id.

func addressEventOf(x xtag.Xtag, suffix string) *OffenderEvent {
	ownerClass := x.Content.GetString("p_owner_class")
	ownerID := x.Content.GetLong("p_owner_id")

	var e *OffenderEvent
	switch {
	case ownerClass != nil && *ownerClass == "OFF":
		e = baseEventOf("OFFENDER_ADDRESS-"+suffix, x)
		e.OffenderID = ownerID
	case ownerClass != nil && *ownerClass == "PER":
		e = baseEventOf("PERSON_ADDRESS-"+suffix, x)
		e.PersonID = ownerID
	default:
		e = baseEventOf("ADDRESS-"+suffix, x)
		e.AddressID = ownerID
	}

	e.OwnerClass = ownerClass
	e.OwnerID = ownerID
	if e.AddressID == nil {
		e.AddressID = x.Content.GetLong("p_address_id")
	}
	e.AddressEndDate = x.Content.GetDate("p_address_end_date")
	e.PrimaryAddressFlag = x.Content.GetString("p_primary_addr_flag")
	e.MailAddressFlag = x.Content.GetString("p_mail_addr_flag")
	return e
}

func phoneEventOf(x xtag.Xtag, suffix string) *OffenderEvent {
	ownerClass := x.Content.GetString("p_owner_class")
	ownerID := x.Content.GetLong("p_owner_id")

	var e *OffenderEvent
	switch {
	case ownerClass != nil && *ownerClass == "OFF":
		e = baseEventOf("OFFENDER_PHONE-"+suffix, x)
		e.OffenderID = ownerID
	case ownerClass != nil && *ownerClass == "PER":
		e = baseEventOf("PERSON_PHONE-"+suffix, x)
		e.PersonID = ownerID
	default:
		e = baseEventOf("ADDRESS_PHONE-"+suffix, x)
		e.AddressID = ownerID
	}

	e.OwnerClass = ownerClass
	e.OwnerID = ownerID
	e.PhoneID = x.Content.GetLong("p_phone_id")
	e.PhoneType = x.Content.GetString("p_phone_type")
	return e
}

func internetAddressEventOf(x xtag.Xtag, suffix string) *OffenderEvent {
	ownerClass := x.Content.GetString("p_owner_class")
	ownerID := x.Content.GetLong("p_owner_id")

	var e *OffenderEvent
	switch {
	case ownerClass != nil && *ownerClass == "OFF":
		e = baseEventOf("OFFENDER_EMAIL-"+suffix, x)
		e.OffenderID = ownerID
	case ownerClass != nil && *ownerClass == "PER":
		e = baseEventOf("PERSON_EMAIL-"+suffix, x)
		e.PersonID = ownerID
	default:
		e = baseEventOf("INTERNET_ADDRESS-"+suffix, x)
		e.AddressID = ownerID
	}

	e.OwnerClass = ownerClass
	e.OwnerID = ownerID
	e.InternetAddressID = x.Content.GetLong("p_internet_address_id")
	return e
}

// --- Restriction handlers ---
//
// The restriction triggers fire once per upsert or delete; p_delete_flag
// selects the suffix.

func restrictionSuffix(x xtag.Xtag) string {
	if x.Content.GetBool("p_delete_flag") {
		return "DELETED"
	}
	return "UPSERTED"
}

func offenderRestrictionEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("RESTRICTION-"+restrictionSuffix(x), x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.OffenderRestrictionID = x.Content.GetLong("p_offender_restriction_id")
	e.RestrictionType = x.Content.GetString("p_restriction_type")
	e.EffectiveDate = x.Content.GetDate("p_effective_date")
	e.ExpiryDate = x.Content.GetDate("p_expiry_date")
	return e
}

func personRestrictionEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("PERSON_RESTRICTION-"+restrictionSuffix(x), x)
	e.ContactPersonID = x.Content.GetLong("p_offender_contact_person_id")
	e.PersonRestrictionID = x.Content.GetLong("p_offender_person_restrict_id")
	e.RestrictionType = x.Content.GetString("p_restriction_type")
	e.EffectiveDate = x.Content.GetDate("p_restriction_effective_date")
	e.ExpiryDate = x.Content.GetDate("p_restriction_expiry_date")
	return e
}

func visitorRestrictionEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf("VISITOR_RESTRICTION-"+restrictionSuffix(x), x)
	e.PersonID = x.Content.GetLong("p_person_id")
	e.VisitorRestrictionID = x.Content.GetLong("p_visitor_restriction_id")
	e.RestrictionType = x.Content.GetString("p_visit_restriction_type")
	e.EffectiveDate = x.Content.GetDate("p_effective_date")
	e.ExpiryDate = x.Content.GetDate("p_expiry_date")
	return e
}

// --- Adjustment and incentive handlers ---

func sentenceAdjustmentEventOf(x xtag.Xtag) *OffenderEvent {
	suffix := "_UPSERTED"
	if x.Content.GetBool("p_delete_flag") {
		suffix = "_DELETED"
	}
	e := baseEventOf("SENTENCE_ADJUSTMENT"+suffix, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.SentenceSeq = x.Content.GetLong("p_sentence_seq")
	e.SentenceAdjustmentID = x.Content.GetLong("p_offender_sentence_adjust_id")
	return e
}

func keyDateAdjustmentEventOf(x xtag.Xtag) *OffenderEvent {
	suffix := "_UPSERTED"
	if x.Content.GetBool("p_delete_flag") {
		suffix = "_DELETED"
	}
	e := baseEventOf("KEY_DATE_ADJUSTMENT"+suffix, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.KeyDateAdjustmentID = x.Content.GetLong("p_offender_key_date_adjust_id")
	return e
}

func iepEventOf(x xtag.Xtag) *OffenderEvent {
	publicType := "IEP_UPSERTED"
	if x.Content.GetBool("p_delete_flag") {
		publicType = "IEP_DELETED"
	}
	e := baseEventOf(publicType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.AgencyLocationID = x.Content.GetString("p_agy_loc_id")
	e.IepSeq = x.Content.GetLong("p_iep_level_seq")
	e.IepLevel = x.Content.GetString("p_iep_level")
	e.AuditModuleName = x.Content.GetString("p_audit_module_name")
	e.AuditTimestamp = x.Content.GetAuditTimestamp("p_audit_timestamp")
	return e
}

func nonAssociationEventOf(x xtag.Xtag) *OffenderEvent {
	suffix := "-UPSERTED"
	if x.Content.GetBool("p_delete_flag") {
		suffix = "-DELETED"
	}
	e := baseEventOf("NON_ASSOCIATION_DETAIL"+suffix, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.OffenderID = x.Content.GetLong("p_offender_id")
	e.NsBookingID = x.Content.GetLong("p_ns_offender_book_id")
	e.TypeSeq = x.Content.GetLong("p_type_seq")
	return e
}

func employmentEventOf(x xtag.Xtag, publicType string) *OffenderEvent {
	e := baseEventOf(publicType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.EmploymentID = x.Content.GetLong("p_offender_employment_id")
	return e
}

// --- Pass-through handlers ---
//
// These raw codes are already public names; the handler copies the code
// through verbatim, so eventType and nomisEventType are equal.

func bedAssignmentEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.BedAssignmentSeq = x.Content.GetLong("p_bed_assign_seq")
	e.LivingUnitID = x.Content.GetLong("p_living_unit_id")
	return e
}

func confirmedReleaseDateChangedEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	return e
}

func offenderChargesEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.ChargeID = x.Content.GetLong("p_offender_charge_id")
	e.ChargeSeq = x.Content.GetLong("p_charge_seq")
	return e
}

func offenderCasesEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.CaseID = x.Content.GetLong("p_case_id")
	return e
}

func offenderContactEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.PersonID = x.Content.GetLong("p_person_id")
	e.ContactPersonID = x.Content.GetLong("p_offender_contact_person_id")
	e.ApprovedVisitorFlag = x.Content.GetString("p_approved_visitor_flag")
	e.AuditModuleName = x.Content.GetString("p_audit_module_name")
	e.AuditTimestamp = x.Content.GetAuditTimestamp("p_audit_timestamp")
	return e
}

func offenderSentenceEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.SentenceSeq = x.Content.GetLong("p_sentence_seq")
	e.ChargeID = x.Content.GetLong("p_offender_charge_id")
	return e
}

// courtEventEventOf derives the public name by substitution on the raw code
// ("COURT_EVENT" becomes "COURT_EVENTS"), not by table lookup.
func courtEventEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(strings.Replace(*x.EventType, "COURT_EVENT", "COURT_EVENTS", 1), x)
	e.BookingID = x.Content.GetLong("p_offender_book_id")
	e.CaseID = x.Content.GetLong("p_case_id")
	e.CourtEventID = x.Content.GetLong("p_event_id")
	e.ChargeID = x.Content.GetLong("p_offender_charge_id")
	return e
}

// csipEventOf handles all CSIP sub-record triggers with one flat shape;
// only the id matching the sub-record family is present in the content.
func csipEventOf(x xtag.Xtag) *OffenderEvent {
	e := baseEventOf(*x.EventType, x)
	e.RootOffenderID = x.Content.GetLong("p_root_offender_id")
	e.CsipReportID = x.Content.GetLong("p_csip_id")
	e.CsipPlanID = x.Content.GetLong("p_plan_id")
	e.CsipReviewID = x.Content.GetLong("p_review_id")
	e.CsipAttendeeID = x.Content.GetLong("p_attendee_id")
	e.CsipFactorID = x.Content.GetLong("p_csip_factor_id")
	e.CsipInterviewID = x.Content.GetLong("p_csip_intvw_id")
	e.AuditModuleName = x.Content.GetString("p_audit_module_name")
	e.AuditTimestamp = x.Content.GetAuditTimestamp("p_audit_timestamp")
	return e
}
