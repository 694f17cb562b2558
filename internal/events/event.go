// Package events implements the core pipeline: transforming raw Xtag trigger
// messages into published domain events, enriching them from the NOMIS
// replica, and publishing them to the outbound topic.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// OffenderEvent is the published representation of a NOMIS change event.
//
// The hierarchy of ~80 event shapes is flattened into one struct with a
// superset of optional fields; each handler populates only the fields its
// variant carries and serialization omits the rest. EventType always holds
// the public event name (e.g. "ALERT-INSERTED"); NomisEventType holds the
// raw trigger code (e.g. "OFF_ALERT_INSERT"). The two are never conflated.
//
// An event is built once by the Transformer, optionally mutated in place by
// the Enricher, then serialized and discarded. It is owned exclusively by
// the worker processing one message.
type OffenderEvent struct {
	EventType         string     `json:"eventType"`
	EventDatetime     *time.Time `json:"eventDatetime,omitempty"`
	BookingID         *int64     `json:"bookingId,omitempty"`
	OffenderID        *int64     `json:"offenderId,omitempty"`
	OffenderIDDisplay *string    `json:"offenderIdDisplay,omitempty"`
	NomisEventType    *string    `json:"nomisEventType,omitempty"`

	RootOffenderID            *int64  `json:"rootOffenderId,omitempty"`
	AliasOffenderID           *int64  `json:"aliasOffenderId,omitempty"`
	PreviousOffenderID        *int64  `json:"previousOffenderId,omitempty"`
	PreviousOffenderIDDisplay *string `json:"previousOffenderIdDisplay,omitempty"`

	// Booking
	BookingNumber         *string    `json:"bookingNumber,omitempty"`
	PreviousBookingNumber *string    `json:"previousBookingNumber,omitempty"`
	BookingStartDateTime  *time.Time `json:"bookingStartDateTime,omitempty"`
	LastAdmissionDate     *time.Time `json:"lastAdmissionDate,omitempty"`

	// Alerts
	AlertSeq       *int64     `json:"alertSeq,omitempty"`
	AlertDateTime  *time.Time `json:"alertDateTime,omitempty"`
	AlertType      *string    `json:"alertType,omitempty"`
	AlertCode      *string    `json:"alertCode,omitempty"`
	ExpiryDateTime *time.Time `json:"expiryDateTime,omitempty"`

	// External movements. Mutable after construction: enrichment fills the
	// agency/direction/type fields from the movement row.
	MovementSeq          *int64     `json:"movementSeq,omitempty"`
	MovementDateTime     *time.Time `json:"movementDateTime,omitempty"`
	MovementType         *string    `json:"movementType,omitempty"`
	MovementReasonCode   *string    `json:"movementReasonCode,omitempty"`
	DirectionCode        *string    `json:"directionCode,omitempty"`
	EscortCode           *string    `json:"escortCode,omitempty"`
	FromAgencyLocationID *string    `json:"fromAgencyLocationId,omitempty"`
	ToAgencyLocationID   *string    `json:"toAgencyLocationId,omitempty"`

	// Addresses, phones, emails
	AddressID          *int64     `json:"addressId,omitempty"`
	PersonID           *int64     `json:"personId,omitempty"`
	OwnerID            *int64     `json:"ownerId,omitempty"`
	OwnerClass         *string    `json:"ownerClass,omitempty"`
	AddressEndDate     *time.Time `json:"addressEndDate,omitempty"`
	AddressUsage       *string    `json:"addressUsage,omitempty"`
	PrimaryAddressFlag *string    `json:"primaryAddressFlag,omitempty"`
	MailAddressFlag    *string    `json:"mailAddressFlag,omitempty"`
	PhoneID            *int64     `json:"phoneId,omitempty"`
	PhoneType          *string    `json:"phoneType,omitempty"`
	InternetAddressID  *int64     `json:"internetAddressId,omitempty"`

	// Sentencing
	SentenceCalculationID *int64  `json:"sentenceCalculationId,omitempty"`
	SentenceSeq           *int64  `json:"sentenceSeq,omitempty"`
	SentenceAdjustmentID  *int64  `json:"sentenceAdjustmentId,omitempty"`
	KeyDateAdjustmentID   *int64  `json:"keyDateAdjustmentId,omitempty"`
	ConditionCode         *string `json:"conditionCode,omitempty"`
	SentenceConditionID   *int64  `json:"sentenceConditionId,omitempty"`
	SanctionSeq           *int64  `json:"sanctionSeq,omitempty"`

	// Imprisonment status and assessments
	ImprisonmentStatusSeq *int64 `json:"imprisonmentStatusSeq,omitempty"`
	AssessmentSeq         *int64 `json:"assessmentSeq,omitempty"`

	// Court
	CaseID       *int64 `json:"caseId,omitempty"`
	CourtEventID *int64 `json:"courtEventId,omitempty"`
	ChargeID     *int64 `json:"chargeId,omitempty"`
	ChargeSeq    *int64 `json:"chargeSeq,omitempty"`

	// Contacts and restrictions
	ContactPersonID       *int64     `json:"contactPersonId,omitempty"`
	PersonRestrictionID   *int64     `json:"personRestrictionId,omitempty"`
	OffenderRestrictionID *int64     `json:"offenderRestrictionId,omitempty"`
	VisitorRestrictionID  *int64     `json:"visitorRestrictionId,omitempty"`
	RestrictionType       *string    `json:"restrictionType,omitempty"`
	EffectiveDate         *time.Time `json:"effectiveDate,omitempty"`
	ExpiryDate            *time.Time `json:"expiryDate,omitempty"`
	ApprovedVisitorFlag   *string    `json:"approvedVisitorFlag,omitempty"`

	// Incidents
	IncidentCaseID         *int64 `json:"incidentCaseId,omitempty"`
	IncidentPartySeq       *int64 `json:"incidentPartySeq,omitempty"`
	IncidentRequirementSeq *int64 `json:"incidentRequirementSeq,omitempty"`
	IncidentQuestionSeq    *int64 `json:"incidentQuestionSeq,omitempty"`
	IncidentResponseSeq    *int64 `json:"incidentResponseSeq,omitempty"`

	// Bed assignments and locations
	BedAssignmentSeq *int64  `json:"bedAssignmentSeq,omitempty"`
	LivingUnitID     *int64  `json:"livingUnitId,omitempty"`
	AgencyLocationID *string `json:"agencyLocationId,omitempty"`

	// Incentive levels
	IepSeq   *int64  `json:"iepSeq,omitempty"`
	IepLevel *string `json:"iepLevel,omitempty"`

	// Health, education, employment, profile
	HealthProblemID *int64  `json:"healthProblemId,omitempty"`
	MaternityStatus *string `json:"maternityStatus,omitempty"`
	EducationID     *int64  `json:"educationId,omitempty"`
	EmploymentID    *int64  `json:"employmentId,omitempty"`
	ProfileType     *string `json:"profileType,omitempty"`

	// Identifiers
	IdentifierType  *string `json:"identifierType,omitempty"`
	IdentifierValue *string `json:"identifierValue,omitempty"`

	// Risk and non-association
	RiskPredictorID *int64 `json:"riskPredictorId,omitempty"`
	NsBookingID     *int64 `json:"nsBookingId,omitempty"`
	TypeSeq         *int64 `json:"typeSeq,omitempty"`

	// CSIP
	CsipReportID    *int64 `json:"csipReportId,omitempty"`
	CsipPlanID      *int64 `json:"csipPlanId,omitempty"`
	CsipReviewID    *int64 `json:"csipReviewId,omitempty"`
	CsipAttendeeID  *int64 `json:"csipAttendeeId,omitempty"`
	CsipFactorID    *int64 `json:"csipFactorId,omitempty"`
	CsipInterviewID *int64 `json:"csipInterviewId,omitempty"`

	// Audit
	AuditModuleName *string    `json:"auditModuleName,omitempty"`
	AuditTimestamp  *time.Time `json:"auditTimestamp,omitempty"`
}

// ToAttributeMap flattens the serialized event into a string-valued map,
// used as telemetry properties on successful publication.
func (e *OffenderEvent) ToAttributeMap() (map[string]string, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshalling event %s: %w", e.EventType, err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var generic map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("flattening event %s: %w", e.EventType, err)
	}
	flat := make(map[string]string, len(generic))
	for k, v := range generic {
		flat[k] = fmt.Sprintf("%v", v)
	}
	return flat, nil
}
