package xtag

import (
	"strconv"
	"time"
)

// Xtag is one raw trigger event as received from the source queue.
// EventType is nil when the transport delivered no usable type code; such
// messages are dropped by the transformer.
type Xtag struct {
	EventType *string
	Timestamp time.Time
	Content   Content
}

// EventTypeAttribute is the SQS message attribute carrying the raw trigger
// code.
const EventTypeAttribute = "eventType"

// FromMessage assembles an Xtag from the decoded transport parts: the
// optional raw code, the enqueue time in epoch milliseconds (SQS
// SentTimestamp), and the JSON body of p_* fields. The enqueue time gets the
// BST correction applied; an unparsable SentTimestamp falls back to now.
func FromMessage(eventType *string, sentTimestampMillis string, body []byte) Xtag {
	content, _ := ContentFromJSON(body)

	enqueued := time.Now().UTC()
	if ms, err := strconv.ParseInt(sentTimestampMillis, 10, 64); err == nil {
		enqueued = time.UnixMilli(ms).UTC()
	}

	return Xtag{
		EventType: eventType,
		Timestamp: AdjustEnqueueTime(enqueued),
		Content:   content,
	}
}
