package database

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opendxi/backend/internal/types"
)

// SprintRecord is one cached sprint entry. The payload is stored as the
// exact JSON produced at write time, so repeated reads return
// byte-identical data.
type SprintRecord struct {
	ID          string    `json:"id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	PayloadJSON []byte    `json:"-"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSprintRecord builds a record for a freshly computed payload.
func NewSprintRecord(window types.SprintWindow, payloadJSON []byte) *SprintRecord {
	now := time.Now().UTC()
	return &SprintRecord{
		ID:          uuid.New().String(),
		StartDate:   window.StartDate,
		EndDate:     window.EndDate,
		PayloadJSON: payloadJSON,
		ContentHash: ContentHash(payloadJSON),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Window returns the record's identity pair.
func (r *SprintRecord) Window() types.SprintWindow {
	return types.SprintWindow{StartDate: r.StartDate, EndDate: r.EndDate}
}

// Payload decodes the stored JSON into the payload value object.
func (r *SprintRecord) Payload() (types.Payload, error) {
	var payload types.Payload
	if err := json.Unmarshal(r.PayloadJSON, &payload); err != nil {
		return types.Payload{}, fmt.Errorf("failed to decode stored payload: %w", err)
	}
	return payload, nil
}

// ContentHash digests a payload document into an opaque freshness token
// callers can use for conditional reads.
func ContentHash(payloadJSON []byte) string {
	return fmt.Sprintf("%x", md5.Sum(payloadJSON))
}
