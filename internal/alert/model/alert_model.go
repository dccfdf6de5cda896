package model

import (
	"time"

	anomalyModel "github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/google/uuid"
)

func NewAlert(building string, anomalies []anomalyModel.Anomaly) Alert {
	return Alert{
		ID:        uuid.New(),
		Building:  building,
		Anomalies: anomalies,
		CreatedAt: time.Now().UTC(),
	}
}

// Alert is a batch of anomalies of one building awaiting delivery.
type Alert struct {
	ID        uuid.UUID              `json:"id"`
	Building  string                 `json:"building"`
	Anomalies []anomalyModel.Anomaly `json:"anomalies"`
	// Target is set when only this target still owes the batch.
	Target    string    `json:"target,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
