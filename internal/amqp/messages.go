package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventTransactionMaterialized = "transaction.materialized"

	KindExpense = "expense"
	KindIncome  = "income"
)

// TransactionEvent announces a transaction created from a recurring
// template. It only carries identifiers; consumers read the full record
// from the ledger.
type TransactionEvent struct {
	Type          string    `json:"type"`
	Kind          string    `json:"kind"`
	UserID        string    `json:"userID"`
	TransactionID string    `json:"transactionID"`
	TemplateID    string    `json:"templateID"`
	OccurredOn    time.Time `json:"occurredOn"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewMaterializedEvent(kind, userID, transactionID, templateID string, occurredOn time.Time) *TransactionEvent {
	return &TransactionEvent{
		Type:          EventTransactionMaterialized,
		Kind:          kind,
		UserID:        userID,
		TransactionID: transactionID,
		TemplateID:    templateID,
		OccurredOn:    occurredOn,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case KindExpense, KindIncome:
	default:
		return nil, fmt.Errorf("unknown transaction kind %q", msg.Kind)
	}
	if msg.UserID == "" || msg.TransactionID == "" {
		return nil, fmt.Errorf("event is missing user or transaction id")
	}
	return &msg, nil
}
