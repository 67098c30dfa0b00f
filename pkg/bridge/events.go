package bridge

import (
	"math/big"
	"time"
)

// EventType identifies a state transition published to observers.
type EventType string

const (
	EventTransferInitiated EventType = "transfer_initiated"
	EventTransferApproved  EventType = "transfer_approved"
	EventTransferValidated EventType = "transfer_validated"
	EventTransferCompleted EventType = "transfer_completed"
	EventTransferCancelled EventType = "transfer_cancelled"
	EventBridgePaused      EventType = "bridge_paused"
	EventBridgeUnpaused    EventType = "bridge_unpaused"
)

// Event carries the fields of a successful state transition. Events are
// published after the owning transaction commits, so observers never see a
// transition that was rolled back.
type Event struct {
	Type          EventType `json:"type"`
	TransferID    string    `json:"transfer_id,omitempty"`
	Direction     Direction `json:"direction,omitempty"`
	Token         string    `json:"token,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Sender        string    `json:"sender,omitempty"`
	Recipient     string    `json:"recipient,omitempty"`
	SourceNetwork string    `json:"source_network,omitempty"`
	TargetNetwork string    `json:"target_network,omitempty"`
	Validator     string    `json:"validator,omitempty"`
	At            time.Time `json:"at"`
}

// Sink receives events; off-chain relayers and statistics collectors
// subscribe through an implementation such as events.Bus.
type Sink interface {
	Publish(event Event)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Publish(Event) {}

func transferEvent(typ EventType, t *Transfer, at time.Time) Event {
	amount := ""
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return Event{
		Type:          typ,
		TransferID:    t.ID,
		Direction:     t.Direction,
		Token:         localToken(t),
		Amount:        amount,
		Sender:        t.Sender,
		Recipient:     t.Recipient,
		SourceNetwork: t.SourceNetwork,
		TargetNetwork: t.TargetNetwork,
		At:            at,
	}
}

// localToken returns the token custodied on this side of the bridge: the
// source token of an outbound transfer, the target token of an inbound one.
func localToken(t *Transfer) string {
	if t.Direction == DirectionOutbound {
		return t.SourceToken
	}
	return t.TargetToken
}

// amountString is a nil-safe big.Int formatter for logs and events.
func amountString(a *big.Int) string {
	if a == nil {
		return "0"
	}
	return a.String()
}
