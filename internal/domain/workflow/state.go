package workflow

// State represents a request line item status in the procurement lifecycle
type State string

const (
	StateDraft              State = "draft"
	StatePending            State = "pending"
	StateApproved           State = "approved"
	StateRejected           State = "rejected"
	StateRecheck            State = "recheck"
	StateReadyForCC         State = "ready_for_cc"
	StateCCPending          State = "cc_pending"
	StateCCApproved         State = "cc_approved"
	StateCCRejected         State = "cc_rejected"
	StateReadyForPO         State = "ready_for_po"
	StatePendingPO          State = "pending_po"
	StatePORejected         State = "po_rejected"
	StateDirectPO           State = "direct_po"
	StateOrdered            State = "ordered"
	StateOutForDelivery     State = "out_for_delivery"
	StateReadyForDelivery   State = "ready_for_delivery"
	StateDeliveryProcessing State = "delivery_processing"
	StateDeliveryStage      State = "delivery_stage"
	StatePartiallyProcessed State = "partially_processed"
	StateDelivered          State = "delivered"
)

var validStates = map[State]bool{
	StateDraft:              true,
	StatePending:            true,
	StateApproved:           true,
	StateRejected:           true,
	StateRecheck:            true,
	StateReadyForCC:         true,
	StateCCPending:          true,
	StateCCApproved:         true,
	StateCCRejected:         true,
	StateReadyForPO:         true,
	StatePendingPO:          true,
	StatePORejected:         true,
	StateDirectPO:           true,
	StateOrdered:            true,
	StateOutForDelivery:     true,
	StateReadyForDelivery:   true,
	StateDeliveryProcessing: true,
	StateDeliveryStage:      true,
	StatePartiallyProcessed: true,
	StateDelivered:          true,
}

var terminalStates = map[State]bool{
	StateRejected:  true,
	StateDelivered: true,
}

// deliverableStates are the statuses from which a site engineer may record
// a delivery confirmation against an item.
var deliverableStates = map[State]bool{
	StatePendingPO:          true,
	StateDirectPO:           true,
	StateOrdered:            true,
	StateOutForDelivery:     true,
	StateReadyForDelivery:   true,
	StateDeliveryProcessing: true,
	StateDeliveryStage:      true,
	StatePartiallyProcessed: true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsDeliverable returns true if delivery confirmations may be recorded in this state
func (s State) IsDeliverable() bool {
	return deliverableStates[s]
}

// IsValid returns true if the state is part of the closed lifecycle set
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
