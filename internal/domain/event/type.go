package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated    Type = "request.created"
	TypeRequestSent       Type = "request.sent"
	TypeRequestApproved   Type = "request.approved"
	TypeRequestRejected   Type = "request.rejected"
	TypeRequestRecheck    Type = "request.recheck"
	TypeCCSubmitted       Type = "cost_comparison.submitted"
	TypeCCApproved        Type = "cost_comparison.approved"
	TypeCCRejected        Type = "cost_comparison.rejected"
	TypePOIssued          Type = "purchase_order.issued"
	TypePORejected        Type = "purchase_order.rejected"
	TypeDeliveryConfirmed Type = "delivery.confirmed"
	TypeItemDelivered     Type = "item.delivered"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestSent,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestRecheck,
		TypeCCSubmitted,
		TypeCCApproved,
		TypeCCRejected,
		TypePOIssued,
		TypePORejected,
		TypeDeliveryConfirmed,
		TypeItemDelivered:
		return true
	default:
		return false
	}
}
