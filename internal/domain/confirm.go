package domain

type ConfirmationStatus string

const (
	ConfirmationPending  ConfirmationStatus = "pending"
	ConfirmationAllowed  ConfirmationStatus = "allowed"
	ConfirmationRejected ConfirmationStatus = "rejected"
)

// PendingConfirmation is a risky command awaiting a human decision. RequestID
// is unique per request and never reused; Status leaves pending exactly once.
type PendingConfirmation struct {
	Command   string
	Cwd       string
	RequestID string
	Status    ConfirmationStatus
}
