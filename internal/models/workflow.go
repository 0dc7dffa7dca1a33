package models

import "time"

// CheckoutStatus is the lifecycle state of a checkout workflow
type CheckoutStatus string

const (
	CheckoutStatusVerifying       CheckoutStatus = "verifying"
	CheckoutStatusAwaitingPayment CheckoutStatus = "awaiting_payment"
	CheckoutStatusProcessing      CheckoutStatus = "processing"
	CheckoutStatusConfirmed       CheckoutStatus = "confirmed"
	CheckoutStatusFailed          CheckoutStatus = "failed"
	CheckoutStatusExpired         CheckoutStatus = "expired"
	CheckoutStatusCancelled       CheckoutStatus = "cancelled"
)

// Terminal reports whether the workflow has finished.
func (s CheckoutStatus) Terminal() bool {
	switch s {
	case CheckoutStatusConfirmed, CheckoutStatusFailed, CheckoutStatusExpired, CheckoutStatusCancelled:
		return true
	}
	return false
}

// CheckoutRequest starts a checkout for seats the traveler already holds
type CheckoutRequest struct {
	Tickets     []FinalizeTicket `json:"seats"`
	PaymentCode string           `json:"paymentCode,omitempty"`
}

// CheckoutStarted is returned when the checkout workflow is running
type CheckoutStarted struct {
	CheckoutID string `json:"checkoutId"`
	WorkflowID string `json:"workflowId"`
}

// CheckoutWorkflowInput is the input of the checkout workflow. PaymentCode,
// when set, is used for the first authorization attempt without waiting for
// a signal.
type CheckoutWorkflowInput struct {
	CheckoutID  string           `json:"checkoutId"`
	TravelerID  string           `json:"travelerId"`
	Tickets     []FinalizeTicket `json:"seats"`
	PaymentCode string           `json:"paymentCode,omitempty"`
}

// CheckoutState is the workflow state exposed through the state query
type CheckoutState struct {
	CheckoutID      string         `json:"checkoutId"`
	TravelerID      string         `json:"travelerId"`
	Status          CheckoutStatus `json:"status"`
	Tickets         []string       `json:"tickets"`
	Amount          int            `json:"amount"`
	HoldExpiresAt   time.Time      `json:"holdExpiresAt"`
	PaymentAttempts int            `json:"paymentAttempts"`
	FailureReason   string         `json:"failureReason,omitempty"`
	LastUpdated     time.Time      `json:"lastUpdated"`
}

// Signals for workflow communication
const (
	SignalSubmitPayment  = "submit_payment"
	SignalCancelCheckout = "cancel_checkout"
)

// SubmitPaymentSignal carries a payment code for the next attempt
type SubmitPaymentSignal struct {
	PaymentCode string `json:"paymentCode"`
}

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// Activity inputs and results

type VerifyHoldsInput struct {
	TravelerID string           `json:"travelerId"`
	Tickets    []FinalizeTicket `json:"seats"`
}

type VerifyHoldsResult struct {
	Valid     bool      `json:"valid"`
	Amount    int       `json:"amount"`
	ExpiresAt time.Time `json:"expiresAt"`
	Error     string    `json:"error,omitempty"`
}

type AuthorizePaymentInput struct {
	CheckoutID  string `json:"checkoutId"`
	TravelerID  string `json:"travelerId"`
	Amount      int    `json:"amount"`
	PaymentCode string `json:"paymentCode"`
	Attempt     int    `json:"attempt"`
}

type AuthorizePaymentResult struct {
	Approved bool   `json:"approved"`
	Error    string `json:"error,omitempty"`
	CanRetry bool   `json:"canRetry"`
}

// RefundPaymentInput identifies the approved charge to return
type RefundPaymentInput struct {
	CheckoutID string `json:"checkoutId"`
	TravelerID string `json:"travelerId"`
	Amount     int    `json:"amount"`
	Attempt    int    `json:"attempt"`
}

type FinalizeTicketsInput struct {
	TravelerID string           `json:"travelerId"`
	Tickets    []FinalizeTicket `json:"seats"`
}

type FinalizeTicketsResult struct {
	Success bool     `json:"success"`
	Tickets []string `json:"tickets,omitempty"`
	Error   string   `json:"error,omitempty"`
}
