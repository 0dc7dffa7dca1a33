package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/payment"
)

// HoldService is the part of the hold manager the checkout needs
type HoldService interface {
	Quote(ctx context.Context, travelerID string, seats []holds.FinalizeSeat) (*holds.Quote, error)
	Finalize(ctx context.Context, travelerID string, seats []holds.FinalizeSeat) error
}

// Activities holds the dependencies of the checkout activities
type Activities struct {
	Holds     HoldService
	Authority payment.Authority
}

func New(h HoldService, authority payment.Authority) *Activities {
	return &Activities{Holds: h, Authority: authority}
}

// VerifyHolds activity - checks every seat is still a live hold of the
// traveler and prices the checkout
func (a *Activities) VerifyHolds(ctx context.Context, in models.VerifyHoldsInput) (*models.VerifyHoldsResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Verifying holds", "traveler", in.TravelerID, "seats", len(in.Tickets))

	quote, err := a.Holds.Quote(ctx, in.TravelerID, holds.FinalizeSeats(in.Tickets))
	if err != nil {
		if reason, ok := businessFailure(err); ok {
			logger.Warn("Holds not valid for checkout", "traveler", in.TravelerID, "reason", reason)
			return &models.VerifyHoldsResult{Valid: false, Error: reason}, nil
		}
		return nil, err
	}

	return &models.VerifyHoldsResult{
		Valid:     true,
		Amount:    quote.Amount,
		ExpiresAt: quote.ExpiresAt,
	}, nil
}

// AuthorizePayment activity - asks the payment authority to approve the charge
func (a *Activities) AuthorizePayment(ctx context.Context, in models.AuthorizePaymentInput) (*models.AuthorizePaymentResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Authorizing payment", "checkoutId", in.CheckoutID, "amount", in.Amount, "attempt", in.Attempt)

	decision, err := a.Authority.Authorize(ctx, payment.Charge{
		Reference:   chargeReference(in.CheckoutID, in.Attempt),
		TravelerID:  in.TravelerID,
		Amount:      in.Amount,
		PaymentCode: in.PaymentCode,
	})
	if err != nil {
		return nil, err
	}

	return &models.AuthorizePaymentResult{
		Approved: decision.Approved,
		Error:    decision.Reason,
		CanRetry: decision.CanRetry,
	}, nil
}

// RefundPayment activity - returns an approved charge whose tickets could
// not be issued
func (a *Activities) RefundPayment(ctx context.Context, in models.RefundPaymentInput) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Refunding payment", "checkoutId", in.CheckoutID, "amount", in.Amount, "attempt", in.Attempt)

	return a.Authority.Refund(ctx, payment.Charge{
		Reference:  chargeReference(in.CheckoutID, in.Attempt),
		TravelerID: in.TravelerID,
		Amount:     in.Amount,
	})
}

func chargeReference(checkoutID string, attempt int) string {
	return fmt.Sprintf("%s-%d", checkoutID, attempt)
}

// FinalizeTickets activity - converts the holds into tickets
func (a *Activities) FinalizeTickets(ctx context.Context, in models.FinalizeTicketsInput) (*models.FinalizeTicketsResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Finalizing tickets", "traveler", in.TravelerID, "seats", len(in.Tickets))

	err := a.Holds.Finalize(ctx, in.TravelerID, holds.FinalizeSeats(in.Tickets))
	if err != nil {
		if reason, ok := businessFailure(err); ok {
			return &models.FinalizeTicketsResult{Success: false, Error: reason}, nil
		}
		return nil, err
	}

	tickets := make([]string, len(in.Tickets))
	for i, s := range holds.FinalizeSeats(in.Tickets) {
		tickets[i] = s.TicketNumber()
	}
	return &models.FinalizeTicketsResult{Success: true, Tickets: tickets}, nil
}

// businessFailure reports errors that no retry can fix.
func businessFailure(err error) (string, bool) {
	var ve *holds.ValidationError
	switch {
	case errors.Is(err, holds.ErrHoldExpired):
		return holds.ErrHoldExpired.Error(), true
	case errors.As(err, &ve):
		return ve.Error(), true
	}
	return "", false
}
