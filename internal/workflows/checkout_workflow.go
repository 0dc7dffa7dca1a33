package workflows

import (
	"time"

	"github.com/samber/lo"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sabscarpenter/skytravel/internal/activities"
	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/models"
)

const (
	// PaymentTimeout is how long the payment authority has to answer
	PaymentTimeout = 10 * time.Second
	// MaxPaymentAttempts is the maximum number of payment attempts per checkout
	MaxPaymentAttempts = 3

	workflowIDPrefix = "checkout-"
)

// WorkflowID is the Temporal workflow id of a checkout.
func WorkflowID(checkoutID string) string {
	return workflowIDPrefix + checkoutID
}

// CheckoutResult is the result of the checkout workflow
type CheckoutResult struct {
	Success       bool                  `json:"success"`
	Status        models.CheckoutStatus `json:"status"`
	Tickets       []string              `json:"tickets,omitempty"`
	FailureReason string                `json:"failureReason,omitempty"`
}

// CheckoutWorkflow verifies the traveler's holds, collects payment and
// finalizes the holds into tickets. It gives up when the earliest hold
// lapses, after MaxPaymentAttempts declines, or on a cancel signal.
func CheckoutWorkflow(ctx workflow.Context, input models.CheckoutWorkflowInput) (*CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Checkout workflow started", "checkoutId", input.CheckoutID, "traveler", input.TravelerID)

	state := &models.CheckoutState{
		CheckoutID:  input.CheckoutID,
		TravelerID:  input.TravelerID,
		Status:      models.CheckoutStatusVerifying,
		Tickets:     ticketNumbers(input.Tickets),
		LastUpdated: workflow.Now(ctx),
	}
	setStatus := func(status models.CheckoutStatus, reason string) {
		state.Status = status
		state.FailureReason = reason
		state.LastUpdated = workflow.Now(ctx)
	}

	if err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (*models.CheckoutState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	// No automatic retries for payment
	paymentCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: PaymentTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var a *activities.Activities

	var verify models.VerifyHoldsResult
	if err := workflow.ExecuteActivity(ctx, a.VerifyHolds, models.VerifyHoldsInput{
		TravelerID: input.TravelerID,
		Tickets:    input.Tickets,
	}).Get(ctx, &verify); err != nil {
		logger.Error("Failed to verify holds", "error", err)
		setStatus(models.CheckoutStatusFailed, "could not verify holds")
		return nil, err
	}
	if !verify.Valid {
		setStatus(models.CheckoutStatusFailed, verify.Error)
		return result(state), nil
	}

	state.Amount = verify.Amount
	state.HoldExpiresAt = verify.ExpiresAt
	setStatus(models.CheckoutStatusAwaitingPayment, "")

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	defer cancelTimer()
	holdTimer := workflow.NewTimer(timerCtx, verify.ExpiresAt.Sub(workflow.Now(ctx)))

	paymentCh := workflow.GetSignalChannel(ctx, models.SignalSubmitPayment)
	cancelCh := workflow.GetSignalChannel(ctx, models.SignalCancelCheckout)

	pendingCode := input.PaymentCode
	for !state.Status.Terminal() {
		if pendingCode == "" {
			selector := workflow.NewSelector(ctx)
			selector.AddReceive(paymentCh, func(c workflow.ReceiveChannel, more bool) {
				var signal models.SubmitPaymentSignal
				c.Receive(ctx, &signal)
				logger.Info("Payment submitted", "attempt", state.PaymentAttempts+1)
				pendingCode = signal.PaymentCode
			})
			selector.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				logger.Info("Checkout cancelled", "checkoutId", input.CheckoutID)
				setStatus(models.CheckoutStatusCancelled, "cancelled by traveler")
			})
			selector.AddFuture(holdTimer, func(f workflow.Future) {
				logger.Info("Seat hold expired before payment", "checkoutId", input.CheckoutID)
				setStatus(models.CheckoutStatusExpired, "seat hold expired")
			})
			selector.Select(ctx)
			continue
		}

		code := pendingCode
		pendingCode = ""

		if !workflow.Now(ctx).Before(state.HoldExpiresAt) {
			setStatus(models.CheckoutStatusExpired, "seat hold expired")
			break
		}

		state.PaymentAttempts++
		setStatus(models.CheckoutStatusProcessing, "")

		var auth models.AuthorizePaymentResult
		if err := workflow.ExecuteActivity(paymentCtx, a.AuthorizePayment, models.AuthorizePaymentInput{
			CheckoutID:  input.CheckoutID,
			TravelerID:  input.TravelerID,
			Amount:      state.Amount,
			PaymentCode: code,
			Attempt:     state.PaymentAttempts,
		}).Get(ctx, &auth); err != nil {
			logger.Error("Payment activity failed", "error", err)
			auth = models.AuthorizePaymentResult{Approved: false, Error: "payment authority unavailable", CanRetry: true}
		}

		if !auth.Approved {
			logger.Info("Payment failed", "attempt", state.PaymentAttempts, "maxAttempts", MaxPaymentAttempts)
			if !auth.CanRetry || state.PaymentAttempts >= MaxPaymentAttempts {
				setStatus(models.CheckoutStatusFailed, auth.Error)
				break
			}
			setStatus(models.CheckoutStatusAwaitingPayment, auth.Error)
			continue
		}

		// From here the traveler has been charged; any failure to issue the
		// tickets must return the money.
		refund := func(reason string) error {
			err := workflow.ExecuteActivity(ctx, a.RefundPayment, models.RefundPaymentInput{
				CheckoutID: input.CheckoutID,
				TravelerID: input.TravelerID,
				Amount:     state.Amount,
				Attempt:    state.PaymentAttempts,
			}).Get(ctx, nil)
			if err != nil {
				logger.Error("Failed to refund payment", "checkoutId", input.CheckoutID, "error", err)
				setStatus(models.CheckoutStatusFailed, reason+"; refund failed")
				return err
			}
			logger.Info("Payment refunded", "checkoutId", input.CheckoutID, "amount", state.Amount)
			setStatus(models.CheckoutStatusFailed, reason+"; payment refunded")
			return nil
		}

		var fin models.FinalizeTicketsResult
		if err := workflow.ExecuteActivity(ctx, a.FinalizeTickets, models.FinalizeTicketsInput{
			TravelerID: input.TravelerID,
			Tickets:    input.Tickets,
		}).Get(ctx, &fin); err != nil {
			logger.Error("Failed to finalize tickets", "error", err)
			if refundErr := refund("could not finalize tickets"); refundErr != nil {
				return nil, refundErr
			}
			return nil, err
		}

		if !fin.Success {
			if err := refund(fin.Error); err != nil {
				return nil, err
			}
			break
		}
		state.Tickets = fin.Tickets
		setStatus(models.CheckoutStatusConfirmed, "")
		logger.Info("Checkout confirmed", "checkoutId", input.CheckoutID, "tickets", fin.Tickets)
	}

	return result(state), nil
}

func result(state *models.CheckoutState) *CheckoutResult {
	return &CheckoutResult{
		Success:       state.Status == models.CheckoutStatusConfirmed,
		Status:        state.Status,
		Tickets:       state.Tickets,
		FailureReason: state.FailureReason,
	}
}

func ticketNumbers(tickets []models.FinalizeTicket) []string {
	return lo.Map(holds.FinalizeSeats(tickets), func(s holds.FinalizeSeat, _ int) string { return s.TicketNumber() })
}
