package billing

import (
	"fmt"

	"invoice-automation/backend/pkg/workflows"
)

var quotationLifecycle = workflows.NewStateMachine(map[string][]string{
	string(StatusDraft):    {string(StatusSent), string(StatusAccepted), string(StatusDeclined)},
	string(StatusSent):     {string(StatusAccepted), string(StatusDeclined)},
	string(StatusAccepted): {},
	string(StatusDeclined): {},
})

// checkQuotationTransition wraps disallowed moves in ErrInvalidStatus
func checkQuotationTransition(id string, from, to Status) error {
	if err := quotationLifecycle.Transition(string(from), string(to)); err != nil {
		return fmt.Errorf("%w: quotation %s: %v", ErrInvalidStatus, id, err)
	}
	return nil
}

// markSentOnDelivery reports whether emailing a quotation moves it to Sent
func markSentOnDelivery(status Status) bool {
	return status == StatusDraft && quotationLifecycle.CanTransition(string(status), string(StatusSent))
}
