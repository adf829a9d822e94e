package billing

import (
	"itineramio/internal/model"
)

// allowed lists the legal targets of the status-update operation.
// DRAFT/PROFORMA -> ISSUED is deliberately absent: it only happens through Issue.
var allowed = map[string][]string{
	model.InvoiceDraft:    {model.InvoiceProforma},
	model.InvoiceProforma: {model.InvoiceDraft},
	model.InvoiceIssued:   {model.InvoiceSent, model.InvoicePaid, model.InvoiceOverdue},
	model.InvoiceSent:     {model.InvoicePaid, model.InvoiceOverdue},
	model.InvoiceOverdue:  {model.InvoicePaid},
	model.InvoicePaid:     {},
}

// AllowedTargets returns the statuses reachable from current through a status update.
func AllowedTargets(current string) []string {
	out := make([]string, len(allowed[current]))
	copy(out, allowed[current])
	return out
}

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s string) bool {
	_, ok := allowed[s]
	return ok
}

// Transition checks a status update from current to target.
func Transition(current, target string) error {
	if target == model.InvoiceIssued &&
		(current == model.InvoiceDraft || current == model.InvoiceProforma) {
		return ErrUseIssueEndpoint
	}
	for _, s := range allowed[current] {
		if s == target {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, To: target}
}

// CanIssue reports whether an invoice in status can be issued.
func CanIssue(status string, fullNumber *string) error {
	if fullNumber != nil {
		return ErrAlreadyIssued
	}
	if status != model.InvoiceDraft && status != model.InvoiceProforma {
		return ErrNotIssuable
	}
	return nil
}
