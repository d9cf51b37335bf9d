package domain

import "errors"

// Error kinds surfaced by the CRM gateway. Callers match with errors.Is.
var (
	ErrTransport         = errors.New("crm transport failure")
	ErrAuth              = errors.New("crm credentials rejected")
	ErrMalformedResponse = errors.New("crm response malformed")
	ErrNotFound          = errors.New("lead not found")
)
