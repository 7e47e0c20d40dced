package svgmaker

import (
	"github.com/GenWaveLLC/svgmaker-go/internal/json"
)

// envelope is the uniform wrapper the service puts around every JSON
// response. Success and Error are mutually exclusive in a well-formed
// response, but the transport never assumes that.
type envelope struct {
	Success  *bool           `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    *errorInfo      `json:"error"`
	Metadata *Metadata       `json:"metadata"`
}

// enveloped reports whether the body actually carried the wrapper shape.
// Legacy responses are plain JSON with none of the envelope fields.
func (e *envelope) enveloped() bool {
	return e.Success != nil || e.Error != nil || len(e.Data) > 0
}

// errorInfo is the service's error payload inside the envelope.
type errorInfo struct {
	Code    string         `json:"code"`
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// Metadata is attached by the service to every enveloped response.
type Metadata struct {
	// RequestID identifies the request in service-side logs; quote it in
	// support requests.
	RequestID string `json:"requestId"`

	// CreditsUsed is the credit cost charged for this operation.
	CreditsUsed float64 `json:"creditsUsed"`

	// CreditsRemaining is the account balance after this operation.
	CreditsRemaining float64 `json:"creditsRemaining"`
}
