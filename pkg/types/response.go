package types

// SuccessEnvelope is the uniform happy-path response body.
type SuccessEnvelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// ErrorEnvelope is the uniform failure response body. Reason is the stable
// machine-readable token forms key their friendly copy off.
type ErrorEnvelope struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
