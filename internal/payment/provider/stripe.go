package provider

// Stripe is the sandbox adapter for the Stripe card rail
type Stripe struct {
	cardSandbox
}

// NewStripe creates the Stripe adapter
func NewStripe(faults FaultPolicy) *Stripe {
	return &Stripe{cardSandbox{
		sandboxCore: newSandboxCore("Stripe", "STRIPE", "STRIPEH", "STRIPER", "STRIPE", faults),
		tokenPrefix: "tok_STRIPE",
	}}
}
