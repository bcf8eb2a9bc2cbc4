package provider

// Fault operations, the points where a policy may inject a failure
const (
	OpProcessPayment = "process_payment"
	OpHoldFunds      = "hold_funds"
	OpCaptureFunds   = "capture_funds"
	OpReleaseFunds   = "release_funds"
	OpRefundPayment  = "refund_payment"
	OpMobilePayment  = "mobile_payment"
)

// FaultPolicy decides whether a sandbox operation should fail. The key is the
// most specific identifier of the call: phone number for mobile payments,
// payment method id for charges and holds, hold id for captures and releases.
// Production wiring always uses NoFaults; failing policies live in test code.
type FaultPolicy interface {
	FaultFor(op string, key string) (reason string, fail bool)
}

// NoFaults is the production policy: every sandbox operation succeeds
type NoFaults struct{}

// FaultFor never injects a failure
func (NoFaults) FaultFor(string, string) (string, bool) {
	return "", false
}
