package provider

// MTNMoMo is the sandbox adapter for the MTN Mobile Money rail
type MTNMoMo struct {
	mobileSandbox
}

// NewMTNMoMo creates the MTN MoMo adapter
func NewMTNMoMo(faults FaultPolicy) *MTNMoMo {
	return &MTNMoMo{mobileSandbox{
		newSandboxCore("MTN Mobile Money", "MTN", "MTNH", "MTNR", "MOMO", faults),
	}}
}
