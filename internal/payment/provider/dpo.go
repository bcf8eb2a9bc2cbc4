package provider

// DPO is the sandbox adapter for the DPO Group card rail
type DPO struct {
	cardSandbox
}

// NewDPO creates the DPO adapter
func NewDPO(faults FaultPolicy) *DPO {
	return &DPO{cardSandbox{
		sandboxCore: newSandboxCore("DPO Group", "DPO", "DPOH", "DPOR", "DPO", faults),
		tokenPrefix: "tok_DPO",
	}}
}
