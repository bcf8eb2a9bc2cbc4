package provider

// AirtelMoney is the sandbox adapter for the Airtel Money wallet rail
type AirtelMoney struct {
	mobileSandbox
}

// NewAirtelMoney creates the Airtel Money adapter. Production deployments
// replace the sandbox core with the live Airtel API while keeping this
// contract.
func NewAirtelMoney(faults FaultPolicy) *AirtelMoney {
	return &AirtelMoney{mobileSandbox{
		newSandboxCore("Airtel Money", "AM", "AMH", "AMR", "AIRTEL", faults),
	}}
}
