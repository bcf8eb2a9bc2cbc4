package provider

// ZamtelKwacha is the sandbox adapter for the Zamtel Kwacha wallet rail
type ZamtelKwacha struct {
	mobileSandbox
}

// NewZamtelKwacha creates the Zamtel Kwacha adapter
func NewZamtelKwacha(faults FaultPolicy) *ZamtelKwacha {
	return &ZamtelKwacha{mobileSandbox{
		newSandboxCore("Zamtel Kwacha", "ZK", "ZKH", "ZKR", "ZAMTEL", faults),
	}}
}
