package scoring

// Prices are in INR
type Prices struct {
	OneTime float64 `json:"one_time"`
	AMC     float64 `json:"amc"`
}

var pricing = map[ApplianceType]Prices{
	TypeAC:             {OneTime: 799, AMC: 999},
	TypeFridge:         {OneTime: 699, AMC: 799},
	TypeWashingMachine: {OneTime: 649, AMC: 749},
}

// PricingFor returns the price card shown after a diagnostic; unknown types get the AC card
func PricingFor(t ApplianceType) Prices {
	if p, ok := pricing[t]; ok {
		return p
	}
	return pricing[TypeAC]
}

// ServiceAmount prices a booking, falling back to DefaultServiceAmount
func ServiceAmount(t ApplianceType, serviceType string) float64 {
	p, ok := pricing[t]
	if !ok {
		return DefaultServiceAmount
	}
	switch serviceType {
	case ServiceOneTime:
		return p.OneTime
	case ServiceAMC:
		return p.AMC
	}
	return DefaultServiceAmount
}
