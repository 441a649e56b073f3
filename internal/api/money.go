package api

import (
	"github.com/bharatvest/sim-engine/internal/model"
)

// ValuationDisplay is a Valuation formatted for people.
type ValuationDisplay struct {
	TotalInvestment string `json:"total_investment"`
	CurrentValue    string `json:"current_value"`
	OverallPL       string `json:"overall_pl"`
}

func displayValuation(v model.Valuation) ValuationDisplay {
	return ValuationDisplay{
		TotalInvestment: model.INR(v.TotalInvestment),
		CurrentValue:    model.INR(v.CurrentValue),
		OverallPL:       model.INR(v.OverallPL),
	}
}
