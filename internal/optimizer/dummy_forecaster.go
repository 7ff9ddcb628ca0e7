package optimizer

import (
	"context"

	"github.com/cloudarb/allocation-optimizer/internal/interfaces"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// DummyForecaster predicts every offered price as the current price scaled by
// a per provider factor. Providers without a factor get no forecast.
type DummyForecaster struct {
	Factors map[string]float64 // provider id -> factor
	Err     error
}

func NewDummyForecaster(factors map[string]float64) *DummyForecaster {
	return &DummyForecaster{Factors: factors}
}

func (f *DummyForecaster) Forecast(ctx context.Context, options []*core.InstanceOption) (map[string]*interfaces.PriceForecast, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[string]*interfaces.PriceForecast)
	for _, o := range options {
		factor, ok := f.Factors[o.ProviderID]
		if !ok {
			continue
		}
		prices := make(map[core.PricingMode]float64)
		for _, m := range o.Modes() {
			p, _ := o.Price(m)
			prices[m] = p * factor
		}
		out[o.Key()] = &interfaces.PriceForecast{Prices: prices, Confidence: 1}
	}
	return out, nil
}
