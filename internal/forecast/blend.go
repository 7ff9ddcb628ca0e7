package forecast

import (
	"math"

	"k8s.io/utils/ptr"

	"github.com/cloudarb/allocation-optimizer/internal/interfaces"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// DefaultAlpha is the weight given to forecasted prices.
const DefaultAlpha = 0.3

// Blend returns a copy of the catalog in which every offered price is mixed
// with its forecast as (1-alpha)*current + alpha*forecast. Modes that are not
// offered stay unoffered, and invalid forecast values are ignored. The input
// options are not modified.
func Blend(options []*core.InstanceOption, forecasts map[string]*interfaces.PriceForecast, alpha float64) []*core.InstanceOption {
	alpha = math.Max(0, math.Min(1, alpha))
	out := make([]*core.InstanceOption, len(options))
	for i, o := range options {
		f, ok := forecasts[o.Key()]
		if !ok || f == nil || alpha == 0 {
			out[i] = o
			continue
		}
		blended := *o
		blended.OnDemandPrice = blendPrice(o.OnDemandPrice, f, core.OnDemand, alpha)
		blended.SpotPrice = blendPrice(o.SpotPrice, f, core.Spot, alpha)
		blended.Reserved1YPrice = blendPrice(o.Reserved1YPrice, f, core.Reserved1Y, alpha)
		blended.Reserved3YPrice = blendPrice(o.Reserved3YPrice, f, core.Reserved3Y, alpha)
		out[i] = &blended
	}
	return out
}

func blendPrice(current *float64, f *interfaces.PriceForecast, mode core.PricingMode, alpha float64) *float64 {
	if current == nil {
		return nil
	}
	predicted, ok := f.Prices[mode]
	if !ok || predicted < 0 || math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return current
	}
	return ptr.To((1-alpha)*(*current) + alpha*predicted)
}
