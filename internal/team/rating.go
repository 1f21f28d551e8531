package team

// Weights controls how the base rating and the factor-derived rating are
// blended into the final 0-100 rating.
type Weights struct {
	Base   float64
	Factor float64
}

// DefaultWeights blends 60% base rating with 40% factor rating.
var DefaultWeights = Weights{Base: 0.6, Factor: 0.4}

// Rating computes the team's rating with DefaultWeights.
func (t *Team) Rating(active ...ModifierName) float64 {
	return DefaultWeights.Rating(t, active)
}

// Rating returns the team's rating in [0,100] given the active modifiers.
//
// A team without factors always rates at its base rating. Otherwise each
// factor is scaled by the summed percentages of every active modifier the
// team responds to, clamped to [0,1], averaged, and blended with the base
// rating. Active names the team has no response for are ignored, and a name
// listed twice counts once.
func (w Weights) Rating(t *Team, active []ModifierName) float64 {
	if len(t.factors) == 0 {
		return t.base
	}
	// Also catches NaN weights.
	if !(w.Base+w.Factor > 0) {
		w = DefaultWeights
	}

	mods := t.responsesTo(active)

	var sum float64
	for _, f := range t.factors {
		value := f.Value
		if len(mods) > 0 {
			var total float64
			for _, m := range mods {
				total += m.Percentage(f.Name)
			}
			value = clamp(value*(1+total), MinFactorValue, MaxFactorValue)
		}
		sum += value
	}
	factorRating := clamp(sum/float64(len(t.factors))*MaxRating, MinRating, MaxRating)

	weighted := (t.base*w.Base + factorRating*w.Factor) / (w.Base + w.Factor)
	return clamp(weighted, MinRating, MaxRating)
}

func (t *Team) responsesTo(active []ModifierName) []Modifier {
	if len(active) == 0 {
		return nil
	}
	seen := make(map[ModifierName]bool, len(active))
	var mods []Modifier
	for _, name := range active {
		if seen[name] {
			continue
		}
		seen[name] = true
		if m, ok := t.responses[name]; ok {
			mods = append(mods, m)
		}
	}
	return mods
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
