// Package forex holds exchange-rate analysis primitives.
package forex

// Summary holds descriptive statistics over a rate series.
type Summary struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Highest  float64 `json:"highest"`
	Lowest   float64 `json:"lowest"`
	Count    int     `json:"count"`
}

// Stats computes mean, population variance, highest and lowest over the
// given series. An empty series yields a zero Summary.
func Stats(series []float64) Summary {
	if len(series) == 0 {
		return Summary{}
	}

	s := Summary{
		Highest: series[0],
		Lowest:  series[0],
		Count:   len(series),
	}

	var sum float64
	for _, v := range series {
		sum += v
		if v > s.Highest {
			s.Highest = v
		}
		if v < s.Lowest {
			s.Lowest = v
		}
	}
	s.Mean = sum / float64(len(series))

	var sq float64
	for _, v := range series {
		d := v - s.Mean
		sq += d * d
	}
	s.Variance = sq / float64(len(series))

	return s
}
