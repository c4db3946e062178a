package scoring

import (
	"fmt"
	"math"
)

// Weights of the five factors. They must sum to 1.
type Weights struct {
	MutualStatus float64
	Age          float64
	Distance     float64
	Location     float64
	Lifestyle    float64
}

func DefaultWeights() Weights {
	return Weights{
		MutualStatus: 0.30,
		Age:          0.20,
		Distance:     0.20,
		Location:     0.15,
		Lifestyle:    0.15,
	}
}

func (w Weights) Sum() float64 {
	return w.MutualStatus + w.Age + w.Distance + w.Location + w.Lifestyle
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"mutual_status": w.MutualStatus,
		"age":           w.Age,
		"distance":      w.Distance,
		"location":      w.Location,
		"lifestyle":     w.Lifestyle,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	if math.Abs(w.Sum()-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %.6f", w.Sum())
	}
	return nil
}
