package cadence

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestDefaultParametersWithinBounds(t *testing.T) {
	w := DefaultParameters.Vector()
	for i := range w {
		if w[i] < LowerBounds[i] || w[i] > UpperBounds[i] {
			t.Errorf("w[%d] = %f, out of [%f, %f]", i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
}

func TestLowerBoundsLessThanUpper(t *testing.T) {
	for i := 0; i < NumWeights; i++ {
		if LowerBounds[i] > UpperBounds[i] {
			t.Errorf("LowerBounds[%d] = %f > UpperBounds[%d] = %f",
				i, LowerBounds[i], i, UpperBounds[i])
		}
	}
}

func TestVectorOrder(t *testing.T) {
	w := DefaultParameters.Vector()
	want := [NumWeights]float64{
		0.4, 0.6, 2.4, 5.8,
		4.93, 0.94, 0.86, 0.01,
		1.49, 0.14, 0.94,
		2.18, 0.05, 0.34, 1.26,
		0.29, 2.61,
	}
	if w != want {
		t.Errorf("Vector() = %v, want %v", w, want)
	}
}

func TestParametersFromVectorInverse(t *testing.T) {
	var w [NumWeights]float64
	for i := range w {
		w[i] = float64(i) + 0.5
	}
	if got := ParametersFromVector(w).Vector(); got != w {
		t.Errorf("round trip = %v, want %v", got, w)
	}
	if got := ParametersFromVector(DefaultParameters.Vector()); got != DefaultParameters {
		t.Errorf("ParametersFromVector(Vector()) = %+v", got)
	}
}

func TestStabilityTableFor(t *testing.T) {
	tbl := DefaultParameters.InitialStability
	tests := []struct {
		g    Grade
		want float64
	}{
		{Forgot, 0.4}, {Hard, 0.6}, {Good, 2.4}, {Easy, 5.8}, {Grade(0), 2.4},
	}
	for _, tt := range tests {
		if got := tbl.For(tt.g); got != tt.want {
			t.Errorf("For(%s) = %f, want %f", tt.g, got, tt.want)
		}
	}
}

func TestValidateParametersValid(t *testing.T) {
	if err := ValidateParameters(DefaultParameters); err != nil {
		t.Errorf("ValidateParameters(DefaultParameters) = %v, want nil", err)
	}
}

func TestValidateParametersBelowLower(t *testing.T) {
	p := DefaultParameters
	p.InitialStability.Forgot = LowerBounds[0] - 1.0
	err := ValidateParameters(p)
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("error should wrap ErrInvalidParameters, got %v", err)
	}
}

func TestValidateParametersAboveUpper(t *testing.T) {
	p := DefaultParameters
	p.Recall.EasyBonus = UpperBounds[16] + 1.0
	err := ValidateParameters(p)
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("error should wrap ErrInvalidParameters, got %v", err)
	}
}

func TestValidateParametersNaN(t *testing.T) {
	p := DefaultParameters
	p.Forget.DifficultyDecay = math.NaN()
	if err := ValidateParameters(p); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("NaN weight: err = %v, want ErrInvalidParameters", err)
	}
}

func TestValidateParametersExactBounds(t *testing.T) {
	if err := ValidateParameters(ParametersFromVector(LowerBounds)); err != nil {
		t.Errorf("lower bounds: %v, want nil", err)
	}
	if err := ValidateParameters(ParametersFromVector(UpperBounds)); err != nil {
		t.Errorf("upper bounds: %v, want nil", err)
	}
}

func TestClampParameters(t *testing.T) {
	var w [NumWeights]float64
	for i := range w {
		w[i] = 1000
	}
	if got := ClampParameters(ParametersFromVector(w)).Vector(); got != UpperBounds {
		t.Errorf("clamp high = %v, want UpperBounds", got)
	}
	for i := range w {
		w[i] = -1000
	}
	if got := ClampParameters(ParametersFromVector(w)).Vector(); got != LowerBounds {
		t.Errorf("clamp low = %v, want LowerBounds", got)
	}
	if got := ClampParameters(DefaultParameters); got != DefaultParameters {
		t.Errorf("clamping defaults changed them: %+v", got)
	}
}

func TestParametersJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(DefaultParameters)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["initial_stability"]["good"] != 2.4 {
		t.Errorf("initial_stability.good = %v", raw["initial_stability"]["good"])
	}
	if raw["recall"]["easy_bonus"] != 2.61 {
		t.Errorf("recall.easy_bonus = %v", raw["recall"]["easy_bonus"])
	}
	if raw["forget"]["scale"] != 2.18 {
		t.Errorf("forget.scale = %v", raw["forget"]["scale"])
	}
}
