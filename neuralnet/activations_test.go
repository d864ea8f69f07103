package neuralnet

import "testing"

func TestReLUActivate(t *testing.T) {
	r := ReLU{}
	if got := r.Activate(-1); got != 0 {
		t.Errorf("ReLU.Activate(-1) = %v; want 0", got)
	}
	if got := r.Activate(2); got != 2 {
		t.Errorf("ReLU.Activate(2) = %v; want 2", got)
	}
	if got := r.Activate(0); got != 0 {
		t.Errorf("ReLU.Activate(0) = %v; want 0", got)
	}
}

func TestReLUDerivative(t *testing.T) {
	r := ReLU{}
	tests := []struct {
		in   float64
		want float64
	}{
		{-2, 0},
		{-1e-12, 0},
		{0, 1},
		{1e-12, 1},
		{3, 1},
	}
	for _, tt := range tests {
		if got := r.Derivative(tt.in); got != tt.want {
			t.Errorf("ReLU.Derivative(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
