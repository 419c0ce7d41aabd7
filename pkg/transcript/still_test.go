package transcript

import "testing"

func TestIsCGStill(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"bg_a42", true},
		{"bg_a000042", true},
		{"bg_a1", true},
		{"bg_a99", true},
		{"bg_a0", false},
		{"bg_a100", false},
		{"bg_a150", false},
		{"bg_a", false},
		{"bg_a12x", false},
		{"bg_s01", true},
		{"bg_s", true},
		{"bg_x01", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCGStill(tt.name); got != tt.want {
			t.Errorf("IsCGStill(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
