package handlers

import "testing"

func TestComparePeriodDays(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 7, false},
		{"1", 1, false},
		{"30", 30, false},
		{"90", 90, false},
		{"0", 0, true},
		{"91", 0, true},
		{"-7", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		got, err := comparePeriodDays(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("comparePeriodDays(%q): want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("comparePeriodDays(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("comparePeriodDays(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
