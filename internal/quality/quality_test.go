package quality

import "testing"

func TestGrade(t *testing.T) {
	cases := []struct {
		name    string
		temp    float64
		fat     float64
		protein float64
		want    string
	}{
		{"cold rich milk", 4.0, 3.8, 3.4, "A"},
		{"exactly grade A thresholds", 6.0, 3.5, 3.2, "A"},
		{"slightly warm", 8.0, 3.6, 3.3, "B"},
		{"exactly grade B thresholds", 10.0, 3.0, 2.8, "B"},
		{"cold but low fat", 4.0, 2.5, 3.4, "C"},
		{"warm milk", 12.0, 3.8, 3.4, "C"},
		{"thin and warm", 15.0, 2.0, 2.0, "C"},
		{"cold but low protein", 4.0, 3.8, 2.5, "C"},
		{"rich but barely grade B composition", 8.0, 3.2, 3.0, "B"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Grade(tc.temp, tc.fat, tc.protein); got != tc.want {
				t.Errorf("Grade(%.1f, %.1f, %.1f) = %s, want %s",
					tc.temp, tc.fat, tc.protein, got, tc.want)
			}
		})
	}
}

func TestRate(t *testing.T) {
	base := 0.45

	if got := Rate("A", base); got != base {
		t.Errorf("grade A should pay the full rate, got %.4f", got)
	}
	if got := Rate("B", base); got != base*0.85 {
		t.Errorf("grade B should pay 85%%, got %.4f", got)
	}
	if got := Rate("C", base); got != base*0.7 {
		t.Errorf("grade C should pay 70%%, got %.4f", got)
	}
}

func TestScore(t *testing.T) {
	if Score("A") <= Score("B") || Score("B") <= Score("C") {
		t.Error("scores must be strictly ordered A > B > C")
	}
	if Score("unknown") != 0 {
		t.Errorf("unknown grade should score 0, got %.1f", Score("unknown"))
	}
}
