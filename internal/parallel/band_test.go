package parallel

import "testing"

func TestBands(t *testing.T) {
	tests := []struct {
		name      string
		y0, y1, h int
		want      []Band
	}{
		{"empty", 5, 5, 4, nil},
		{"inverted", 5, 2, 4, nil},
		{"exact", 0, 8, 4, []Band{{0, 4}, {4, 8}}},
		{"ragged", 2, 11, 4, []Band{{2, 6}, {6, 10}, {10, 11}}},
		{"default height", 0, 20, 0, []Band{{0, DefaultBandHeight}, {DefaultBandHeight, 20}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bands(tt.y0, tt.y1, tt.h)
			if len(got) != len(tt.want) {
				t.Fatalf("Bands(%d, %d, %d) = %v, want %v", tt.y0, tt.y1, tt.h, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("band %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBandHeight(t *testing.T) {
	if h := (Band{Y0: 3, Y1: 10}).Height(); h != 7 {
		t.Errorf("Height() = %d, want 7", h)
	}
}
