package slides

import "testing"

func TestInferTime_Table(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		want   float64
		wantOK bool
	}{
		{"hms underscores", "slide_00_10_05.png", 605, true},
		{"hms dashes", "capture-1-02-03.jpg", 3723, true},
		{"ms pair", "slide_10_05.png", 605, true},
		{"first match wins", "01_02_03_then_09_09_09.png", 3723, true},
		{"no digits", "noinfo.png", 0, false},
		{"single group", "slide7.png", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferTime(tt.file)
			if ok != tt.wantOK {
				t.Fatalf("InferTime(%q) ok = %v, want %v", tt.file, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("InferTime(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	recs := Load([]string{"/tmp/run/slide_00_10_05.png", "/tmp/run/noinfo.png"})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID == "" || recs[0].ID == recs[1].ID {
		t.Fatalf("ids must be unique and non-empty: %q %q", recs[0].ID, recs[1].ID)
	}
	if recs[0].Status != "pending" || recs[1].Status != "pending" {
		t.Fatalf("new records must start pending")
	}
	if recs[0].InferredTime == nil || *recs[0].InferredTime != 605 {
		t.Fatalf("expected inferred time 605, got %v", recs[0].InferredTime)
	}
	// Absent must stay nil, not zero.
	if recs[1].InferredTime != nil {
		t.Fatalf("expected absent inferred time, got %v", *recs[1].InferredTime)
	}
}

func TestIsImage(t *testing.T) {
	good := []string{"a.png", "b.JPG", "c.jpeg", "d.webp"}
	for _, n := range good {
		if !IsImage(n) {
			t.Fatalf("expected %q to be an image", n)
		}
	}
	bad := []string{"a.srt", "b.mp4", "noext"}
	for _, n := range bad {
		if IsImage(n) {
			t.Fatalf("expected %q to not be an image", n)
		}
	}
}
