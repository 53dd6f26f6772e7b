package subtitle

import (
	"strings"
	"testing"
)

func TestPlainText_ParagraphsBecomeUntimedLines(t *testing.T) {
	in := "First paragraph\nwraps onto two lines.\n\n\nSecond paragraph.\n\n   \n"
	lines, err := PlainText{}.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	for i, l := range lines {
		if l.Start != 0 || l.End != 0 {
			t.Fatalf("line %d should be untimed: %+v", i, l)
		}
		if l.Speaker != "Unknown" {
			t.Fatalf("line %d speaker = %q", i, l.Speaker)
		}
	}
	if lines[0].Text != "First paragraph wraps onto two lines." {
		t.Fatalf("unexpected text: %q", lines[0].Text)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    any
		wantErr bool
	}{
		{"ass", "talk.ass", ASS{}, false},
		{"srt", "talk.SRT", SRT{}, false},
		{"vtt", "talk.vtt", VTT{}, false},
		{"txt", "notes.txt", PlainText{}, false},
		{"md", "notes.md", PlainText{}, false},
		{"unknown", "movie.mp4", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ForFile(tt.file)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.file)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p != tt.want {
				t.Fatalf("ForFile(%q) = %T, want %T", tt.file, p, tt.want)
			}
		})
	}
}
