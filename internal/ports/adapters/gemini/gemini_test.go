package gemini

import (
	"sync"
	"testing"
)

// Slide analyses run in parallel against one shared adapter, so picking a
// key and rotating after a rate limit must be safe from multiple goroutines.
func TestKeyRotationConcurrent(t *testing.T) {
	keys := []string{"k1", "k2", "k3"}
	valid := map[string]bool{"k1": true, "k2": true, "k3": true}
	a := New(keys, "", nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key, idx := a.pickKey()
				if !valid[key] {
					t.Errorf("picked unknown key %q", key)
					return
				}
				if idx < 0 || idx >= len(keys) {
					t.Errorf("key index %d out of range", idx)
					return
				}
				a.rotateKey()
			}
		}()
	}
	wg.Wait()

	if _, idx := a.pickKey(); idx < 0 || idx >= len(keys) {
		t.Fatalf("final key index %d out of range", idx)
	}
}

func TestDecodeTranscript(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   int
		wantOK bool
	}{
		{
			name:   "plain array",
			in:     `[{"start":0,"end":1.5,"speaker":"A","text":"hi"},{"start":1.5,"end":2,"speaker":"B","text":"yo"}]`,
			want:   2,
			wantOK: true,
		},
		{
			name:   "fenced with prose",
			in:     "Here you go:\n```json\n[{\"start\":0,\"end\":1,\"speaker\":\"A\",\"text\":\"hi\"}]\n```",
			want:   1,
			wantOK: true,
		},
		{
			name:   "empty text entries dropped",
			in:     `[{"start":0,"end":1,"speaker":"A","text":"  "},{"start":1,"end":2,"speaker":"","text":"kept"}]`,
			want:   1,
			wantOK: true,
		},
		{name: "no array", in: "sorry", wantOK: false},
		{name: "broken json", in: "[{", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, ok := decodeTranscript(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(lines) != tt.want {
				t.Fatalf("got %d lines, want %d: %+v", len(lines), tt.want, lines)
			}
			for _, l := range lines {
				if l.Speaker == "" {
					t.Fatalf("speaker must never be empty: %+v", l)
				}
			}
		})
	}
}
