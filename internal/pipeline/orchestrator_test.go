package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/b08x/slide-align/internal/ports"
	"github.com/b08x/slide-align/internal/types"
)

type fakeVision struct {
	mu         sync.Mutex
	failFor    map[string]error
	concurrent int
	maxSeen    int
	calls      int
}

func (f *fakeVision) AnalyzeImage(ctx context.Context, image []byte, mimeType, filename string) (string, error) {
	f.mu.Lock()
	f.concurrent++
	f.calls++
	if f.concurrent > f.maxSeen {
		f.maxSeen = f.concurrent
	}
	err := f.failFor[filename]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.concurrent--
		f.mu.Unlock()
	}()

	if err != nil {
		return "", err
	}
	return "analysis of " + filename, nil
}

type fakeTranscriber struct {
	lines []types.TranscriptLine
	err   error
}

func (f fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) ([]types.TranscriptLine, error) {
	return f.lines, f.err
}

type fakeAligner struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	res     types.AlignmentResult
	err     error
}

func (f *fakeAligner) Align(ctx context.Context, prompt string) (types.AlignmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.res, f.err
}

func writeSlides(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("slide%02d.png", i))
		if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func okResult() types.AlignmentResult {
	return types.AlignmentResult{
		Timeline: []types.TimelineEntry{{Slide: "slide00.png"}},
	}
}

const srtFixture = "1\n00:00:01,000 --> 00:00:02,000\nhello world\n"

func TestRun_ZeroSlidesFailsBeforeAnalyzing(t *testing.T) {
	var events []types.PipelineState
	orc := NewOrchestrator(Deps{
		Vision:  &fakeVision{},
		Aligner: &fakeAligner{res: okResult()},
	}, Options{Progress: func(s types.PipelineState) { events = append(events, s) }})

	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
	})
	if err == nil {
		t.Fatal("expected precondition error")
	}
	if !strings.Contains(err.Error(), "slide") {
		t.Fatalf("error must name the missing input: %v", err)
	}
	if got := orc.State().Stage; got != types.StageFailed {
		t.Fatalf("stage = %s, want failed", got)
	}
	for _, e := range events {
		if e.Stage == types.StageAnalyzing {
			t.Fatalf("no analyzing progress expected, got %+v", events)
		}
	}
}

func TestRun_MissingSourceFailsFast(t *testing.T) {
	orc := NewOrchestrator(Deps{Vision: &fakeVision{}, Aligner: &fakeAligner{res: okResult()}}, Options{})
	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: "/does/not/exist.srt",
		SlidePaths:     writeSlides(t, 1),
	})
	if err == nil {
		t.Fatal("expected stat error")
	}
	if !strings.Contains(err.Error(), "exist.srt") {
		t.Fatalf("error must name the missing file: %v", err)
	}
}

func TestRun_BothSourcesRejected(t *testing.T) {
	orc := NewOrchestrator(Deps{Vision: &fakeVision{}, Aligner: &fakeAligner{res: okResult()}}, Options{})
	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		AudioFile:      "also.wav",
		SlidePaths:     writeSlides(t, 1),
	})
	if err == nil {
		t.Fatal("expected precondition error")
	}
}

func TestRun_IsolatedSlideFailure(t *testing.T) {
	vision := &fakeVision{failFor: map[string]error{
		"slide01.png": errors.New("model returned nothing useful"),
	}}
	aligner := &fakeAligner{res: okResult()}
	orc := NewOrchestrator(Deps{Vision: vision, Aligner: aligner}, Options{})

	res, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 3),
	})
	if err != nil {
		t.Fatalf("isolated failure must not fail the run: %v", err)
	}

	statuses := map[types.SlideStatus]int{}
	for _, s := range res.Slides {
		statuses[s.Status]++
		if s.Status == types.SlideError && s.Analysis == "" {
			t.Fatal("failed slide must carry a placeholder analysis")
		}
	}
	if statuses[types.SlideDone] != 2 || statuses[types.SlideError] != 1 {
		t.Fatalf("unexpected statuses: %v", statuses)
	}
	if aligner.calls != 1 {
		t.Fatalf("alignment must be requested exactly once, got %d", aligner.calls)
	}
	if orc.State().Stage != types.StageComplete {
		t.Fatalf("stage = %s, want complete", orc.State().Stage)
	}
}

func TestRun_TransportFailureAbortsRun(t *testing.T) {
	vision := &fakeVision{failFor: map[string]error{
		"slide01.png": fmt.Errorf("%w: connection refused", ports.ErrUnavailable),
	}}
	aligner := &fakeAligner{res: okResult()}
	orc := NewOrchestrator(Deps{Vision: vision, Aligner: aligner}, Options{})

	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 5),
	})
	if !errors.Is(err, ports.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if aligner.calls != 0 {
		t.Fatal("alignment must not run after a transport failure")
	}
	if orc.State().Stage != types.StageFailed {
		t.Fatalf("stage = %s, want failed", orc.State().Stage)
	}
}

func TestRun_BatchBoundsConcurrency(t *testing.T) {
	vision := &fakeVision{}
	orc := NewOrchestrator(Deps{Vision: vision, Aligner: &fakeAligner{res: okResult()}},
		Options{BatchSize: 3})

	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 8),
	})
	if err != nil {
		t.Fatal(err)
	}
	if vision.calls != 8 {
		t.Fatalf("expected 8 analysis calls, got %d", vision.calls)
	}
	if vision.maxSeen > 3 {
		t.Fatalf("concurrency exceeded batch size: %d", vision.maxSeen)
	}
}

func TestRun_ProgressIsMonotonic(t *testing.T) {
	var mu sync.Mutex
	var events []types.PipelineState
	orc := NewOrchestrator(Deps{Vision: &fakeVision{}, Aligner: &fakeAligner{res: okResult()}},
		Options{Progress: func(s types.PipelineState) {
			mu.Lock()
			events = append(events, s)
			mu.Unlock()
		}})

	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 4),
	})
	if err != nil {
		t.Fatal(err)
	}

	last := -1
	sawAll := false
	for _, e := range events {
		if e.Stage != types.StageAnalyzing {
			continue
		}
		if e.CompletedUnits < last {
			t.Fatalf("completedUnits went backwards: %+v", events)
		}
		last = e.CompletedUnits
		if e.CompletedUnits == e.TotalUnits && e.TotalUnits == 4 {
			sawAll = true
		}
	}
	if !sawAll {
		t.Fatalf("never saw 4/4 progress: %+v", events)
	}
}

func TestRun_MalformedAlignmentIsFatal(t *testing.T) {
	aligner := &fakeAligner{err: errors.New("alignment response: no topics or timeline")}
	orc := NewOrchestrator(Deps{Vision: &fakeVision{}, Aligner: aligner}, Options{})

	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 1),
	})
	if err == nil {
		t.Fatal("expected fatal alignment error")
	}
	if !strings.Contains(err.Error(), "alignment stage") {
		t.Fatalf("error must name the alignment stage: %v", err)
	}
}

func TestRun_EmptyTranscriptionProceeds(t *testing.T) {
	audio := writeTranscript(t, "talk.mp3", "fake audio bytes")
	aligner := &fakeAligner{res: okResult()}
	orc := NewOrchestrator(Deps{
		Vision:      &fakeVision{},
		Transcriber: fakeTranscriber{},
		Aligner:     aligner,
	}, Options{})

	_, err := orc.Run(context.Background(), Input{
		AudioFile:  audio,
		SlidePaths: writeSlides(t, 1),
	})
	if err != nil {
		t.Fatalf("empty transcription must not fail the run: %v", err)
	}
	if aligner.calls != 1 {
		t.Fatal("alignment must still run")
	}
}

func TestRun_PromptCarriesAnalysis(t *testing.T) {
	aligner := &fakeAligner{res: okResult()}
	orc := NewOrchestrator(Deps{Vision: &fakeVision{}, Aligner: aligner}, Options{})

	_, err := orc.Run(context.Background(), Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(aligner.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(aligner.prompts))
	}
	p := aligner.prompts[0]
	if !strings.Contains(p, "hello world") {
		t.Fatalf("prompt missing transcript text:\n%s", p)
	}
	if !strings.Contains(p, "analysis of slide00.png") {
		t.Fatalf("prompt missing slide analysis:\n%s", p)
	}
}

func TestReset_AllowsFreshRun(t *testing.T) {
	orc := NewOrchestrator(Deps{Vision: &fakeVision{}, Aligner: &fakeAligner{res: okResult()}}, Options{})

	in := Input{
		TranscriptFile: writeTranscript(t, "t.srt", srtFixture),
		SlidePaths:     writeSlides(t, 1),
	}
	if _, err := orc.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	// A completed orchestrator refuses a second run until Reset.
	if _, err := orc.Run(context.Background(), in); err == nil {
		t.Fatal("expected second run to be rejected")
	}

	orc.Reset()
	if orc.State().Stage != types.StageIdle {
		t.Fatalf("stage after reset = %s", orc.State().Stage)
	}
	if len(orc.Slides()) != 0 {
		t.Fatal("slides not cleared by reset")
	}
	if _, err := orc.Run(context.Background(), in); err != nil {
		t.Fatalf("run after reset: %v", err)
	}
}
