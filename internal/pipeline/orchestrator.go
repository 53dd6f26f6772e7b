package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/b08x/slide-align/internal/align"
	"github.com/b08x/slide-align/internal/domain/slides"
	"github.com/b08x/slide-align/internal/domain/subtitle"
	"github.com/b08x/slide-align/internal/logger"
	"github.com/b08x/slide-align/internal/ports"
	"github.com/b08x/slide-align/internal/types"
)

// DefaultBatchSize caps simultaneous vision calls; batches join fully before
// the next one starts so external rate limits see at most this many in
// flight.
const DefaultBatchSize = 3

const errPlaceholder = "Analysis unavailable for this slide."

type Deps struct {
	Vision      ports.Vision
	Transcriber ports.Transcriber
	Aligner     ports.Aligner
}

type Options struct {
	BatchSize        int
	TranscriptBudget int
	Logger           logger.Logger
	Progress         func(types.PipelineState)
}

// Orchestrator drives one run through parsing/transcribing, batched slide
// analysis and the alignment request. It owns the only mutable references to
// the slide records and the progress state for the run's lifetime; callers
// read snapshots.
type Orchestrator struct {
	deps      Deps
	batchSize int
	budget    int
	log       logger.Logger
	progress  func(types.PipelineState)

	mu         sync.Mutex
	state      types.PipelineState
	slides     []*types.SlideRecord
	transcript []types.TranscriptLine
}

func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	log := opts.Logger
	if log == nil {
		log = logger.New("info")
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(types.PipelineState) {}
	}
	return &Orchestrator{
		deps:      deps,
		batchSize: batch,
		budget:    opts.TranscriptBudget,
		log:       log,
		progress:  progress,
		state:     types.PipelineState{Stage: types.StageIdle},
	}
}

// Input names the run's sources. Exactly one of TranscriptFile and AudioFile
// must be set.
type Input struct {
	TranscriptFile string
	AudioFile      string
	SlidePaths     []string
}

type Result struct {
	Transcript []types.TranscriptLine
	Slides     []types.SlideRecord
	Alignment  types.AlignmentResult
}

func (o *Orchestrator) Run(ctx context.Context, in Input) (Result, error) {
	if st := o.State(); st.Stage != types.StageIdle {
		return Result{}, fmt.Errorf("orchestrator is %s; Reset before starting a new run", st.Stage)
	}

	// Fail fast on missing inputs, before any processing state.
	if err := checkPreconditions(in); err != nil {
		return Result{}, o.fail(err)
	}

	recs := slides.Load(in.SlidePaths)
	o.mu.Lock()
	o.slides = recs
	o.mu.Unlock()

	lines, err := o.acquireTranscript(ctx, in)
	if err != nil {
		return Result{}, o.fail(err)
	}
	if len(lines) == 0 {
		// Alignment can still be meaningful from slide content alone.
		o.log.Warn(ctx, "transcript is empty, aligning from slide content only")
	}
	o.mu.Lock()
	o.transcript = lines
	o.mu.Unlock()

	if err := o.analyzeSlides(ctx, recs); err != nil {
		return Result{}, o.fail(err)
	}

	o.setStage(types.StageAligning, "requesting alignment")
	prompt := align.BuildRequest(lines, recs, o.budget)
	res, err := o.deps.Aligner.Align(ctx, prompt)
	if err != nil {
		return Result{}, o.fail(fmt.Errorf("alignment stage: %w", err))
	}

	o.setStage(types.StageComplete, "complete")
	return Result{Transcript: lines, Slides: o.Slides(), Alignment: res}, nil
}

// Reset clears all per-run state so the orchestrator can start a fresh run.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = types.PipelineState{Stage: types.StageIdle}
	o.slides = nil
	o.transcript = nil
}

// State returns a snapshot of the run's progress.
func (o *Orchestrator) State() types.PipelineState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Slides returns value copies of the slide records; mutating them does not
// touch the run.
func (o *Orchestrator) Slides() []types.SlideRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]types.SlideRecord, len(o.slides))
	for i, s := range o.slides {
		out[i] = *s
	}
	return out
}

// Transcript returns a copy of the canonical line sequence.
func (o *Orchestrator) Transcript() []types.TranscriptLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]types.TranscriptLine, len(o.transcript))
	copy(out, o.transcript)
	return out
}

func checkPreconditions(in Input) error {
	if len(in.SlidePaths) == 0 {
		return errors.New("no slide images provided")
	}
	if in.TranscriptFile == "" && in.AudioFile == "" {
		return errors.New("no narration source: a transcript file or an audio file is required")
	}
	if in.TranscriptFile != "" && in.AudioFile != "" {
		return errors.New("both transcript and audio provided; exactly one narration source is allowed")
	}
	src := in.TranscriptFile
	if src == "" {
		src = in.AudioFile
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("narration source %s: %w", src, err)
	}
	return nil
}

func (o *Orchestrator) acquireTranscript(ctx context.Context, in Input) ([]types.TranscriptLine, error) {
	if in.TranscriptFile != "" {
		o.setStage(types.StageParsing, "parsing "+filepath.Base(in.TranscriptFile))
		parser, err := subtitle.ForFile(in.TranscriptFile)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(in.TranscriptFile)
		if err != nil {
			return nil, fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()
		lines, err := parser.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
		return lines, nil
	}

	o.setStage(types.StageTranscribing, "transcribing "+filepath.Base(in.AudioFile))
	audio, err := os.ReadFile(in.AudioFile)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	lines, err := o.deps.Transcriber.Transcribe(ctx, audio, audioMIMEType(in.AudioFile))
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	return lines, nil
}

func (o *Orchestrator) analyzeSlides(ctx context.Context, recs []*types.SlideRecord) error {
	o.mu.Lock()
	o.state.Stage = types.StageAnalyzing
	o.state.TotalUnits = len(recs)
	o.state.CompletedUnits = 0
	o.state.Message = "analyzing slides"
	snap := o.state
	o.mu.Unlock()
	o.progress(snap)

	sem := newSemaphore(o.batchSize)
	var fatalMu sync.Mutex
	var fatal error

	for start := 0; start < len(recs); start += o.batchSize {
		end := min(start+o.batchSize, len(recs))

		var wg sync.WaitGroup
		for _, rec := range recs[start:end] {
			if err := sem.acquire(ctx); err != nil {
				wg.Wait()
				return err
			}
			wg.Add(1)
			go func(rec *types.SlideRecord) {
				defer wg.Done()
				defer sem.release()
				if err := o.analyzeOne(ctx, rec); err != nil {
					fatalMu.Lock()
					if fatal == nil {
						fatal = err
					}
					fatalMu.Unlock()
				}
			}(rec)
		}
		// Full join between batches: bounded concurrency, not a free pool.
		wg.Wait()
		if fatal != nil {
			return fatal
		}
	}
	return nil
}

// analyzeOne analyzes a single slide. A per-slide failure marks the record
// and is swallowed; only a capability-unreachable error is returned, which
// aborts the run.
func (o *Orchestrator) analyzeOne(ctx context.Context, rec *types.SlideRecord) error {
	o.mu.Lock()
	rec.Status = types.SlideProcessing
	o.mu.Unlock()

	img, err := os.ReadFile(rec.Path)
	var analysis string
	if err == nil {
		analysis, err = o.deps.Vision.AnalyzeImage(ctx, img, slides.MIMEType(rec.Filename), rec.Filename)
	}

	o.mu.Lock()
	if err != nil || strings.TrimSpace(analysis) == "" {
		rec.Status = types.SlideError
		rec.Analysis = errPlaceholder
		if err != nil {
			o.log.Warn(ctx, "slide %s analysis failed: %v", rec.Filename, err)
		}
	} else {
		rec.Status = types.SlideDone
		rec.Analysis = analysis
	}
	o.state.CompletedUnits++
	snap := o.state
	o.mu.Unlock()
	o.progress(snap)

	if errors.Is(err, ports.ErrUnavailable) {
		return err
	}
	return nil
}

func (o *Orchestrator) setStage(stage types.Stage, msg string) {
	o.mu.Lock()
	o.state.Stage = stage
	o.state.Message = msg
	snap := o.state
	o.mu.Unlock()
	o.progress(snap)
}

func (o *Orchestrator) fail(err error) error {
	o.setStage(types.StageFailed, err.Error())
	o.log.Error(context.Background(), "run failed: %v", err)
	return err
}

func audioMIMEType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mp3"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a", ".aac":
		return "audio/aac"
	default:
		return "audio/wav"
	}
}
