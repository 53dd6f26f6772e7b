package types

// TranscriptLine is the canonical timed-text record every parser and the
// transcription backend normalize to. Start/End are seconds from the start of
// the narration; plain-text mode emits both as zero.
type TranscriptLine struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

type SlideStatus string

const (
	SlidePending    SlideStatus = "pending"
	SlideProcessing SlideStatus = "processing"
	SlideDone       SlideStatus = "done"
	SlideError      SlideStatus = "error"
)

// SlideRecord tracks one slide image through the analysis stage. InferredTime
// is nil when the filename carries no timing hint; nil and zero are distinct.
type SlideRecord struct {
	ID           string      `json:"id"`
	Path         string      `json:"path"`
	Filename     string      `json:"filename"`
	InferredTime *float64    `json:"inferred_time,omitempty"`
	Analysis     string      `json:"analysis,omitempty"`
	Status       SlideStatus `json:"status"`
}

type Stage string

const (
	StageIdle         Stage = "idle"
	StageParsing      Stage = "parsing"
	StageTranscribing Stage = "transcribing"
	StageAnalyzing    Stage = "analyzing"
	StageAligning     Stage = "requestingAlignment"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
)

// PipelineState is the progress snapshot published after each unit of work.
type PipelineState struct {
	Stage          Stage  `json:"stage"`
	TotalUnits     int    `json:"total_units"`
	CompletedUnits int    `json:"completed_units"`
	Message        string `json:"message"`
}

type Topic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type AlignedSegment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// TimelineEntry places one slide appearance in the narration. The same slide
// filename may appear more than once when the narration revisits it.
type TimelineEntry struct {
	Slide           string           `json:"slide"`
	SpeakerNote     string           `json:"speaker_note"`
	AlignedSegments []AlignedSegment `json:"aligned_segments"`
	Broll           []string         `json:"broll"`
	Topics          []string         `json:"topics"`
}

// AlignmentResult is the negotiated response shape of the alignment engine.
type AlignmentResult struct {
	Topics   []Topic         `json:"topics"`
	Timeline []TimelineEntry `json:"timeline"`
}
