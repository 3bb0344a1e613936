package dto

type SectionContent struct {
	Title   string   `json:"title" validate:"required"`
	Summary string   `json:"summary"`
	Bullets []string `json:"bullets"`
}

type TransformRequest struct {
	Target  string         `json:"target" validate:"required,oneof=english hindi hinglish"`
	Tone    string         `json:"tone" validate:"omitempty,oneof=neutral casual interview"`
	Section SectionContent `json:"section" validate:"required"`
}

type RegenerateRequest struct {
	Section    SectionContent `json:"section" validate:"required"`
	Transcript string         `json:"transcript" validate:"required"`
}

type DetectSectionsRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

type DetectedSection struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Bullets   []string `json:"bullets"`
	StartTime float64  `json:"start_time"`
	EndTime   float64  `json:"end_time"`
}

type DetectSectionsResponse struct {
	Sections []DetectedSection `json:"sections"`
}

type TranscriptChunk struct {
	Text     string  `json:"text" validate:"required"`
	Start    float64 `json:"start" validate:"gte=0"`
	Duration float64 `json:"duration" validate:"gte=0"`
}

type ChunkSectionsRequest struct {
	Chunks []TranscriptChunk `json:"chunks" validate:"required,min=1,dive"`
}

type ChunkSectionsResponse struct {
	Sections []DetectedSection `json:"sections"`
	Summary  string            `json:"summary"`
	Tags     []string          `json:"tags"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

type InlineRequest struct {
	Text   string `json:"text" validate:"required"`
	Action string `json:"action" validate:"required,oneof=simplify expand example"`
}

type InlineResponse struct {
	Result string `json:"result"`
}
