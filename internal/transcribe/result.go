package transcribe

// RawResult matches the JSON document the provider writes for a finished
// job. It is consumed by Normalize and never retained past normalization.
type RawResult struct {
	JobName string `json:"jobName"`
	Status  string `json:"status"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []RawItem `json:"items"`
	} `json:"results"`
}

// RawItem is one recognized item. Pronunciation items carry timestamps and,
// when diarization succeeded, a speaker label. Punctuation items carry
// neither.
type RawItem struct {
	Type         string           `json:"type"`
	StartTime    string           `json:"start_time,omitempty"`
	EndTime      string           `json:"end_time,omitempty"`
	SpeakerLabel string           `json:"speaker_label,omitempty"`
	Alternatives []RawAlternative `json:"alternatives"`
}

// RawAlternative is a candidate reading of an item; the first entry is the
// provider's best guess.
type RawAlternative struct {
	Confidence string `json:"confidence"`
	Content    string `json:"content"`
}

const (
	itemPronunciation = "pronunciation"
	itemPunctuation   = "punctuation"
)
