package transcribe

import (
	"fmt"
	"sort"
	"strconv"
)

// Normalize shapes a raw result into an ordered, speaker-labeled transcript.
//
// Speaker ids are assigned by order of first appearance of the provider's
// raw labels, whatever their format, so the first voice heard is always
// speaker 0. Consecutive items from the same speaker merge into one turn.
// A payload with no speaker labels at all normalizes to a single turn for
// speaker 0 — diarization falling back is a degraded result, not an error.
func Normalize(raw *RawResult, language, jobName string) (*Transcript, error) {
	if raw == nil || len(raw.Results.Items) == 0 {
		return nil, &ParseError{JobName: jobName, Reason: "empty item sequence"}
	}

	speakerIDs := make(map[string]int)
	var segments []Segment
	var cur *Segment

	for i, item := range raw.Results.Items {
		if item.Type == itemPunctuation {
			// Punctuation items carry no timestamps or speaker label; they
			// attach to the preceding word without a space.
			if cur != nil && len(item.Alternatives) > 0 {
				cur.Text += item.Alternatives[0].Content
			}
			continue
		}

		if item.StartTime == "" || item.EndTime == "" {
			return nil, &ParseError{JobName: jobName, Reason: fmt.Sprintf("item %d missing timestamps", i)}
		}
		start, err := strconv.ParseFloat(item.StartTime, 64)
		if err != nil {
			return nil, &ParseError{JobName: jobName, Reason: fmt.Sprintf("item %d start time %q", i, item.StartTime)}
		}
		end, err := strconv.ParseFloat(item.EndTime, 64)
		if err != nil {
			return nil, &ParseError{JobName: jobName, Reason: fmt.Sprintf("item %d end time %q", i, item.EndTime)}
		}
		if len(item.Alternatives) == 0 {
			return nil, &ParseError{JobName: jobName, Reason: fmt.Sprintf("item %d has no alternatives", i)}
		}

		id, seen := speakerIDs[item.SpeakerLabel]
		if !seen {
			id = len(speakerIDs)
			speakerIDs[item.SpeakerLabel] = id
		}

		word := item.Alternatives[0].Content
		if cur != nil && cur.Speaker == id {
			cur.Text += " " + word
			cur.End = end
			continue
		}
		if cur != nil {
			segments = append(segments, *cur)
		}
		cur = &Segment{Speaker: id, Text: word, Start: start, End: end}
	}
	if cur == nil {
		return nil, &ParseError{JobName: jobName, Reason: "no pronunciation items"}
	}
	segments = append(segments, *cur)

	// Items arrive in order already; the stable sort only repairs ordering
	// and keeps original order on equal start times.
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	return &Transcript{JobName: jobName, Language: language, Segments: segments}, nil
}
