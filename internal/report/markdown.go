// Package report renders a finished alignment into human-readable markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/b08x/slide-align/internal/timecode"
	"github.com/b08x/slide-align/internal/types"
)

func Markdown(res types.AlignmentResult, slideSet []types.SlideRecord) string {
	var b strings.Builder
	b.WriteString("# Slide Alignment Report\n\n")

	if len(res.Topics) > 0 {
		b.WriteString("## Topics\n\n")
		for _, t := range res.Topics {
			fmt.Fprintf(&b, "### %s\n\n", t.Title)
			if t.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(t.Description))
			}
			if len(t.Keywords) > 0 {
				fmt.Fprintf(&b, "Keywords: %s\n\n", strings.Join(t.Keywords, ", "))
			}
		}
	}

	b.WriteString("## Timeline\n\n")
	byTitle := topicTitles(res.Topics)
	for i, e := range res.Timeline {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, e.Slide)
		if e.SpeakerNote != "" {
			fmt.Fprintf(&b, "> %s\n\n", strings.TrimSpace(e.SpeakerNote))
		}
		for _, seg := range e.AlignedSegments {
			fmt.Fprintf(&b, "- `%s` %s\n", seg.Timestamp, strings.TrimSpace(seg.Text))
		}
		if len(e.AlignedSegments) > 0 {
			b.WriteString("\n")
		}
		if len(e.Broll) > 0 {
			fmt.Fprintf(&b, "B-roll: %s\n\n", strings.Join(e.Broll, "; "))
		}
		if titles := resolveTitles(e.Topics, byTitle); len(titles) > 0 {
			fmt.Fprintf(&b, "Topics: %s\n\n", strings.Join(titles, ", "))
		}
	}

	if len(slideSet) > 0 {
		b.WriteString("## Slides\n\n")
		for _, s := range slideSet {
			fmt.Fprintf(&b, "- `%s`: captured %s, analysis %s\n",
				s.Filename, timecode.FormatOptional(s.InferredTime), s.Status)
		}
	}
	return b.String()
}

func topicTitles(topics []types.Topic) map[string]string {
	m := make(map[string]string, len(topics))
	for _, t := range topics {
		m[t.ID] = t.Title
	}
	return m
}

func resolveTitles(ids []string, byTitle map[string]string) []string {
	var out []string
	for _, id := range ids {
		if title, ok := byTitle[id]; ok {
			out = append(out, title)
		} else {
			out = append(out, id)
		}
	}
	return out
}
