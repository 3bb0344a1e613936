package service

import (
	"fmt"
	"strings"

	"notely-be/internal/dto"
	"notely-be/pkg/variant"
)

const variantShape = `{"title": string, "summary": string, "bullets": [string]}`

var tonePresets = map[variant.Tone]string{
	variant.Neutral:   "clear and balanced, the way a good teacher explains things",
	variant.Casual:    "friendly and conversational, like explaining to a friend over chai",
	variant.Interview: "crisp and professional, phrased as points a candidate could say aloud in an interview",
}

func renderVariant(v variant.Variant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nSummary: %s\nBullets:\n", v.Title, v.Summary)
	for _, bullet := range v.Bullets {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}
	return b.String()
}

func transformPrompt(req variant.TransformRequest) string {
	var instruction string
	switch req.Target {
	case variant.Hindi:
		instruction = "Translate the section into natural Hindi written in Devanagari script. Keep technical terms that are normally left in English."
	case variant.Hinglish:
		tone := req.Tone
		if tone == "" {
			tone = variant.Neutral
		}
		instruction = fmt.Sprintf(
			"Rewrite the section in Hinglish (Hindi written in Latin script, mixed with English the way urban Indian speakers talk). Style: %s.",
			tonePresets[tone])
	}

	return fmt.Sprintf(`%s
Keep the same number of bullets and the same meaning. Do not add facts.
Respond with only a JSON object of the form %s.

Section:
%s`, instruction, variantShape, renderVariant(req.Section))
}

func regeneratePrompt(req variant.RegenerateRequest) string {
	return fmt.Sprintf(`You are writing study notes from a video transcript.
Rewrite the section below so it accurately reflects the transcript. Use English.
Give a short title, a two or three sentence summary and 3 to 6 concise bullets.
Respond with only a JSON object of the form %s.

Current section:
%s
Transcript:
%s`, variantShape, renderVariant(req.Section), req.Transcript)
}

func detectSectionsPrompt(transcript string) string {
	return fmt.Sprintf(`Split the transcript below into 3 to 8 logical sections for study notes.
For each section give a short title, a two sentence summary, 3 to 6 bullets and
approximate start_time and end_time in seconds (use 0 if unknown).
Respond with only a JSON object of the form
{"sections": [{"title": string, "summary": string, "bullets": [string], "start_time": number, "end_time": number}]}.

Transcript:
%s`, transcript)
}

func chunkSectionsPrompt(chunks []dto.TranscriptChunk) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "[%.1fs] %s\n", c.Start, strings.TrimSpace(c.Text))
	}
	return fmt.Sprintf(`The lines below are a timestamped video transcript; each line starts with its start time in seconds.
Split it into 3 to 8 logical sections for study notes. Each section's start_time must be the
timestamp of its first line. Give each a short title, a two sentence summary and 3 to 6 bullets.
Also write a summary of the whole video and up to 6 short lowercase topic tags.
Respond with only a JSON object of the form
{"sections": [{"title": string, "summary": string, "bullets": [string], "start_time": number, "end_time": number}], "summary": string, "tags": [string]}.

Transcript:
%s`, b.String())
}

var inlineInstructions = map[string]string{
	"simplify": "Rewrite the text in simpler words a beginner would understand. Keep it about the same length.",
	"expand":   "Expand the text with more detail and explanation. At most three times the original length.",
	"example":  "Give one concrete, practical example that illustrates the text.",
}

func inlinePrompt(text, action string) string {
	return fmt.Sprintf(`%s
Respond with plain text only, no preamble and no markdown headings.

Text:
%s`, inlineInstructions[action], text)
}

func generateNotePrompt(prompt string) string {
	return fmt.Sprintf(`Create well structured study notes for the request below.
Respond with only a JSON object of the form
{"title": string, "summary": string, "sections": [{"title": string, "summary": string, "bullets": [string]}], "tags": [string]}
with 3 to 6 sections and up to 6 short lowercase tags.

Request:
%s`, prompt)
}
