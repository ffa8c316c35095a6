package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-reform/pkg/extract"
	"github.com/goliatone/go-reform/pkg/model"
)

const quizInstruction = `My online form has the following fields. I want to turn this into an interactive quiz for the user to fill out form fields. Can you reply with a question form for each of these to help them fill out, separated by a double new line ?

ONLY reply with responses line 1 is line of the answer. Make the questions intuitive
---
`

// QuizPrompt builds the instruction asking the model for one question per
// field, followed by the field list as JSON.
func QuizPrompt(fields []extract.RawField) (string, error) {
	if fields == nil {
		fields = []extract.RawField{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("prompt: encode fields: %w", err)
	}
	return quizInstruction + string(payload), nil
}

var blankLine = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// SplitQuestions splits a model reply on blank lines, dropping empty blocks.
// Each block collapses to a single line.
func SplitQuestions(reply string) []string {
	blocks := blankLine.Split(strings.TrimSpace(reply), -1)
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		line := strings.Join(strings.Fields(block), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ApplyQuestions relabels the schema's fields, in page then field order,
// with the questions found in reply. Extra questions are ignored and fields
// beyond the last question keep their label. It returns the relabeled copy
// and the number of fields changed.
func ApplyQuestions(schema model.FormSchema, reply string) (model.FormSchema, int) {
	questions := SplitQuestions(reply)
	out := schema.Clone()
	var applied int
	for pi := range out.Pages {
		for fi := range out.Pages[pi].Fields {
			if applied >= len(questions) {
				return out, applied
			}
			out.Pages[pi].Fields[fi].Label = questions[applied]
			applied++
		}
	}
	return out, applied
}
