package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoStructuredResult indicates no parseable JSON could be recovered from a
// model response. Callers treat this as a recoverable, reportable condition.
var ErrNoStructuredResult = errors.New("no structured result in model response")

// fencedJSONRegex matches a ```json fenced block, case-insensitive.
var fencedJSONRegex = regexp.MustCompile("(?is)```json\\s*(.*?)```")

// ExtractJSON recovers a JSON payload from a model response and unmarshals it
// into v. The model is instructed to wrap its JSON in a ```json fence, but
// responses drift, so extraction tries in order:
//
//  1. the interior of a fenced ```json block
//  2. the whole trimmed response
//  3. mechanical repair (jsonrepair) of whichever candidate looked best
//
// If none yields valid JSON, ErrNoStructuredResult is returned.
func ExtractJSON(text string, v any) error {
	trimmed := strings.TrimSpace(text)

	var fenced string
	if m := fencedJSONRegex.FindStringSubmatch(text); m != nil {
		fenced = strings.TrimSpace(m[1])
		if json.Unmarshal([]byte(fenced), v) == nil {
			return nil
		}
	}

	if json.Unmarshal([]byte(trimmed), v) == nil {
		return nil
	}

	// The fenced interior is where the model put its JSON, however broken, so
	// it is the better repair candidate when present.
	candidate := fenced
	if candidate == "" {
		candidate = trimmed
	}
	if candidate == "" {
		return ErrNoStructuredResult
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return ErrNoStructuredResult
	}
	if json.Unmarshal([]byte(repaired), v) != nil {
		return ErrNoStructuredResult
	}
	return nil
}
