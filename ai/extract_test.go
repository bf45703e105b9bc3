package ai

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
		Score   int    `json:"score"`
	}

	tests := []struct {
		name    string
		text    string
		want    payload
		wantErr bool
	}{
		{
			name: "fenced json block",
			text: "Here is the report:\n```json\n{\"summary\": \"ok\", \"score\": 7}\n```\nDone.",
			want: payload{Summary: "ok", Score: 7},
		},
		{
			name: "fence tag case-insensitive",
			text: "```JSON\n{\"summary\": \"ok\", \"score\": 3}\n```",
			want: payload{Summary: "ok", Score: 3},
		},
		{
			name: "whole response is json",
			text: "  {\"summary\": \"bare\", \"score\": 2}  ",
			want: payload{Summary: "bare", Score: 2},
		},
		{
			name: "broken fence falls through to whole text",
			text: "{\"summary\": \"whole\", \"score\": 5}",
			want: payload{Summary: "whole", Score: 5},
		},
		{
			name: "repairable json in fence",
			text: "```json\n{\"summary\": \"trailing\", \"score\": 4,}\n```",
			want: payload{Summary: "trailing", Score: 4},
		},
		{
			name:    "no json at all",
			text:    "I could not produce a structured report, sorry!",
			wantErr: true,
		},
		{
			name:    "empty response",
			text:    "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := ExtractJSON(tt.text, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrNoStructuredResult) {
					t.Errorf("ExtractJSON() error = %v, want ErrNoStructuredResult", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractJSONRoundTrip(t *testing.T) {
	// fence(J) must extract to the same value as parsing J directly.
	inputs := []string{
		`{"summary": "a"}`,
		`{"summary": "multi\nline", "score": 10}`,
		`{"summary": "", "score": 0}`,
	}

	for _, j := range inputs {
		var direct, fenced map[string]any
		if err := ExtractJSON(j, &direct); err != nil {
			t.Fatalf("direct parse of %q failed: %v", j, err)
		}
		if err := ExtractJSON("```json\n"+j+"\n```", &fenced); err != nil {
			t.Fatalf("fenced parse of %q failed: %v", j, err)
		}
		if len(direct) != len(fenced) {
			t.Errorf("fenced extraction of %q differs from direct parse", j)
		}
		for k, v := range direct {
			if fenced[k] != v {
				t.Errorf("key %q: fenced = %v, direct = %v", k, fenced[k], v)
			}
		}
	}
}
