package notify

import (
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase",
			input:    "Build FAILED in pipeline",
			expected: "build failed in pipeline",
		},
		{
			name:     "collapse whitespace",
			input:    "build   failed\t\tin\n\npipeline",
			expected: "build failed in pipeline",
		},
		{
			name:     "trim",
			input:    "  hello  ",
			expected: "hello",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "mixed case and whitespace",
			input:    "  FIX:   retry   the   flaky   test  ",
			expected: "fix: retry the flaky test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeText(tt.input))
		})
	}
}

func TestCollectMessageText(t *testing.T) {
	tests := []struct {
		name     string
		msg      goslack.Message
		expected string
	}{
		{
			name: "text only",
			msg: goslack.Message{
				Msg: goslack.Msg{Text: "hello world"},
			},
			expected: "hello world",
		},
		{
			name: "text with attachment text",
			msg: goslack.Message{
				Msg: goslack.Msg{
					Text: "request",
					Attachments: []goslack.Attachment{
						{Text: "fix the flaky test"},
					},
				},
			},
			expected: "request fix the flaky test",
		},
		{
			name: "text with attachment fallback",
			msg: goslack.Message{
				Msg: goslack.Msg{
					Text: "request",
					Attachments: []goslack.Attachment{
						{Fallback: "fix the flaky test fallback"},
					},
				},
			},
			expected: "request fix the flaky test fallback",
		},
		{
			name: "attachment with both text and fallback",
			msg: goslack.Message{
				Msg: goslack.Msg{
					Attachments: []goslack.Attachment{
						{Text: "att text", Fallback: "att fallback"},
					},
				},
			},
			expected: "att text att fallback",
		},
		{
			name:     "empty message",
			msg:      goslack.Message{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, collectMessageText(tt.msg))
		})
	}
}
