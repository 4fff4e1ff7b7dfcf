package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/pkg/logging"
)

type mockConverse struct {
	response string
	err      error
	input    *bedrockruntime.ConverseInput
}

func (m *mockConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: m.response},
				},
			},
		},
	}, nil
}

func TestClassifyParsesJSON(t *testing.T) {
	mock := &mockConverse{response: `Here is my analysis:
{"verdict": "HIGH_RISK", "confidence": 0.92, "summary": "gift card demand", "redFlags": ["urgency"], "nextSteps": ["do not pay"]}`}
	c := NewBedrockClassifier(mock, "model-id", logging.New("error"))

	raw, err := c.Classify(context.Background(), "wrapped prompt", nil)

	require.NoError(t, err)
	assert.Equal(t, "HIGH_RISK", raw.Verdict)
	assert.Equal(t, 0.92, raw.Confidence)
	assert.Equal(t, []string{"urgency"}, raw.RedFlags)
}

func TestClassifySendsImages(t *testing.T) {
	mock := &mockConverse{response: `{"verdict": "SAFE", "confidence": 1}`}
	c := NewBedrockClassifier(mock, "model-id", logging.New("error"))

	_, err := c.Classify(context.Background(), "wrapped", []Image{
		{Data: []byte{0x89, 0x50}, MediaType: "image/png"},
	})

	require.NoError(t, err)
	require.NotNil(t, mock.input)
	content := mock.input.Messages[0].Content
	require.Len(t, content, 2)
	img, ok := content[1].(*brtypes.ContentBlockMemberImage)
	require.True(t, ok)
	assert.Equal(t, brtypes.ImageFormatPng, img.Value.Format)
}

func TestClassifyMalformedResponseIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", "I cannot help with that."},
		{"broken json", `{"verdict": `},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockConverse{response: tt.response}
			c := NewBedrockClassifier(mock, "model-id", logging.New("error"))
			_, err := c.Classify(context.Background(), "wrapped", nil)
			assert.Error(t, err, "malformed oracle response must not yield a verdict")
		})
	}
}

func TestClassifyConverseError(t *testing.T) {
	mock := &mockConverse{err: errors.New("throttled")}
	c := NewBedrockClassifier(mock, "model-id", logging.New("error"))
	_, err := c.Classify(context.Background(), "wrapped", nil)
	assert.Error(t, err)
}

func TestParseClassifierJSONMarkdownFences(t *testing.T) {
	raw, err := parseClassifierJSON("```json\n{\"verdict\": \"SAFE\", \"confidence\": 0.7}\n```")
	require.NoError(t, err)
	assert.Equal(t, "SAFE", raw.Verdict)
}
