package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scamshield/scamshield/pkg/logging"
)

// maxAudioBytes is the transcription API's file limit. Larger uploads are
// rejected before any bytes are sent.
const maxAudioBytes = 25 << 20

// ErrAudioTooLarge indicates the uploaded audio exceeds maxAudioBytes.
var ErrAudioTooLarge = errors.New("media: audio exceeds 25MB transcription limit")

// audioAPI is the subset of the OpenAI client used for transcription.
type audioAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperTranscriber converts audio to text via the OpenAI audio API.
type WhisperTranscriber struct {
	client audioAPI
	model  string
	logger *logging.Logger
}

// NewWhisperTranscriber builds a transcriber. model defaults to whisper-1.
func NewWhisperTranscriber(client audioAPI, model string, logger *logging.Logger) *WhisperTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhisperTranscriber{client: client, model: model, logger: logger}
}

// Transcribe returns the spoken text of the audio. filename carries the
// extension the API uses to sniff the container format.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, filename string, data []byte) (string, error) {
	if t.client == nil {
		return "", errors.New("media: transcriber not configured")
	}
	if len(data) == 0 {
		return "", errors.New("media: empty audio payload")
	}
	if len(data) > maxAudioBytes {
		return "", ErrAudioTooLarge
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("media: transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	t.logger.Debug("transcribed audio", "bytes", len(data), "transcript_len", len(text))
	return text, nil
}
