package transcribe

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// translationSystemPrompt is the fixed instruction for the translation model.
const translationSystemPrompt = "You are a professional translator. Translate the following Japanese text to English, maintaining the original meaning and nuance:"

// Service transcribes spoken-Japanese audio and translates it to English.
type Service struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewService creates a transcription/translation service. model is the chat
// model used for translation.
func NewService(apiKey, model string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

// TranscribeAndTranslate runs Whisper speech-to-text on mediaPath, then
// translates the transcript with the chat model. Failures in either half
// surface as one combined error; callers cannot distinguish which step
// failed from the error alone.
func (s *Service) TranscribeAndTranslate(ctx context.Context, mediaPath string) (string, string, error) {
	transcription, err := s.transcribe(ctx, mediaPath)
	if err != nil {
		return "", "", fmt.Errorf("transcription or translation failed: %w", err)
	}

	translation, err := s.translate(ctx, transcription)
	if err != nil {
		return "", "", fmt.Errorf("transcription or translation failed: %w", err)
	}

	return transcription, translation, nil
}

func (s *Service) transcribe(ctx context.Context, mediaPath string) (string, error) {
	f, err := os.Open(mediaPath)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	s.logger.Info("starting transcription", zap.String("path", mediaPath))
	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    openai.AudioModelWhisper1,
		File:     f,
		Language: openai.String("ja"),
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	s.logger.Info("transcription completed", zap.Int("chars", len(resp.Text)))
	return resp.Text, nil
}

func (s *Service) translate(ctx context.Context, transcription string) (string, error) {
	s.logger.Info("starting translation", zap.String("model", s.model))
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(translationSystemPrompt),
			openai.UserMessage(transcription),
		},
	})
	if err != nil {
		return "", fmt.Errorf("translation model: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation model returned no choices")
	}
	s.logger.Info("translation completed")
	return resp.Choices[0].Message.Content, nil
}
