package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const (
	transcriptionsURL = "https://api.openai.com/v1/audio/transcriptions"
	speechURL         = "https://api.openai.com/v1/audio/speech"
)

var (
	// ErrInvalidFormat возвращается при неподдерживаемом формате аудиофайла.
	ErrInvalidFormat = errors.New("неподдерживаемый формат аудиофайла")

	// ErrTooLarge возвращается, когда аудиофайл превышает лимит размера.
	ErrTooLarge = errors.New("аудиофайл превышает допустимый размер")
)

// Config содержит настройки аудио-сервиса.
type Config struct {
	APIKey           string
	WhisperModel     string
	TTSModel         string
	TTSVoice         string
	MaxFileSizeMB    int
	SupportedFormats []string
	RecordingsDir    string
	ResponsesDir     string
}

// Service выполняет транскрипцию и синтез речи через OpenAI
// и отвечает за хранение аудиофайлов на диске.
type Service struct {
	cfg    Config
	client *http.Client

	transcriptionsURL string
	speechURL         string
}

// NewService создает аудио-сервис.
func NewService(cfg Config) *Service {
	return &Service{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		transcriptionsURL: transcriptionsURL,
		speechURL:         speechURL,
	}
}

// ValidateUpload проверяет формат и размер загружаемого файла.
// Вызывается до любой мутации состояния сессии.
func (s *Service) ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	supported := false
	for _, f := range s.cfg.SupportedFormats {
		if ext == f {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, ext)
	}

	maxBytes := int64(s.cfg.MaxFileSizeMB) * 1024 * 1024
	if size > maxBytes {
		return fmt.Errorf("%w: %d байт при лимите %d МБ", ErrTooLarge, size, s.cfg.MaxFileSizeMB)
	}
	return nil
}

// Transcribe отправляет аудиофайл в Whisper и возвращает текст.
func (s *Service) Transcribe(ctx context.Context, filePath string) (string, error) {
	data, err := s.readRecording(filePath)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("error writing form file: %w", err)
	}
	if err := writer.WriteField("model", s.cfg.WhisperModel); err != nil {
		return "", fmt.Errorf("error writing model field: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("error writing response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.transcriptionsURL, &body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Whisper API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return strings.TrimSpace(string(respBody)), nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize озвучивает текст через TTS и возвращает mp3-байты.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	reqBody := speechRequest{
		Model:          s.cfg.TTSModel,
		Voice:          s.cfg.TTSVoice,
		Input:          text,
		ResponseFormat: "mp3",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.speechURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
