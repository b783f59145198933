package audio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	return NewService(Config{
		APIKey:           "test-key",
		WhisperModel:     "whisper-1",
		TTSModel:         "tts-1",
		TTSVoice:         "alloy",
		MaxFileSizeMB:    1,
		SupportedFormats: []string{".webm", ".mp3", ".wav"},
		RecordingsDir:    filepath.Join(dir, "recordings"),
		ResponsesDir:     filepath.Join(dir, "responses"),
	})
}

func TestValidateUpload(t *testing.T) {
	s := newTestService(t)

	if err := s.ValidateUpload("answer.webm", 1024); err != nil {
		t.Fatalf("valid upload rejected: %v", err)
	}
	// Регистр расширения не важен
	if err := s.ValidateUpload("ANSWER.MP3", 1024); err != nil {
		t.Fatalf("uppercase extension rejected: %v", err)
	}

	if err := s.ValidateUpload("answer.txt", 1024); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if err := s.ValidateUpload("answer", 1024); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for a missing extension, got %v", err)
	}
	if err := s.ValidateUpload("answer.webm", 2*1024*1024); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestSaveRecordingAndRead(t *testing.T) {
	s := newTestService(t)

	path, err := s.SaveRecording([]byte("audio bytes"), "session-1", ".webm")
	if err != nil {
		t.Fatalf("SaveRecording failed: %v", err)
	}
	if !strings.HasSuffix(path, ".webm") {
		t.Fatalf("unexpected file path: %s", path)
	}
	if !strings.Contains(filepath.Base(path), "session-1_") {
		t.Fatalf("file name must embed the session id: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file failed: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Fatalf("file contents mismatch: %q", data)
	}

	// Повторное сохранение не перетирает предыдущую запись
	second, err := s.SaveRecording([]byte("more audio"), "session-1", ".webm")
	if err != nil {
		t.Fatalf("second SaveRecording failed: %v", err)
	}
	if second == path {
		t.Fatal("each recording must get a unique file name")
	}
}

func TestRemoveRecording(t *testing.T) {
	s := newTestService(t)

	path, err := s.SaveRecording([]byte("audio"), "session-1", ".webm")
	if err != nil {
		t.Fatalf("SaveRecording failed: %v", err)
	}

	if err := s.RemoveRecording(path); err != nil {
		t.Fatalf("RemoveRecording failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file must be gone, stat returned: %v", err)
	}

	// Повторное удаление — не ошибка
	if err := s.RemoveRecording(path); err != nil {
		t.Fatalf("removing a missing file must not fail: %v", err)
	}
}

func TestSaveResponseAudio(t *testing.T) {
	s := newTestService(t)

	path, err := s.SaveResponseAudio([]byte("mp3 bytes"), "session-1", 3)
	if err != nil {
		t.Fatalf("SaveResponseAudio failed: %v", err)
	}
	if filepath.Base(path) != "session-1_q3.mp3" {
		t.Fatalf("unexpected response file name: %s", filepath.Base(path))
	}
}

func TestURLFor(t *testing.T) {
	s := newTestService(t)

	recURL := s.URLFor(filepath.Join(s.RecordingsDir(), "session-1_abc.webm"))
	if recURL != "/api/interview/audio/recordings/session-1_abc.webm" {
		t.Fatalf("unexpected recording URL: %s", recURL)
	}

	respURL := s.URLFor(filepath.Join(s.ResponsesDir(), "session-1_q1.mp3"))
	if respURL != "/api/interview/audio/responses/session-1_q1.mp3" {
		t.Fatalf("unexpected response URL: %s", respURL)
	}
}

func TestTranscribe(t *testing.T) {
	s := newTestService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("invalid multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model field: %q", got)
		}
		if got := r.FormValue("response_format"); got != "text" {
			t.Errorf("unexpected response_format field: %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		w.Write([]byte("  Goroutines are lightweight threads.  \n"))
	}))
	t.Cleanup(srv.Close)
	s.transcriptionsURL = srv.URL

	path, err := s.SaveRecording([]byte("audio"), "session-1", ".webm")
	if err != nil {
		t.Fatalf("SaveRecording failed: %v", err)
	}

	text, err := s.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "Goroutines are lightweight threads." {
		t.Fatalf("unexpected transcript: %q", text)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	s := newTestService(t)

	if _, err := s.Transcribe(context.Background(), filepath.Join(s.RecordingsDir(), "nope.webm")); err == nil {
		t.Fatal("expected an error for a missing recording")
	}
}

func TestTranscribeAPIError(t *testing.T) {
	s := newTestService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	s.transcriptionsURL = srv.URL

	path, err := s.SaveRecording([]byte("audio"), "session-1", ".webm")
	if err != nil {
		t.Fatalf("SaveRecording failed: %v", err)
	}

	_, err = s.Transcribe(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error on non-200 status")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("error must carry the status code, got: %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	s := newTestService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		if req.Model != "tts-1" || req.Voice != "alloy" || req.ResponseFormat != "mp3" {
			t.Errorf("unexpected speech request: %+v", req)
		}
		w.Write([]byte("mp3 payload"))
	}))
	t.Cleanup(srv.Close)
	s.speechURL = srv.URL

	data, err := s.Synthesize(context.Background(), "What is a goroutine?")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(data) != "mp3 payload" {
		t.Fatalf("unexpected audio payload: %q", data)
	}
}
