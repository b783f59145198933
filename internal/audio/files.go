package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// saveFile сохраняет аудио-данные в файл и возвращает путь к нему.
func saveFile(data []byte, dir, filename, extension string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	filename = strings.TrimSuffix(filename, extension)
	path := filepath.Join(dir, filename+extension)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("ошибка записи файла %s: %w", path, err)
	}
	return path, nil
}

// SaveRecording сохраняет загруженную запись пользователя.
// Возвращает путь к файлу, по которому его заберет фоновая транскрипция.
func (s *Service) SaveRecording(data []byte, sessionID, extension string) (string, error) {
	filename := fmt.Sprintf("%s_%s", sessionID, uuid.NewString())
	return saveFile(data, s.cfg.RecordingsDir, filename, extension)
}

// SaveResponseAudio сохраняет озвученный вопрос.
func (s *Service) SaveResponseAudio(data []byte, sessionID string, questionNumber int) (string, error) {
	filename := fmt.Sprintf("%s_q%d", sessionID, questionNumber)
	return saveFile(data, s.cfg.ResponsesDir, filename, ".mp3")
}

// RemoveRecording удаляет сохраненную запись, которой не нашлось слота ответа.
// Уже отсутствующий файл — не ошибка.
func (s *Service) RemoveRecording(filePath string) error {
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления аудиофайла %s: %w", filePath, err)
	}
	return nil
}

// readRecording читает сохраненную запись с диска.
func (s *Service) readRecording(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудиофайла %s: %w", filePath, err)
	}
	return data, nil
}

// URLFor возвращает URL, по которому клиент может получить аудиофайл.
func (s *Service) URLFor(filePath string) string {
	filename := filepath.Base(filePath)
	if strings.Contains(filePath, "recordings") {
		return "/api/interview/audio/recordings/" + filename
	}
	return "/api/interview/audio/responses/" + filename
}

// RecordingsDir возвращает директорию с записями пользователя.
func (s *Service) RecordingsDir() string {
	return s.cfg.RecordingsDir
}

// ResponsesDir возвращает директорию с озвученными вопросами.
func (s *Service) ResponsesDir() string {
	return s.cfg.ResponsesDir
}
