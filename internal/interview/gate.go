package interview

import (
	"context"
	"log"
	"time"
)

// waitForTranscriptions — барьер перед оценкой: опрашивает состояние
// транскрипций с фиксированным интервалом, но не дольше GateMaxWait.
// Истечение ожидания — не ошибка: оценка пойдет по имеющимся ответам.
// Если сессия исчезла во время ожидания (TTL), возвращается ErrNotFound.
// Барьер никогда не перезапускает саму транскрипцию.
func (s *Service) waitForTranscriptions(ctx context.Context, sessionID string) error {
	deadline := time.Now().Add(s.cfg.GateMaxWait)

	for {
		done, err := s.sessions.AllComplete(ctx, sessionID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if !time.Now().Before(deadline) {
			completed, total, perr := s.sessions.Progress(ctx, sessionID)
			if perr == nil {
				log.Printf("сессия %s: ожидание транскрипций истекло (%d/%d), продолжаем с имеющимися ответами",
					sessionID, completed, total)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.GatePollInterval):
		}
	}
}
