package session

import (
	"context"
	"errors"
	"log"
	"sync"
)

// errUnchanged сигнализирует из мутатора, что запись менять не нужно.
var errUnchanged = errors.New("запись не изменена")

// Manager сериализует все операции чтения-изменения-записи над записью сессии.
// У самого хранилища нет ни блокировок, ни compare-and-swap, поэтому без
// сериализации два конкурентных писателя (фоновая транскрипция и очередной
// ответ клиента) молча теряли бы обновления друг друга. Мьютекс на каждую
// сессию закрывает эту дыру в пределах одного процесса.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager создает менеджер сессий поверх хранилища.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// lockFor возвращает мьютекс конкретной сессии, создавая его при необходимости.
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

func (m *Manager) releaseLock(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
}

// update выполняет полный цикл "прочитать-изменить-записать" под мьютексом сессии.
// Возвращает обновленную запись.
func (m *Manager) update(ctx context.Context, id string, fn func(*Record) error) (*Record, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			// Путь чтения деградирует до "не найдено".
			log.Printf("сессия %s: кэш недоступен при чтении: %v", id, err)
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrNotFound) {
			// Обычный конец жизни сессии — TTL, без явного Delete.
			// Мьютекс исчезнувшей сессии удаляется здесь, иначе карта
			// блокировок росла бы бесконечно.
			m.releaseLock(id)
		}
		return nil, err
	}

	if err := fn(rec); err != nil {
		if errors.Is(err, errUnchanged) {
			return rec, nil
		}
		return nil, err
	}

	if err := m.store.Set(ctx, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create сохраняет новую запись сессии.
func (m *Manager) Create(ctx context.Context, id string, rec *Record) error {
	return m.store.Create(ctx, id, rec)
}

// Get возвращает снимок записи сессии.
// Недоступность кэша на чтении деградирует до ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			log.Printf("сессия %s: кэш недоступен при чтении: %v", id, err)
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrNotFound) {
			m.releaseLock(id)
		}
		return nil, err
	}
	return rec, nil
}

// AppendQuestion добавляет вопрос (и URL его аудио) в сессию.
func (m *Manager) AppendQuestion(ctx context.Context, id, question, audioURL string) error {
	_, err := m.update(ctx, id, func(rec *Record) error {
		if rec.IsComplete {
			return ErrAlreadyComplete
		}
		rec.Questions = append(rec.Questions, question)
		rec.AudioURLs = append(rec.AudioURLs, audioURL)
		return nil
	})
	return err
}

// SubmitText записывает текстовый ответ: добавляет ответ, сразу помечает его
// слот транскрипции разрешенным и продвигает указатель. Если это был последний
// вопрос — в той же записи выставляется is_complete.
func (m *Manager) SubmitText(ctx context.Context, id, text string) (*Record, error) {
	return m.update(ctx, id, func(rec *Record) error {
		if rec.IsComplete {
			return ErrAlreadyComplete
		}
		rec.Answers = append(rec.Answers, text)
		rec.TranscriptionStatus = append(rec.TranscriptionStatus, true)
		rec.CurrentIndex++
		if rec.CurrentIndex >= len(rec.Questions) {
			rec.IsComplete = true
		}
		return nil
	})
}

// ClaimAudioSlot занимает слот ответа под аудио-загрузку: фиксирует индекс
// ответа до мутации, добавляет незавершенный слот транскрипции и продвигает
// указатель, не дожидаясь самой транскрипции.
func (m *Manager) ClaimAudioSlot(ctx context.Context, id string) (int, *Record, error) {
	answerIndex := -1
	rec, err := m.update(ctx, id, func(rec *Record) error {
		if rec.IsComplete {
			return ErrAlreadyComplete
		}
		answerIndex = rec.CurrentIndex
		rec.TranscriptionStatus = append(rec.TranscriptionStatus, false)
		rec.CurrentIndex++
		if rec.CurrentIndex >= len(rec.Questions) {
			rec.IsComplete = true
		}
		return nil
	})
	if err != nil {
		return -1, nil, err
	}
	return answerIndex, rec, nil
}

// ResolveTranscription записывает результат фоновой транскрипции: добавляет
// текст ответа (возможно пустой — при ошибке транскрипции) без продвижения
// указателя и помечает слот разрешенным.
func (m *Manager) ResolveTranscription(ctx context.Context, id, text string, answerIndex int) error {
	_, err := m.update(ctx, id, func(rec *Record) error {
		rec.Answers = append(rec.Answers, text)
		markStatus(rec, answerIndex)
		return nil
	})
	return err
}

// MarkPending добавляет незавершенный слот транскрипции.
func (m *Manager) MarkPending(ctx context.Context, id string) error {
	_, err := m.update(ctx, id, func(rec *Record) error {
		rec.TranscriptionStatus = append(rec.TranscriptionStatus, false)
		return nil
	})
	return err
}

// MarkComplete помечает слот транскрипции разрешенным. Идемпотентна:
// повторный вызов по тому же индексу не меняет запись.
func (m *Manager) MarkComplete(ctx context.Context, id string, answerIndex int) error {
	_, err := m.update(ctx, id, func(rec *Record) error {
		if answerIndex < len(rec.TranscriptionStatus) && rec.TranscriptionStatus[answerIndex] {
			return errUnchanged
		}
		markStatus(rec, answerIndex)
		return nil
	})
	return err
}

// markStatus выставляет слот answerIndex в true, дополняя срез значениями
// false, если индекс опережает текущую длину (защита от переупорядочивания).
func markStatus(rec *Record, answerIndex int) {
	if answerIndex < 0 {
		return
	}
	for len(rec.TranscriptionStatus) <= answerIndex {
		rec.TranscriptionStatus = append(rec.TranscriptionStatus, false)
	}
	rec.TranscriptionStatus[answerIndex] = true
}

// Progress возвращает прогресс транскрипций: сколько слотов разрешено из скольких.
func (m *Manager) Progress(ctx context.Context, id string) (completed, total int, err error) {
	rec, err := m.Get(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	for _, done := range rec.TranscriptionStatus {
		if done {
			completed++
		}
	}
	return completed, len(rec.TranscriptionStatus), nil
}

// AllComplete сообщает, разрешены ли все транскрипции. Расхождение длин
// (ответ добавлен, а слот еще нет, или наоборот) считается незавершенностью —
// это ключевое условие корректности барьера перед оценкой.
func (m *Manager) AllComplete(ctx context.Context, id string) (bool, error) {
	rec, err := m.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if len(rec.TranscriptionStatus) != len(rec.Answers) {
		return false, nil
	}
	for _, done := range rec.TranscriptionStatus {
		if !done {
			return false, nil
		}
	}
	return true, nil
}

// MarkSessionComplete выставляет is_complete. Флаг никогда не сбрасывается.
func (m *Manager) MarkSessionComplete(ctx context.Context, id string) error {
	_, err := m.update(ctx, id, func(rec *Record) error {
		if rec.IsComplete {
			return errUnchanged
		}
		rec.IsComplete = true
		return nil
	})
	return err
}

// Delete удаляет сессию и её мьютекс. Обычно сессию уничтожает TTL,
// явное удаление нужно только после оценки.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.releaseLock(id)
	return nil
}

// Ping проверяет доступность хранилища сессий.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
