package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"techstack-mentor-backend/internal/audio"
	"techstack-mentor-backend/internal/metrics"
	"techstack-mentor-backend/internal/session"
	"techstack-mentor-backend/internal/storage"
)

type fakeLLM struct {
	mu        sync.Mutex
	questions []string
	genErr    error
	eval      *storage.Evaluation
	evalErr   error
	gotPairs  []storage.QA
}

func (f *fakeLLM) GenerateQuestions(ctx context.Context, techStack string, numQuestions int) ([]string, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.questions, nil
}

func (f *fakeLLM) Evaluate(ctx context.Context, techStack string, pairs []storage.QA) (*storage.Evaluation, error) {
	f.mu.Lock()
	f.gotPairs = pairs
	f.mu.Unlock()
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	if f.eval != nil {
		return f.eval, nil
	}
	return &storage.Evaluation{
		Score:        7.5,
		Feedback:     "Solid answers overall",
		CorrectCount: len(pairs),
	}, nil
}

func (f *fakeLLM) pairs() []storage.QA {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gotPairs
}

type fakeAudio struct {
	mu            sync.Mutex
	validateErr   error
	transcribeErr error
	synthErr      error
	saves         int
	synthCalls    int
	removed       []string
	// transcribeDelay задерживает транскрипцию с указанным порядковым
	// номером загрузки (начиная с 1); 0 задерживает все.
	transcribeDelay time.Duration
	delayCall       int
}

func (f *fakeAudio) ValidateUpload(filename string, size int64) error {
	return f.validateErr
}

func (f *fakeAudio) SaveRecording(data []byte, sessionID, extension string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return fmt.Sprintf("upload-%d%s", f.saves, extension), nil
}

func (f *fakeAudio) RemoveRecording(fileRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, fileRef)
	return nil
}

func (f *fakeAudio) removedFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed
}

func (f *fakeAudio) Transcribe(ctx context.Context, fileRef string) (string, error) {
	f.mu.Lock()
	delay := f.transcribeDelay
	target := f.delayCall
	f.mu.Unlock()

	var call int
	fmt.Sscanf(fileRef, "upload-%d", &call)
	if delay > 0 && (target == 0 || call == target) {
		time.Sleep(delay)
	}
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return "transcript of " + fileRef, nil
}

func (f *fakeAudio) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	f.synthCalls++
	f.mu.Unlock()
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return []byte("mp3 bytes"), nil
}

func (f *fakeAudio) SaveResponseAudio(data []byte, sessionID string, questionNumber int) (string, error) {
	return fmt.Sprintf("%s_q%d.mp3", sessionID, questionNumber), nil
}

func (f *fakeAudio) URLFor(fileRef string) string {
	return "/api/interview/audio/responses/" + fileRef
}

type fakeResults struct {
	mu         sync.Mutex
	saved      int
	result     *storage.Result
	suggestion *storage.Suggestion
	saveErr    error
}

func (f *fakeResults) SaveEvaluation(ctx context.Context, result *storage.Result, suggestion *storage.Suggestion) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return time.Time{}, f.saveErr
	}
	f.saved++
	f.result = result
	f.suggestion = suggestion
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), nil
}

func newTestService(t *testing.T, llm *fakeLLM, au *fakeAudio, results ResultStore, ttl time.Duration) *Service {
	t.Helper()
	store := session.NewMemoryStore(ttl)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(session.NewManager(store), llm, au, results, metrics.NewMetrics(), Config{
		MaxQuestions:     len(llm.questions),
		GatePollInterval: 10 * time.Millisecond,
		GateMaxWait:      2 * time.Second,
	})
}

func TestStartTextMode(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2", "q3"}}
	au := &fakeAudio{}
	svc := newTestService(t, llm, au, nil, time.Minute)

	result, err := svc.Start(ctx, "user-1", "Go разработка", false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if result.FirstQuestion != "q1" || result.TotalQuestions != 3 {
		t.Fatalf("unexpected start result: %+v", result)
	}
	if result.FirstAudioURL != "" {
		t.Fatalf("text mode must not produce audio, got %q", result.FirstAudioURL)
	}
	if au.synthCalls != 0 {
		t.Fatalf("text mode must not call the synthesizer, got %d calls", au.synthCalls)
	}
}

func TestStartVoiceMode(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2"}}
	au := &fakeAudio{}
	svc := newTestService(t, llm, au, nil, time.Minute)

	result, err := svc.Start(ctx, "user-1", "Go разработка", true)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if au.synthCalls != 2 {
		t.Fatalf("expected one synthesis per question, got %d", au.synthCalls)
	}
	if result.FirstAudioURL == "" {
		t.Fatal("voice mode must return an audio URL for the first question")
	}
}

func TestStartVoiceModeSynthesisFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	au := &fakeAudio{synthErr: errors.New("tts down")}
	svc := newTestService(t, llm, au, nil, time.Minute)

	result, err := svc.Start(ctx, "user-1", "Go разработка", true)
	if err != nil {
		t.Fatalf("Start must survive a synthesis failure, got %v", err)
	}
	if result.FirstAudioURL != "" {
		t.Fatal("failed synthesis must leave the audio URL empty")
	}
}

func TestStartGenerationFailure(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{genErr: errors.New("api down")}
	svc := newTestService(t, llm, &fakeAudio{}, nil, time.Minute)

	if _, err := svc.Start(ctx, "user-1", "Go разработка", false); err == nil {
		t.Fatal("expected an error when question generation fails")
	}
}

func TestTextFlowThroughEnd(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2", "q3"}}
	results := &fakeResults{}
	svc := newTestService(t, llm, &fakeAudio{}, results, time.Minute)

	start, err := svc.Start(ctx, "user-1", "Go разработка", false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	id := start.SessionID

	turn, err := svc.SubmitText(ctx, id, "answer 1")
	if err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}
	if turn.IsComplete || turn.NextQuestion != "q2" || turn.QuestionNumber != 2 {
		t.Fatalf("unexpected turn after first answer: %+v", turn)
	}

	if _, err := svc.SubmitText(ctx, id, "answer 2"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}
	turn, err = svc.SubmitText(ctx, id, "answer 3")
	if err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}
	if !turn.IsComplete {
		t.Fatal("the last answer must complete the interview")
	}

	end, err := svc.End(ctx, id)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if end.TotalQuestions != 3 {
		t.Fatalf("expected 3 evaluated pairs, got %d", end.TotalQuestions)
	}

	pairs := llm.pairs()
	if len(pairs) != 3 {
		t.Fatalf("evaluator received %d pairs, want 3", len(pairs))
	}
	for i, p := range pairs {
		wantQ := fmt.Sprintf("q%d", i+1)
		wantA := fmt.Sprintf("answer %d", i+1)
		if p.Question != wantQ || p.Answer != wantA {
			t.Fatalf("pair %d = %+v, want {%s %s}", i, p, wantQ, wantA)
		}
	}

	if results.saved != 1 {
		t.Fatalf("expected one persisted evaluation, got %d", results.saved)
	}
	if results.result.SessionID != id || results.result.TotalQuestions != 3 {
		t.Fatalf("unexpected persisted result: %+v", results.result)
	}

	m := svc.Metrics()
	if m.InterviewsStarted != 1 || m.InterviewsCompleted != 1 || m.TextAnswersReceived != 3 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestSubmitTextAfterCompletion(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	svc := newTestService(t, llm, &fakeAudio{}, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	if _, err := svc.SubmitText(ctx, start.SessionID, "a1"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}
	if _, err := svc.SubmitText(ctx, start.SessionID, "a2"); !errors.Is(err, session.ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}
}

func TestSubmitAudioReturnsBeforeTranscription(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2"}}
	au := &fakeAudio{transcribeDelay: 300 * time.Millisecond}
	svc := newTestService(t, llm, au, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)

	began := time.Now()
	turn, err := svc.SubmitAudio(ctx, start.SessionID, "answer.webm", []byte("audio"))
	if err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}
	if elapsed := time.Since(began); elapsed > 150*time.Millisecond {
		t.Fatalf("SubmitAudio waited for the transcription: %s", elapsed)
	}
	if turn.IsComplete || turn.NextQuestion != "q2" {
		t.Fatalf("unexpected turn: %+v", turn)
	}

	// Транскрипция доезжает в фоне
	deadline := time.Now().Add(time.Second)
	for {
		snap, err := svc.Status(ctx, start.SessionID)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if len(snap.Answers) == 1 {
			if snap.Answers[0] == "" {
				t.Fatal("transcription produced an empty answer")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background transcription never resolved")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSubmitAudioRejectsInvalidUploadWithoutClaimingSlot(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	au := &fakeAudio{validateErr: audio.ErrInvalidFormat}
	svc := newTestService(t, llm, au, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)

	if _, err := svc.SubmitAudio(ctx, start.SessionID, "answer.txt", []byte("x")); !errors.Is(err, audio.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}

	snap, err := svc.Status(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.TranscriptionsTotal != 0 || snap.IsComplete {
		t.Fatalf("rejected upload must not mutate the session: %+v", snap)
	}
}

func TestSubmitAudioRemovesRecordingWhenClaimFails(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	au := &fakeAudio{}
	svc := newTestService(t, llm, au, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	if _, err := svc.SubmitText(ctx, start.SessionID, "a1"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}

	// Интервью завершено — слот занять нельзя, запись не должна осиротеть
	if _, err := svc.SubmitAudio(ctx, start.SessionID, "late.webm", []byte("audio")); !errors.Is(err, session.ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}

	removed := au.removedFiles()
	if len(removed) != 1 || removed[0] != "upload-1.webm" {
		t.Fatalf("the saved recording must be removed, got %v", removed)
	}
}

func TestEndWaitsForPendingTranscriptions(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2"}}
	au := &fakeAudio{transcribeDelay: 80 * time.Millisecond}
	svc := newTestService(t, llm, au, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	id := start.SessionID

	if _, err := svc.SubmitAudio(ctx, id, "a1.webm", []byte("audio")); err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}
	turn, err := svc.SubmitAudio(ctx, id, "a2.webm", []byte("audio"))
	if err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}
	if !turn.IsComplete {
		t.Fatal("second audio answer must complete a two-question interview")
	}

	end, err := svc.End(ctx, id)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if end.TotalQuestions != 2 {
		t.Fatalf("expected both transcriptions in the evaluation, got %d pairs", end.TotalQuestions)
	}
	for i, p := range llm.pairs() {
		if p.Answer == "" {
			t.Fatalf("pair %d lost its transcription: %+v", i, p)
		}
	}
}

func TestEndGateTimeoutProceedsWithAvailableAnswers(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2", "q3"}}
	// Вторая загрузка зависает заведомо дольше окна ожидания
	au := &fakeAudio{transcribeDelay: 2 * time.Second, delayCall: 2}
	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	svc := NewService(session.NewManager(store), llm, au, nil, metrics.NewMetrics(), Config{
		MaxQuestions:     3,
		GatePollInterval: 10 * time.Millisecond,
		GateMaxWait:      100 * time.Millisecond,
	})

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	id := start.SessionID

	if _, err := svc.SubmitAudio(ctx, id, "a1.webm", []byte("audio")); err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}
	if _, err := svc.SubmitAudio(ctx, id, "a2.webm", []byte("audio")); err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}
	if _, err := svc.SubmitText(ctx, id, "text answer"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}

	began := time.Now()
	end, err := svc.End(ctx, id)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Fatalf("End must return within the gate window, took %s", elapsed)
	}
	if end.TotalQuestions != 2 {
		t.Fatalf("expected 2 available pairs, got %d", end.TotalQuestions)
	}
}

func TestEndFailedTranscriptionRecordsEmptyAnswer(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	au := &fakeAudio{transcribeErr: errors.New("whisper down")}
	svc := newTestService(t, llm, au, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)

	if _, err := svc.SubmitAudio(ctx, start.SessionID, "a1.webm", []byte("audio")); err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}

	began := time.Now()
	end, err := svc.End(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	// Проваленная транскрипция закрывает слот пустым ответом —
	// барьер не должен ждать до таймаута
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Fatalf("failed transcription must not stall the gate, took %s", elapsed)
	}
	if end.TotalQuestions != 1 {
		t.Fatalf("expected the empty answer to be evaluated, got %d pairs", end.TotalQuestions)
	}
	pairs := llm.pairs()
	if len(pairs) != 1 || pairs[0].Answer != "" {
		t.Fatalf("expected an empty answer pair, got %+v", pairs)
	}

	m := svc.Metrics()
	if m.TranscriptionsFailed != 1 {
		t.Fatalf("expected one failed transcription in metrics, got %d", m.TranscriptionsFailed)
	}
}

func TestEndWithNoAnswers(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	svc := newTestService(t, llm, &fakeAudio{}, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)

	if _, err := svc.End(ctx, start.SessionID); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("expected ErrNoAnswers, got %v", err)
	}
}

func TestEndAfterSessionExpiry(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1", "q2"}}
	svc := newTestService(t, llm, &fakeAudio{}, nil, 40*time.Millisecond)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	if _, err := svc.SubmitText(ctx, start.SessionID, "a1"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := svc.End(ctx, start.SessionID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL expiry, got %v", err)
	}
}

func TestEndWithoutResultStore(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	svc := newTestService(t, llm, &fakeAudio{}, nil, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	if _, err := svc.SubmitText(ctx, start.SessionID, "a1"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}

	end, err := svc.End(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("End must work without a result store: %v", err)
	}
	if end.Score != 7.5 {
		t.Fatalf("unexpected score: %v", end.Score)
	}
	if end.CreatedAt.IsZero() {
		t.Fatal("CreatedAt must be filled even without persistence")
	}
}

func TestEndIsRepeatableWhileSessionLives(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{questions: []string{"q1"}}
	results := &fakeResults{}
	svc := newTestService(t, llm, &fakeAudio{}, results, time.Minute)

	start, _ := svc.Start(ctx, "user-1", "Go разработка", false)
	if _, err := svc.SubmitText(ctx, start.SessionID, "a1"); err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}

	if _, err := svc.End(ctx, start.SessionID); err != nil {
		t.Fatalf("first End failed: %v", err)
	}
	// Сессия живет до TTL, повторное завершение переоценивает те же ответы
	if _, err := svc.End(ctx, start.SessionID); err != nil {
		t.Fatalf("second End failed: %v", err)
	}
	if results.saved != 2 {
		t.Fatalf("expected two saved evaluations, got %d", results.saved)
	}
}
