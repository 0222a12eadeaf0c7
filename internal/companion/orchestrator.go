package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/gina-service/internal/model"
	registrycompletion "github.com/chirino/gina-service/internal/registry/completion"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
)

// HistoryWindow is the number of most recent history turns replayed to the model.
const HistoryWindow = 10

var (
	replyParams   = registrycompletion.Request{Temperature: 0.7, MaxTokens: 500, PresencePenalty: 0.1, FrequencyPenalty: 0.1}
	factsParams   = registrycompletion.Request{Temperature: 0.1, MaxTokens: 200}
	summaryParams = registrycompletion.Request{Temperature: 0.3, MaxTokens: 200}
)

// Records is the part of the record store a chat turn reads and writes.
type Records interface {
	GetIntake(ctx context.Context, userID string) (*model.Intake, error)
	GetFacts(ctx context.Context, userID string) (model.Facts, error)
	MergeFacts(ctx context.Context, userID string, patch model.Facts) (model.Facts, error)
	GetLatestHistory(ctx context.Context, userID string) (*registrystore.ConversationHistory, error)
	ReplaceHistory(ctx context.Context, userID string, turns []model.Turn) error
}

// TurnRequest is one inbound chat turn. An empty UserID makes the turn anonymous:
// no stored context is read and nothing is persisted.
type TurnRequest struct {
	UserID  string
	Message string
	History []model.Turn
	Metrics *model.MentalMetrics
	// RawMetrics is the metrics object as the client sent it. When it is a
	// JSON object it is persisted as-is, keeping fields Metrics does not model.
	RawMetrics json.RawMessage
}

// TurnResult is returned as soon as the reply is ready. Enrichment tracks the
// background tasks the turn started.
type TurnResult struct {
	Reply        string
	HistorySaved bool
	Timestamp    time.Time
	Enrichment   *Enrichment
}

// Enrichment is a handle on the detached tasks of one turn. Callers are free
// to ignore it; tests use Wait to make the side effects deterministic.
type Enrichment struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []*EnrichmentError
}

// Wait blocks until every task has finished and returns the failures.
func (e *Enrichment) Wait() []*EnrichmentError {
	if e == nil {
		return nil
	}
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*EnrichmentError(nil), e.errs...)
}

func (e *Enrichment) fail(err *EnrichmentError) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSerializedUserWrites runs the enrichment tasks of one user one at a time.
// Without it, concurrent turns for the same user race and the last write wins.
func WithSerializedUserWrites(enabled bool) Option {
	return func(o *Orchestrator) {
		if enabled {
			o.locks = &userLocks{m: map[string]*userLock{}}
		} else {
			o.locks = nil
		}
	}
}

// Orchestrator runs chat turns. It holds no per-user state between calls.
type Orchestrator struct {
	records   Records
	completer registrycompletion.Completer
	now       func() time.Time
	locks     *userLocks
}

// New creates an Orchestrator.
func New(records Records, completer registrycompletion.Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{records: records, completer: completer, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn produces a reply for one user message. Only an empty message is
// an error; provider failures degrade to FallbackReply and enrichment failures
// are logged.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &ValidationError{Field: "message", Message: "Message is required"}
	}
	userID := req.UserID
	history := req.History

	if len(history) == 0 && userID != "" {
		stored, err := o.records.GetLatestHistory(ctx, userID)
		if err != nil {
			log.Warn("Failed to load stored history", "userId", userID, "err", err)
		} else if stored != nil {
			history = stored.Turns
		}
	}

	var profile string
	if userID != "" {
		profile = Compose(o.loadProfile(ctx, userID))
	}
	metrics := req.Metrics
	if metrics.Empty() {
		metrics = nil
	}
	contextBlock := systemContext(profile, FormatLiveMetrics(metrics))

	emotion := Classify(req.Message)
	messages := BuildPrompt(contextBlock, history, req.Message, emotion)

	reply, err := o.complete(ctx, "reply", replyParams, messages)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		log.Warn("Primary completion failed; sending fallback reply", "userId", userID, "err", err)
		reply = FallbackReply
	} else if formatted := FormatResources(reply); strings.TrimSpace(formatted) != "" {
		reply = formatted
	}

	newHistory := make([]model.Turn, 0, len(history)+2)
	newHistory = append(newHistory, history...)
	newHistory = append(newHistory,
		model.Turn{Role: model.RoleUser, Content: req.Message},
		model.Turn{Role: model.RoleAssistant, Content: reply},
	)

	now := o.now()
	result := &TurnResult{
		Reply:        reply,
		HistorySaved: userID != "",
		Timestamp:    now,
		Enrichment:   &Enrichment{},
	}
	if userID == "" {
		return result, nil
	}

	bg := context.WithoutCancel(ctx)
	e := result.Enrichment
	if metrics != nil {
		o.dispatch(e, userID, TaskMetrics, func() error {
			_, err := o.records.MergeFacts(bg, userID, model.Facts{
				model.FactLastMentalMetrics:    metricsSnapshot(req.RawMetrics, metrics),
				model.FactLastMetricsUpdatedAt: now.UTC().Format(time.RFC3339Nano),
			})
			return err
		})
	}
	o.dispatch(e, userID, TaskHistory, func() error {
		return o.records.ReplaceHistory(bg, userID, newHistory)
	})
	o.dispatch(e, userID, TaskFacts, func() error {
		return o.extractFacts(bg, userID, req.Message)
	})
	o.dispatch(e, userID, TaskSummary, func() error {
		return o.updateSummary(bg, userID, req.Message, reply)
	})
	return result, nil
}

// metricsSnapshot prefers the client's own object over the parsed view.
func metricsSnapshot(raw json.RawMessage, parsed *model.MentalMetrics) interface{} {
	var obj map[string]interface{}
	if len(raw) > 0 && json.Unmarshal(raw, &obj) == nil && obj != nil {
		return obj
	}
	return parsed
}

// BuildPrompt assembles the message list for the primary completion: the
// system prompt, the optional context message, the last HistoryWindow turns
// and the possibly annotated user message.
func BuildPrompt(contextBlock string, history []model.Turn, message string, emotion Emotion) []registrycompletion.Message {
	prompt := systemPrompt
	if emotion.NeedsEmpathy {
		prompt += empathyPrompt
	}
	messages := []registrycompletion.Message{{Role: model.RoleSystem, Content: prompt}}
	if strings.TrimSpace(contextBlock) != "" {
		messages = append(messages, registrycompletion.Message{Role: model.RoleSystem, Content: contextBlock})
	}
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	for _, turn := range history {
		role := model.RoleAssistant
		if turn.Role == model.RoleUser {
			role = model.RoleUser
		}
		messages = append(messages, registrycompletion.Message{Role: role, Content: turn.Content})
	}
	return append(messages, registrycompletion.Message{Role: model.RoleUser, Content: emotion.Annotate(message)})
}

func (o *Orchestrator) loadProfile(ctx context.Context, userID string) (*model.Intake, model.Facts) {
	intake, err := o.records.GetIntake(ctx, userID)
	if err != nil {
		log.Warn("Failed to load intake", "userId", userID, "err", err)
		intake = nil
	}
	facts, err := o.records.GetFacts(ctx, userID)
	if err != nil {
		log.Warn("Failed to load facts", "userId", userID, "err", err)
		facts = nil
	}
	return intake, facts
}

func (o *Orchestrator) extractFacts(ctx context.Context, userID, message string) error {
	out, err := o.complete(ctx, "facts", factsParams, []registrycompletion.Message{
		{Role: model.RoleSystem, Content: factExtractionPrompt},
		{Role: model.RoleUser, Content: message},
	})
	if err != nil {
		return err
	}
	facts, err := parseFactsStrict(out)
	if err != nil {
		return fmt.Errorf("%w: %v", errNothingToMerge, err)
	}
	if len(facts) == 0 {
		return errNothingToMerge
	}
	_, err = o.records.MergeFacts(ctx, userID, facts)
	return err
}

func (o *Orchestrator) updateSummary(ctx context.Context, userID, message, reply string) error {
	current, err := o.records.GetFacts(ctx, userID)
	if err != nil {
		return err
	}
	previous := current.String(model.FactSummary)
	out, err := o.complete(ctx, "summary", summaryParams, []registrycompletion.Message{
		{Role: model.RoleSystem, Content: summarizerPrompt},
		{Role: model.RoleUser, Content: summaryPrompt(previous, message, reply)},
	})
	if err != nil {
		return err
	}
	summary := strings.TrimSpace(out)
	if summary == "" {
		return errNothingToMerge
	}
	_, err = o.records.MergeFacts(ctx, userID, model.Facts{model.FactSummary: summary})
	return err
}

func (o *Orchestrator) complete(ctx context.Context, purpose string, params registrycompletion.Request, messages []registrycompletion.Message) (string, error) {
	params.Messages = messages
	start := time.Now()
	out, err := o.completer.Complete(ctx, params)
	security.ObserveCompletion(purpose, err, start)
	return out, err
}

// dispatch is the single place where enrichment errors are turned into log
// lines. Tasks never report back to the turn that started them.
func (o *Orchestrator) dispatch(e *Enrichment, userID string, task Task, fn func() error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if o.locks != nil {
			defer o.locks.lock(userID)()
		}
		err := runTask(fn)
		switch {
		case err == nil:
			security.CountEnrichment(string(task), "ok")
		case errors.Is(err, errNothingToMerge):
			security.CountEnrichment(string(task), "skipped")
			log.Debug("Enrichment skipped", "task", task, "userId", userID, "reason", err)
		default:
			security.CountEnrichment(string(task), "error")
			log.Warn("Enrichment failed", "task", task, "userId", userID, "err", err)
			e.fail(&EnrichmentError{Task: task, UserID: userID, Err: err})
		}
	}()
}

func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

type userLocks struct {
	mu sync.Mutex
	m  map[string]*userLock
}

// lock acquires the user's lock and returns its release function.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	ul, ok := l.m[userID]
	if !ok {
		ul = &userLock{}
		l.m[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}
