package metrics

import (
	"context"
	"time"

	"github.com/chirino/gina-service/internal/model"
	"github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/security"
)

// Wrap returns a RecordStore that records StoreLatency for every operation.
func Wrap(inner store.RecordStore) store.RecordStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.RecordStore
}

func observe(op string, start time.Time) {
	if security.StoreLatency == nil {
		return
	}
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) CreateUser(ctx context.Context, email string, passwordHash string, username *string) (*model.User, error) {
	defer observe("create_user", time.Now())
	return m.inner.CreateUser(ctx, email, passwordHash, username)
}

func (m *metricsStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	defer observe("get_user", time.Now())
	return m.inner.GetUser(ctx, userID)
}

func (m *metricsStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer observe("get_user_by_email", time.Now())
	return m.inner.GetUserByEmail(ctx, email)
}

func (m *metricsStore) FindOrCreateOIDCUser(ctx context.Context, subject string, email string) (*model.User, error) {
	defer observe("find_or_create_oidc_user", time.Now())
	return m.inner.FindOrCreateOIDCUser(ctx, subject, email)
}

func (m *metricsStore) UpdateUsername(ctx context.Context, userID string, username string) (*model.User, error) {
	defer observe("update_username", time.Now())
	return m.inner.UpdateUsername(ctx, userID, username)
}

func (m *metricsStore) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	defer observe("update_password_hash", time.Now())
	return m.inner.UpdatePasswordHash(ctx, userID, passwordHash)
}

func (m *metricsStore) DeleteUser(ctx context.Context, userID string) error {
	defer observe("delete_user", time.Now())
	return m.inner.DeleteUser(ctx, userID)
}

func (m *metricsStore) GetLatestHistory(ctx context.Context, userID string) (*store.ConversationHistory, error) {
	defer observe("get_latest_history", time.Now())
	return m.inner.GetLatestHistory(ctx, userID)
}

func (m *metricsStore) ReplaceHistory(ctx context.Context, userID string, turns []model.Turn) error {
	defer observe("replace_history", time.Now())
	return m.inner.ReplaceHistory(ctx, userID, turns)
}

func (m *metricsStore) DeleteHistory(ctx context.Context, userID string) error {
	defer observe("delete_history", time.Now())
	return m.inner.DeleteHistory(ctx, userID)
}

func (m *metricsStore) GetIntake(ctx context.Context, userID string) (*model.Intake, error) {
	defer observe("get_intake", time.Now())
	return m.inner.GetIntake(ctx, userID)
}

func (m *metricsStore) UpsertIntake(ctx context.Context, userID string, update store.IntakeUpdate) (*model.Intake, error) {
	defer observe("upsert_intake", time.Now())
	return m.inner.UpsertIntake(ctx, userID, update)
}

func (m *metricsStore) GetFacts(ctx context.Context, userID string) (model.Facts, error) {
	defer observe("get_facts", time.Now())
	return m.inner.GetFacts(ctx, userID)
}

func (m *metricsStore) ReplaceFacts(ctx context.Context, userID string, facts model.Facts) error {
	defer observe("replace_facts", time.Now())
	return m.inner.ReplaceFacts(ctx, userID, facts)
}

func (m *metricsStore) MergeFacts(ctx context.Context, userID string, patch model.Facts) (model.Facts, error) {
	defer observe("merge_facts", time.Now())
	return m.inner.MergeFacts(ctx, userID, patch)
}

func (m *metricsStore) CreateJournal(ctx context.Context, userID string, content string, tags []string) (*model.Journal, error) {
	defer observe("create_journal", time.Now())
	return m.inner.CreateJournal(ctx, userID, content, tags)
}

func (m *metricsStore) ListJournals(ctx context.Context, userID string, limit int) ([]model.Journal, error) {
	defer observe("list_journals", time.Now())
	return m.inner.ListJournals(ctx, userID, limit)
}

func (m *metricsStore) UpdateJournal(ctx context.Context, userID string, journalID string, update store.JournalUpdate) (*model.Journal, error) {
	defer observe("update_journal", time.Now())
	return m.inner.UpdateJournal(ctx, userID, journalID, update)
}

func (m *metricsStore) DeleteJournal(ctx context.Context, userID string, journalID string) error {
	defer observe("delete_journal", time.Now())
	return m.inner.DeleteJournal(ctx, userID, journalID)
}

func (m *metricsStore) SearchJournals(ctx context.Context, userID string, query store.JournalQuery) ([]model.Journal, error) {
	defer observe("search_journals", time.Now())
	return m.inner.SearchJournals(ctx, userID, query)
}

func (m *metricsStore) LogMetric(ctx context.Context, userID string, input store.MetricInput) (*model.MetricEntry, error) {
	defer observe("log_metric", time.Now())
	return m.inner.LogMetric(ctx, userID, input)
}

func (m *metricsStore) ListMetrics(ctx context.Context, userID string, query store.MetricQuery) ([]model.MetricEntry, error) {
	defer observe("list_metrics", time.Now())
	return m.inner.ListMetrics(ctx, userID, query)
}

func (m *metricsStore) CreateGoal(ctx context.Context, userID string, title string) (*model.Goal, error) {
	defer observe("create_goal", time.Now())
	return m.inner.CreateGoal(ctx, userID, title)
}

func (m *metricsStore) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	defer observe("list_goals", time.Now())
	return m.inner.ListGoals(ctx, userID)
}

func (m *metricsStore) UpdateGoal(ctx context.Context, userID string, goalID string, update store.GoalUpdate) (*model.Goal, error) {
	defer observe("update_goal", time.Now())
	return m.inner.UpdateGoal(ctx, userID, goalID, update)
}

func (m *metricsStore) DeleteGoal(ctx context.Context, userID string, goalID string) error {
	defer observe("delete_goal", time.Now())
	return m.inner.DeleteGoal(ctx, userID, goalID)
}

func (m *metricsStore) Ping(ctx context.Context) error {
	return m.inner.Ping(ctx)
}

var _ store.RecordStore = (*metricsStore)(nil)
