// Package teststore holds the behaviour tests every record store plugin must pass.
package teststore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chirino/gina-service/internal/model"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated store.
type Factory func(t *testing.T) (registrystore.RecordStore, context.Context)

// Run executes the shared record store tests.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("OIDCUsers", func(t *testing.T) { testOIDCUsers(t, newStore) })
	t.Run("History", func(t *testing.T) { testHistory(t, newStore) })
	t.Run("Intake", func(t *testing.T) { testIntake(t, newStore) })
	t.Run("Facts", func(t *testing.T) { testFacts(t, newStore) })
	t.Run("ConcurrentFactMerges", func(t *testing.T) { testConcurrentFactMerges(t, newStore) })
	t.Run("Journals", func(t *testing.T) { testJournals(t, newStore) })
	t.Run("JournalSearch", func(t *testing.T) { testJournalSearch(t, newStore) })
	t.Run("MetricsLog", func(t *testing.T) { testMetricsLog(t, newStore) })
	t.Run("Goals", func(t *testing.T) { testGoals(t, newStore) })
	t.Run("DeleteUserCascades", func(t *testing.T) { testDeleteUserCascades(t, newStore) })
}

// CreateUser inserts a user with a unique email.
func CreateUser(t *testing.T, ctx context.Context, store registrystore.RecordStore, email string) *model.User {
	t.Helper()
	user, err := store.CreateUser(ctx, email, "hash", nil)
	require.NoError(t, err)
	return user
}

func testUsers(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)

	name := "Alice"
	user, err := store.CreateUser(ctx, " Alice@Example.com ", "hash-1", &name)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.DisplayName())

	_, err = store.CreateUser(ctx, "ALICE@example.com", "hash-2", nil)
	var conflict *registrystore.ConflictError
	require.ErrorAs(t, err, &conflict)

	byEmail, err := store.GetUserByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hash-1", byEmail.PasswordHash)

	updated, err := store.UpdateUsername(ctx, user.ID.String(), "Ally")
	require.NoError(t, err)
	assert.Equal(t, "Ally", *updated.Username)

	require.NoError(t, store.UpdatePasswordHash(ctx, user.ID.String(), "hash-3"))
	got, err := store.GetUser(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "hash-3", got.PasswordHash)

	var notFound *registrystore.NotFoundError
	_, err = store.GetUser(ctx, "00000000-0000-4000-8000-000000000000")
	require.ErrorAs(t, err, &notFound)
	_, err = store.GetUser(ctx, "not-a-uuid")
	require.ErrorAs(t, err, &notFound)
	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorAs(t, err, &notFound)
}

func testOIDCUsers(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)

	first, err := store.FindOrCreateOIDCUser(ctx, "sub-1", "Oidc@Example.com")
	require.NoError(t, err)
	again, err := store.FindOrCreateOIDCUser(ctx, "sub-1", "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "oidc@example.com", again.Email)

	local := CreateUser(t, ctx, store, "local@example.com")
	linked, err := store.FindOrCreateOIDCUser(ctx, "sub-2", "local@example.com")
	require.NoError(t, err)
	assert.Equal(t, local.ID, linked.ID)

	noEmail, err := store.FindOrCreateOIDCUser(ctx, "sub-3", "")
	require.NoError(t, err)
	assert.Equal(t, "oidc:sub-3", noEmail.Email)
}

func testHistory(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "history@example.com").ID.String()

	h, err := store.GetLatestHistory(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, h)

	turns := []model.Turn{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "Hi, I'm Gina."},
	}
	require.NoError(t, store.ReplaceHistory(ctx, uid, turns))
	h, err = store.GetLatestHistory(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, turns, h.Turns)
	assert.False(t, h.UpdatedAt.IsZero())

	replacement := append(turns, model.Turn{Role: model.RoleUser, Content: "again"})
	require.NoError(t, store.ReplaceHistory(ctx, uid, replacement))
	h, err = store.GetLatestHistory(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, h.Turns, 3)

	require.NoError(t, store.DeleteHistory(ctx, uid))
	h, err = store.GetLatestHistory(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func testIntake(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "intake@example.com").ID.String()

	in, err := store.GetIntake(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, in)

	name, age := "Alice", 34
	in, err = store.UpsertIntake(ctx, uid, registrystore.IntakeUpdate{FullName: &name, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Alice", *in.FullName)

	issues := "insomnia"
	in, err = store.UpsertIntake(ctx, uid, registrystore.IntakeUpdate{PresentingIssues: &issues})
	require.NoError(t, err)
	assert.Equal(t, "insomnia", *in.PresentingIssues)

	got, err := store.GetIntake(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", *got.FullName)
	assert.Equal(t, 34, *got.Age)
	assert.Equal(t, "insomnia", *got.PresentingIssues)
	assert.Nil(t, got.Symptoms)
}

// Concurrent merges of different keys must all survive.
func testConcurrentFactMerges(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "merges@example.com").ID.String()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.MergeFacts(ctx, uid, model.Facts{fmt.Sprintf("k%d", i): i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	facts, err := store.GetFacts(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, facts, writers)
}

func testFacts(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "facts@example.com").ID.String()

	facts, err := store.GetFacts(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, model.Facts{}, facts)

	_, err = store.MergeFacts(ctx, uid, model.Facts{"a": 1})
	require.NoError(t, err)
	merged, err := store.MergeFacts(ctx, uid, model.Facts{"b": 2})
	require.NoError(t, err)
	assert.Len(t, merged, 2)

	facts, err = store.GetFacts(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, model.Facts{"a": float64(1), "b": float64(2)}, facts)

	_, err = store.MergeFacts(ctx, uid, model.Facts{"a": "one"})
	require.NoError(t, err)
	facts, err = store.GetFacts(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, model.Facts{"a": "one", "b": float64(2)}, facts)

	require.NoError(t, store.ReplaceFacts(ctx, uid, model.Facts{"only": true}))
	facts, err = store.GetFacts(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, model.Facts{"only": true}, facts)
}

func testJournals(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "journal@example.com").ID.String()
	other := CreateUser(t, ctx, store, "other@example.com").ID.String()

	_, err := store.CreateJournal(ctx, uid, "   ", nil)
	var validation *registrystore.ValidationError
	require.ErrorAs(t, err, &validation)

	first, err := store.CreateJournal(ctx, uid, "First entry", []string{"calm", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{"calm"}, first.Tags)
	time.Sleep(5 * time.Millisecond)
	second, err := store.CreateJournal(ctx, uid, "Second entry", nil)
	require.NoError(t, err)

	list, err := store.ListJournals(ctx, uid, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "First entry", list[1].Content)
	assert.Equal(t, []string{}, list[0].Tags)

	list, err = store.ListJournals(ctx, uid, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	content := "First entry, edited"
	updated, err := store.UpdateJournal(ctx, uid, first.ID.String(), registrystore.JournalUpdate{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, []string{"calm"}, updated.Tags)

	var notFound *registrystore.NotFoundError
	_, err = store.UpdateJournal(ctx, other, first.ID.String(), registrystore.JournalUpdate{Content: &content})
	require.ErrorAs(t, err, &notFound)
	require.ErrorAs(t, store.DeleteJournal(ctx, other, first.ID.String()), &notFound)
	require.ErrorAs(t, store.DeleteJournal(ctx, uid, "bogus"), &notFound)

	require.NoError(t, store.DeleteJournal(ctx, uid, first.ID.String()))
	list, err = store.ListJournals(ctx, uid, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testJournalSearch(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "search@example.com").ID.String()

	_, err := store.CreateJournal(ctx, uid, "Went for a long Walk by the sea", []string{"outdoors", "self_care"})
	require.NoError(t, err)
	_, err = store.CreateJournal(ctx, uid, "Stressful day at work", []string{"work"})
	require.NoError(t, err)
	_, err = store.CreateJournal(ctx, uid, "Short walk after lunch", []string{"work"})
	require.NoError(t, err)

	search := func(q registrystore.JournalQuery) []string {
		t.Helper()
		rows, err := store.SearchJournals(ctx, uid, q)
		require.NoError(t, err)
		var out []string
		for _, r := range rows {
			out = append(out, r.Content)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Went for a long Walk by the sea", "Short walk after lunch"}, search(registrystore.JournalQuery{Text: "WALK"}))
	assert.ElementsMatch(t, []string{"Stressful day at work", "Short walk after lunch"}, search(registrystore.JournalQuery{Tag: "work"}))
	assert.Equal(t, []string{"Short walk after lunch"}, search(registrystore.JournalQuery{Text: "walk", Tag: "work"}))
	assert.Equal(t, []string{"Went for a long Walk by the sea"}, search(registrystore.JournalQuery{Tag: "self_care"}))
	assert.Len(t, search(registrystore.JournalQuery{Limit: 1}), 1)

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	assert.Empty(t, search(registrystore.JournalQuery{From: &future}))
	assert.Empty(t, search(registrystore.JournalQuery{To: &past}))
	assert.Len(t, search(registrystore.JournalQuery{From: &past, To: &future}), 3)
}

func testMetricsLog(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "metrics@example.com").ID.String()

	_, err := store.LogMetric(ctx, uid, registrystore.MetricInput{Type: "energy"})
	var validation *registrystore.ValidationError
	require.ErrorAs(t, err, &validation)

	value := 72.0
	entry, err := store.LogMetric(ctx, uid, registrystore.MetricInput{Type: model.MetricWellbeing, Value: &value})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, entry.Extras)

	label := "calm"
	_, err = store.LogMetric(ctx, uid, registrystore.MetricInput{
		Type:   model.MetricMood,
		Label:  &label,
		Extras: map[string]interface{}{"triggers": []interface{}{"sleep"}},
	})
	require.NoError(t, err)

	all, err := store.ListMetrics(ctx, uid, registrystore.MetricQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mood := model.MetricMood
	moods, err := store.ListMetrics(ctx, uid, registrystore.MetricQuery{Type: &mood})
	require.NoError(t, err)
	require.Len(t, moods, 1)
	assert.Equal(t, "calm", *moods[0].Label)
	assert.Equal(t, []interface{}{"sleep"}, moods[0].Extras["triggers"])
}

func testGoals(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	uid := CreateUser(t, ctx, store, "goals@example.com").ID.String()

	_, err := store.CreateGoal(ctx, uid, " ")
	var validation *registrystore.ValidationError
	require.ErrorAs(t, err, &validation)

	goal, err := store.CreateGoal(ctx, uid, "Walk daily")
	require.NoError(t, err)
	assert.Equal(t, model.GoalActive, goal.Status)
	assert.Zero(t, goal.StreakCount)

	done := model.GoalDone
	streak := 3
	when := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	updated, err := store.UpdateGoal(ctx, uid, goal.ID.String(), registrystore.GoalUpdate{Status: &done, StreakCount: &streak, LastDone: &when})
	require.NoError(t, err)
	assert.Equal(t, "Walk daily", updated.Title)
	assert.Equal(t, model.GoalDone, updated.Status)
	assert.Equal(t, 3, updated.StreakCount)

	bad := model.GoalStatus("archived")
	_, err = store.UpdateGoal(ctx, uid, goal.ID.String(), registrystore.GoalUpdate{Status: &bad})
	require.ErrorAs(t, err, &validation)

	goals, err := store.ListGoals(ctx, uid)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	require.NotNil(t, goals[0].LastDone)
	assert.True(t, when.Equal(*goals[0].LastDone))

	require.NoError(t, store.DeleteGoal(ctx, uid, goal.ID.String()))
	var notFound *registrystore.NotFoundError
	require.ErrorAs(t, store.DeleteGoal(ctx, uid, goal.ID.String()), &notFound)
}

func testDeleteUserCascades(t *testing.T, newStore Factory) {
	store, ctx := newStore(t)
	user := CreateUser(t, ctx, store, "gone@example.com")
	uid := user.ID.String()

	require.NoError(t, store.ReplaceHistory(ctx, uid, []model.Turn{{Role: model.RoleUser, Content: "hi"}}))
	_, err := store.MergeFacts(ctx, uid, model.Facts{"a": 1})
	require.NoError(t, err)
	name := "Gone"
	_, err = store.UpsertIntake(ctx, uid, registrystore.IntakeUpdate{FullName: &name})
	require.NoError(t, err)
	_, err = store.CreateJournal(ctx, uid, "entry", nil)
	require.NoError(t, err)
	_, err = store.CreateGoal(ctx, uid, "goal")
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, uid))

	var notFound *registrystore.NotFoundError
	_, err = store.GetUser(ctx, uid)
	require.True(t, errors.As(err, &notFound))

	h, err := store.GetLatestHistory(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, h)
	facts, err := store.GetFacts(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, facts)
	in, err := store.GetIntake(ctx, uid)
	require.NoError(t, err)
	assert.Nil(t, in)
	journals, err := store.ListJournals(ctx, uid, 0)
	require.NoError(t, err)
	assert.Empty(t, journals)
	goals, err := store.ListGoals(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, goals)

	// The email can be registered again.
	CreateUser(t, ctx, store, "gone@example.com")
}
