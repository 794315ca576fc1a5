package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testOpportunity(url string, score int) model.Opportunity {
	mqa := 64
	return model.Opportunity{
		UserID:     DefaultUserID,
		URL:        url,
		SourceType: model.SourcePageScan,
		Analysis: model.AnalysisResult{
			Summary:      "Lending protocol",
			CategoryTags: []string{"DeFi"},
			Stage:        "seed",
			MQAScore:     &mqa,
		},
		LeadScore:      score,
		SignalStrength: 10,
		LeadReasons:    []string{"Source: PAGE_SCAN (+10)"},
		Status:         model.StatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func testProject(t *testing.T, st *SQLiteStore, name string) *model.Project {
	t.Helper()
	p := &model.Project{Name: name, URL: "https://" + name + ".xyz", IcpScore: 50}
	require.NoError(t, st.CreateProject(context.Background(), p))
	return p
}

// --- Opportunities ---

func TestSQLite_Opportunities_SaveAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opps := []model.Opportunity{testOpportunity("https://alpha.fi", 40)}
	n, err := st.SaveOpportunities(ctx, opps)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NotEmpty(t, opps[0].ID)

	got, err := st.GetOpportunity(ctx, opps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "https://alpha.fi", got.URL)
	assert.Equal(t, model.SourcePageScan, got.SourceType)
	assert.Equal(t, model.StatusNew, got.Status)
	assert.Equal(t, "Lending protocol", got.Analysis.Summary)
	require.NotNil(t, got.Analysis.MQAScore)
	assert.Equal(t, 64, *got.Analysis.MQAScore)
	assert.Equal(t, []string{"Source: PAGE_SCAN (+10)"}, got.LeadReasons)
	assert.Equal(t, []string{}, got.PlaybookMatches)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Nil(t, got.NextReviewAt)
}

func TestSQLite_Opportunities_DuplicateURLSkipped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.SaveOpportunities(ctx, []model.Opportunity{testOpportunity("https://alpha.fi", 40)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = st.SaveOpportunities(ctx, []model.Opportunity{
		testOpportunity("https://alpha.fi", 90),
		testOpportunity("https://beta.xyz", 30),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tracked, err := st.TrackedURLs(ctx, DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"https://alpha.fi": true, "https://beta.xyz": true}, tracked)
}

func TestSQLite_Opportunities_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetOpportunity(context.Background(), "nope")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_Opportunities_ListFilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	text := testOpportunity("https://gamma.io", 70)
	text.SourceType = model.SourceTextScan
	_, err := st.SaveOpportunities(ctx, []model.Opportunity{
		testOpportunity("https://alpha.fi", 40),
		testOpportunity("https://beta.xyz", 90),
		text,
	})
	require.NoError(t, err)

	all, err := st.ListOpportunities(ctx, OpportunityFilter{UserID: DefaultUserID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{90, 70, 40}, []int{all[0].LeadScore, all[1].LeadScore, all[2].LeadScore})

	pages, err := st.ListOpportunities(ctx, OpportunityFilter{SourceType: model.SourcePageScan, MinScore: 50})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "https://beta.xyz", pages[0].URL)

	limited, err := st.ListOpportunities(ctx, OpportunityFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 70, limited[0].LeadScore)

	types, err := st.SourceTypes(ctx, DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, []model.SourceType{model.SourcePageScan, model.SourceTextScan}, types)
}

func TestSQLite_Opportunities_StatusTransitions(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opps := []model.Opportunity{testOpportunity("https://alpha.fi", 40)}
	_, err := st.SaveOpportunities(ctx, opps)
	require.NoError(t, err)

	opp, err := st.GetOpportunity(ctx, opps[0].ID)
	require.NoError(t, err)
	require.NoError(t, opp.Snooze(now.Add(48*time.Hour), now))
	require.NoError(t, st.UpdateOpportunityStatus(ctx, opp, model.StatusNew))

	got, err := st.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSnoozed, got.Status)
	require.NotNil(t, got.NextReviewAt)
	assert.True(t, now.Add(48*time.Hour).Equal(*got.NextReviewAt))

	// stale writer expecting NEW loses
	stale := *got
	stale.Status = model.StatusDiscarded
	err = st.UpdateOpportunityStatus(ctx, &stale, model.StatusNew)
	assert.True(t, eris.Is(err, ErrConflict))

	counts, err := st.CountByStatus(ctx, DefaultUserID)
	require.NoError(t, err)
	assert.Equal(t, map[model.OpportunityStatus]int{model.StatusSnoozed: 1}, counts)
}

func TestSQLite_Opportunities_UpdateMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	opp := testOpportunity("https://alpha.fi", 40)
	opp.ID = "missing"
	err := st.UpdateOpportunityStatus(context.Background(), &opp, model.StatusNew)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_ReactivateDue(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	due := testOpportunity("https://due.fi", 40)
	due.Status = model.StatusSnoozed
	past := now.Add(-time.Hour)
	due.NextReviewAt = &past

	later := testOpportunity("https://later.fi", 40)
	later.Status = model.StatusSnoozed
	future := now.Add(time.Hour)
	later.NextReviewAt = &future

	opps := []model.Opportunity{due, later, testOpportunity("https://fresh.fi", 40)}
	_, err := st.SaveOpportunities(ctx, opps)
	require.NoError(t, err)

	n, err := st.ReactivateDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetOpportunity(ctx, opps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, got.Status)
	assert.Nil(t, got.NextReviewAt)

	got, err = st.GetOpportunity(ctx, opps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSnoozed, got.Status)
}

func TestSQLite_ConvertOpportunity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opps := []model.Opportunity{testOpportunity("https://alpha.fi", 40)}
	_, err := st.SaveOpportunities(ctx, opps)
	require.NoError(t, err)

	project, err := st.ConvertOpportunity(ctx, opps[0].ID, model.Project{Name: "Alpha", IcpScore: 40}, now)
	require.NoError(t, err)
	assert.Equal(t, "https://alpha.fi", project.URL)
	assert.Equal(t, opps[0].ID, project.OpportunityID)

	got, err := st.GetOpportunity(ctx, opps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConverted, got.Status)

	stored, err := st.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", stored.Name)
	assert.Equal(t, 40, stored.IcpScore)

	// terminal: converting twice fails and creates nothing
	_, err = st.ConvertOpportunity(ctx, opps[0].ID, model.Project{Name: "Alpha again"}, now)
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))

	projects, err := st.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

// --- Playbooks and ICP ---

func TestSQLite_Playbooks(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	pb := &model.Playbook{Name: "DeFi infra", Boosts: []string{"oracle", "bridge"}}
	require.NoError(t, st.SavePlaybook(ctx, pb))
	require.NotEmpty(t, pb.ID)
	require.NoError(t, st.SavePlaybook(ctx, &model.Playbook{Name: "Avoid memes", Penalties: []string{"meme"}}))

	list, err := st.ListPlaybooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Avoid memes", list[0].Name)
	assert.Equal(t, []string{}, list[0].Boosts)
	assert.Equal(t, []string{"meme"}, list[0].Penalties)

	pb.Boosts = []string{"oracle"}
	require.NoError(t, st.SavePlaybook(ctx, pb))
	list, err = st.ListPlaybooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"oracle"}, list[1].Boosts)

	require.NoError(t, st.DeletePlaybook(ctx, "Avoid memes"))
	err = st.DeletePlaybook(ctx, "Avoid memes")
	assert.True(t, eris.Is(err, ErrNotFound))

	assert.Error(t, st.SavePlaybook(ctx, &model.Playbook{Name: " "}))
}

func TestSQLite_ICP(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	icp, err := st.GetICP(ctx, DefaultUserID)
	require.NoError(t, err)
	assert.Nil(t, icp)

	require.NoError(t, st.SetICP(ctx, DefaultUserID, model.IcpProfile{Industries: []string{"defi"}}))
	require.NoError(t, st.SetICP(ctx, DefaultUserID, model.IcpProfile{Industries: []string{"defi", "infra"}, PainPoints: []string{"liquidity"}}))

	icp, err = st.GetICP(ctx, DefaultUserID)
	require.NoError(t, err)
	require.NotNil(t, icp)
	assert.Equal(t, []string{"defi", "infra"}, icp.Industries)
	assert.Equal(t, []string{"liquidity"}, icp.PainPoints)
}

// --- Projects, contacts, sequences ---

func TestSQLite_Contacts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	p := testProject(t, st, "alpha")

	require.NoError(t, st.CreateContact(ctx, &model.Contact{ProjectID: p.ID, Name: "Zoe", Role: "CEO"}))
	require.NoError(t, st.CreateContact(ctx, &model.Contact{ProjectID: p.ID, Name: "Ari", Handle: "@ari"}))

	contacts, err := st.ListContacts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Ari", contacts[0].Name)

	err = st.CreateContact(ctx, &model.Contact{ProjectID: "ghost", Name: "Nobody"})
	assert.Error(t, err, "foreign key to projects is enforced")
}

func TestSQLite_SequencesAndSteps(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	p := testProject(t, st, "alpha")
	contact := &model.Contact{ProjectID: p.ID, Name: "Zoe"}
	require.NoError(t, st.CreateContact(ctx, contact))

	day1 := now.Add(24 * time.Hour)
	seq := &model.Sequence{ProjectID: p.ID, ContactID: contact.ID, Name: "Intro"}
	steps := []model.SequenceStep{
		{StepNumber: 1, Channel: model.ChannelEmail, Content: "hi", ScheduledAt: &now},
		{StepNumber: 2, Channel: model.ChannelLinkedIn, Content: "follow up", ScheduledAt: &day1},
		{StepNumber: 3, Channel: model.ChannelTwitter, Content: "ping"},
	}
	require.NoError(t, st.CreateSequence(ctx, seq, steps))
	require.NotEmpty(t, seq.ID)

	seqs, err := st.ListSequences(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, contact.ID, seqs[0].ContactID)

	pending, err := st.ListSteps(ctx, StepFilter{ProjectID: p.ID, Status: model.StepPending})
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, p.ID, pending[0].ProjectID)
	assert.Equal(t, seq.ID, pending[0].SequenceID)
	require.NotNil(t, pending[1].ScheduledAt)
	assert.True(t, day1.Equal(*pending[1].ScheduledAt))
	assert.Nil(t, pending[2].ScheduledAt)

	sent, err := st.CompleteStep(ctx, steps[0].ID, model.StepSent, now)
	require.NoError(t, err)
	assert.Equal(t, model.StepSent, sent.Status)
	require.NotNil(t, sent.CompletedAt)

	// terminal
	_, err = st.CompleteStep(ctx, steps[0].ID, model.StepSkipped, now)
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))

	_, err = st.CompleteStep(ctx, steps[1].ID, model.StepPending, now)
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))

	_, err = st.CompleteStep(ctx, "missing", model.StepSent, now)
	assert.True(t, eris.Is(err, ErrNotFound))

	pending, err = st.ListSteps(ctx, StepFilter{Status: model.StepPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSQLite_SequenceWithoutContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	p := testProject(t, st, "beta")

	seq := &model.Sequence{ProjectID: p.ID, Name: "Cold"}
	require.NoError(t, st.CreateSequence(ctx, seq, []model.SequenceStep{{StepNumber: 1, Channel: model.ChannelEmail}}))

	seqs, err := st.ListSequences(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Empty(t, seqs[0].ContactID)
}

func TestSQLite_CreateSequence_RollsBackOnDuplicateStep(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	p := testProject(t, st, "gamma")

	err := st.CreateSequence(ctx, &model.Sequence{ProjectID: p.ID, Name: "Broken"}, []model.SequenceStep{
		{StepNumber: 1, Channel: model.ChannelEmail},
		{StepNumber: 1, Channel: model.ChannelEmail},
	})
	require.Error(t, err)

	seqs, err := st.ListSequences(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, seqs)
}
