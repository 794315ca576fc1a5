package workflow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/analysis"
	"github.com/ppiankov/leadradar/internal/model"
	"github.com/ppiankov/leadradar/internal/pipeline"
	"github.com/ppiankov/leadradar/internal/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func projectServer(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<html><head><title>%s</title></head><body><p>%s ships a lending market.</p></body></html>", name, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.RespectRobots = false
	cfg.Cache.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 0

	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := analysis.NewService(analysis.Capabilities{}, nil, analysis.Options{})
	p := pipeline.NewPipeline(cfg, pipeline.WithAnalyzer(svc), pipeline.WithClock(clock.Now))

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leadradar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return New(st, p, svc, WithClock(clock.Now)), clock
}

func TestScanText_SavesAndSkipsTracked(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	alpha := projectServer(t, "Alpha")
	beta := projectServer(t, "Beta")
	text := fmt.Sprintf("New launches: %s and %s", alpha.URL, beta.URL)

	first, err := s.ScanText(ctx, text)
	require.NoError(t, err)
	assert.Len(t, first.Opportunities, 2)
	assert.Equal(t, 2, first.Saved)

	second, err := s.ScanText(ctx, text)
	require.NoError(t, err)
	assert.Empty(t, second.Opportunities)
	assert.Equal(t, 0, second.Saved)

	board, err := s.Board(ctx, store.OpportunityFilter{})
	require.NoError(t, err)
	assert.Len(t, board.Opportunities, 2)
	assert.Equal(t, 2, board.StatusCounts[model.StatusNew])
	assert.Equal(t, []model.SourceType{model.SourceTextScan}, board.SourceTypes)
}

func TestScanText_UsesStoredPlaybooks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	srv := projectServer(t, "Gamma")

	require.NoError(t, s.SavePlaybook(ctx, &model.Playbook{Name: "rollups", Boosts: []string{"zkrollup"}}))

	res, err := s.ScanText(ctx, "zkrollup team to watch: "+srv.URL)
	require.NoError(t, err)
	require.Len(t, res.Opportunities, 1)
	assert.Equal(t, []string{"rollups"}, res.Opportunities[0].PlaybookMatches)
}

func TestOpportunityTransitions(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestService(t)
	alpha := projectServer(t, "Alpha")
	beta := projectServer(t, "Beta")

	res, err := s.ScanText(ctx, alpha.URL+" "+beta.URL)
	require.NoError(t, err)
	require.Len(t, res.Opportunities, 2)
	first, second := res.Opportunities[0], res.Opportunities[1]

	project, err := s.Convert(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.URL, project.URL)
	assert.Equal(t, first.ID, project.OpportunityID)
	assert.Equal(t, first.LeadScore, project.IcpScore)
	assert.Equal(t, analysis.ProjectName(first.URL), project.Name)

	_, err = s.Convert(ctx, first.ID)
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))
	_, err = s.Discard(ctx, first.ID)
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))

	_, err = s.Snooze(ctx, second.ID, clock.now.Add(-time.Hour))
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))

	snoozed, err := s.Snooze(ctx, second.ID, clock.now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.StatusSnoozed, snoozed.Status)

	board, err := s.Board(ctx, store.OpportunityFilter{Status: model.StatusNew})
	require.NoError(t, err)
	assert.Empty(t, board.Opportunities)

	clock.now = clock.now.Add(48 * time.Hour)
	board, err = s.Board(ctx, store.OpportunityFilter{Status: model.StatusNew})
	require.NoError(t, err)
	require.Len(t, board.Opportunities, 1)
	assert.Equal(t, second.ID, board.Opportunities[0].ID)
	assert.Equal(t, 1, board.StatusCounts[model.StatusConverted])

	_, err = s.Convert(ctx, "missing")
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestSequenceAndToday(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestService(t)
	srv := projectServer(t, "Delta")

	res, err := s.ScanText(ctx, srv.URL)
	require.NoError(t, err)
	require.Len(t, res.Opportunities, 1)
	project, err := s.Convert(ctx, res.Opportunities[0].ID)
	require.NoError(t, err)

	seq, steps, err := s.BuildSequence(ctx, SequenceRequest{ProjectID: project.ID, Touches: 3})
	require.NoError(t, err)
	assert.Equal(t, project.ID, seq.ProjectID)
	assert.Equal(t, project.Name+" outreach", seq.Name)
	require.Len(t, steps, 3)
	require.NotNil(t, steps[0].ScheduledAt)
	assert.True(t, steps[0].ScheduledAt.Equal(clock.now))
	assert.True(t, steps[1].ScheduledAt.After(clock.now))

	items, err := s.Today(ctx, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].NextStep)
	assert.Equal(t, steps[0].ID, items[0].NextStep.ID)

	sent, err := s.MarkSent(ctx, steps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StepSent, sent.Status)

	_, err = s.Skip(ctx, steps[0].ID)
	assert.True(t, eris.Is(err, model.ErrInvalidTransition))

	// step 2 is days out, so nothing is due today
	items, err = s.Today(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = s.Today(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, steps[1].ID, items[0].NextStep.ID)

	_, _, err = s.BuildSequence(ctx, SequenceRequest{ProjectID: "missing"})
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestDrafting(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	srv := projectServer(t, "Echo")

	res, err := s.ScanText(ctx, srv.URL)
	require.NoError(t, err)
	require.Len(t, res.Opportunities, 1)
	id := res.Opportunities[0].ID

	explanation, err := s.Explain(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, explanation)

	msg, err := s.Outreach(ctx, id, model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelEmail, msg.Channel)
	assert.NotEmpty(t, msg.Subject)
	assert.NotEmpty(t, msg.Body)

	plan, err := s.AccountPlan(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Personas)

	_, err = s.Explain(ctx, "missing")
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestICP(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	icp, err := s.ICP(ctx)
	require.NoError(t, err)
	assert.Nil(t, icp)

	require.NoError(t, s.SetICP(ctx, model.IcpProfile{Industries: []string{"DeFi"}}))
	icp, err = s.ICP(ctx)
	require.NoError(t, err)
	require.NotNil(t, icp)
	assert.Equal(t, []string{"DeFi"}, icp.Industries)
}

func TestContacts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	srv := projectServer(t, "Foxtrot")

	res, err := s.ScanText(ctx, srv.URL)
	require.NoError(t, err)
	project, err := s.Convert(ctx, res.Opportunities[0].ID)
	require.NoError(t, err)

	c := &model.Contact{ProjectID: project.ID, Name: "Ana", Role: "Head of BD", Handle: "@ana"}
	require.NoError(t, s.AddContact(ctx, c))
	assert.NotEmpty(t, c.ID)

	contacts, err := s.Contacts(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ana", contacts[0].Name)

	seq, _, err := s.BuildSequence(ctx, SequenceRequest{ProjectID: project.ID, ContactID: c.ID, Name: "Ana intro", Touches: 1})
	require.NoError(t, err)
	assert.Equal(t, c.ID, seq.ContactID)

	err = s.AddContact(ctx, &model.Contact{ProjectID: "missing", Name: "Bo"})
	assert.True(t, eris.Is(err, store.ErrNotFound))
}
