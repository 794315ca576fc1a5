package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/leadradar/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// Foreign keys are enabled on every pooled connection.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL,
	source_type      TEXT NOT NULL,
	analysis         TEXT NOT NULL,
	lead_score       INTEGER NOT NULL DEFAULT 0,
	signal_strength  INTEGER NOT NULL DEFAULT 0,
	lead_reasons     TEXT NOT NULL DEFAULT '[]',
	playbook_matches TEXT NOT NULL DEFAULT '[]',
	status           TEXT NOT NULL DEFAULT 'NEW',
	next_review_at   DATETIME,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	UNIQUE (user_id, url)
);

CREATE TABLE IF NOT EXISTS playbooks (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	boosts     TEXT NOT NULL DEFAULT '[]',
	penalties  TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS icp_profiles (
	user_id    TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	url            TEXT NOT NULL DEFAULT '',
	opportunity_id TEXT REFERENCES opportunities(id),
	icp_score      INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	name       TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT '',
	handle     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sequences (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	contact_id TEXT REFERENCES contacts(id),
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sequence_steps (
	id           TEXT PRIMARY KEY,
	sequence_id  TEXT NOT NULL REFERENCES sequences(id),
	project_id   TEXT NOT NULL REFERENCES projects(id),
	step_number  INTEGER NOT NULL,
	channel      TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'PENDING',
	scheduled_at DATETIME,
	completed_at DATETIME,
	UNIQUE (sequence_id, step_number)
);

CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(user_id, status);
CREATE INDEX IF NOT EXISTS idx_contacts_project_id ON contacts(project_id);
CREATE INDEX IF NOT EXISTS idx_sequences_project_id ON sequences(project_id);
CREATE INDEX IF NOT EXISTS idx_sequence_steps_project_status ON sequence_steps(project_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Opportunities ---

// SaveOpportunities inserts new opportunities and returns how many were stored.
// A URL the user already tracks is skipped.
func (s *SQLiteStore) SaveOpportunities(ctx context.Context, opps []model.Opportunity) (int, error) {
	if len(opps) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save opportunities")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO opportunities (id, user_id, url, source_type, analysis, lead_score, signal_strength,
			lead_reasons, playbook_matches, status, next_review_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, url) DO NOTHING`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert opportunity")
	}
	defer stmt.Close() //nolint:errcheck

	inserted := 0
	for i := range opps {
		o := &opps[i]
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		if o.Status == "" {
			o.Status = model.StatusNew
		}

		analysisJSON, err := marshalJSON(o.Analysis)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal analysis")
		}
		reasonsJSON, err := marshalJSON(nonNil(o.LeadReasons))
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal lead reasons")
		}
		matchesJSON, err := marshalJSON(nonNil(o.PlaybookMatches))
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal playbook matches")
		}

		res, err := stmt.ExecContext(ctx,
			o.ID, o.UserID, o.URL, string(o.SourceType), analysisJSON, o.LeadScore, o.SignalStrength,
			reasonsJSON, matchesJSON, string(o.Status), nullTime(o.NextReviewAt), o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert opportunity %s", o.URL)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit save opportunities")
	}
	return inserted, nil
}

const opportunityColumns = `id, user_id, url, source_type, analysis, lead_score, signal_strength,
	lead_reasons, playbook_matches, status, next_review_at, created_at, updated_at`

func (s *SQLiteStore) GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = ?`, id,
	)
	return scanOpportunity(row)
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SourceType != "" {
		query += ` AND source_type = ?`
		args = append(args, string(filter.SourceType))
	}
	if filter.MinScore > 0 {
		query += ` AND lead_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY lead_score DESC, created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close() //nolint:errcheck

	opps := []model.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *o)
	}
	return opps, eris.Wrap(rows.Err(), "sqlite: list opportunities iterate")
}

// UpdateOpportunityStatus writes opp's review state, provided the stored status is still from
func (s *SQLiteStore) UpdateOpportunityStatus(ctx context.Context, opp *model.Opportunity, from model.OpportunityStatus) error {
	return updateOpportunityStatus(ctx, s.db, opp, from)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func updateOpportunityStatus(ctx context.Context, db execer, opp *model.Opportunity, from model.OpportunityStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE opportunities SET status = ?, next_review_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(opp.Status), nullTime(opp.NextReviewAt), opp.UpdatedAt.UTC(), opp.ID, string(from),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update opportunity %s", opp.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM opportunities WHERE id = ?`, opp.ID).Scan(&exists)
	if err == sql.ErrNoRows {
		return eris.Wrapf(ErrNotFound, "opportunity %s", opp.ID)
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: check opportunity")
	}
	return eris.Wrapf(ErrConflict, "opportunity %s is no longer %s", opp.ID, from)
}

func (s *SQLiteStore) TrackedURLs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM opportunities WHERE user_id = ?`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: tracked urls")
	}
	defer rows.Close() //nolint:errcheck

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tracked url")
		}
		urls[u] = true
	}
	return urls, eris.Wrap(rows.Err(), "sqlite: tracked urls iterate")
}

func (s *SQLiteStore) CountByStatus(ctx context.Context, userID string) (map[model.OpportunityStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM opportunities WHERE user_id = ? GROUP BY status`, userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[model.OpportunityStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.OpportunityStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) SourceTypes(ctx context.Context, userID string) ([]model.SourceType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source_type FROM opportunities WHERE user_id = ? ORDER BY source_type`, userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: source types")
	}
	defer rows.Close() //nolint:errcheck

	types := []model.SourceType{}
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source type")
		}
		types = append(types, model.SourceType(st))
	}
	return types, eris.Wrap(rows.Err(), "sqlite: source types iterate")
}

// ReactivateDue returns snoozed opportunities whose review time has passed to NEW
func (s *SQLiteStore) ReactivateDue(ctx context.Context, now time.Time) (int, error) {
	snoozed, err := s.ListOpportunities(ctx, OpportunityFilter{Status: model.StatusSnoozed, Limit: 10000})
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range snoozed {
		o := &snoozed[i]
		if !o.Reactivate(now) {
			continue
		}
		if err := s.UpdateOpportunityStatus(ctx, o, model.StatusSnoozed); err != nil {
			if eris.Is(err, ErrConflict) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

// ConvertOpportunity marks the opportunity CONVERTED and creates its project in one transaction
func (s *SQLiteStore) ConvertOpportunity(ctx context.Context, id string, project model.Project, now time.Time) (*model.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin convert")
	}
	defer tx.Rollback() //nolint:errcheck

	opp, err := scanOpportunity(tx.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = ?`, id,
	))
	if err != nil {
		return nil, err
	}

	from := opp.Status
	if err := opp.Convert(now); err != nil {
		return nil, err
	}
	if err := updateOpportunityStatus(ctx, tx, opp, from); err != nil {
		return nil, err
	}

	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	if project.URL == "" {
		project.URL = opp.URL
	}
	project.OpportunityID = opp.ID
	project.CreatedAt = now.UTC()
	project.UpdatedAt = now.UTC()
	if err := insertProject(ctx, tx, &project); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit convert")
	}
	return &project, nil
}

// --- Playbooks ---

// SavePlaybook creates or replaces a playbook by ID
func (s *SQLiteStore) SavePlaybook(ctx context.Context, pb *model.Playbook) error {
	if strings.TrimSpace(pb.Name) == "" {
		return eris.New("sqlite: playbook name is required")
	}
	if pb.ID == "" {
		pb.ID = uuid.New().String()
	}
	boosts, err := marshalJSON(nonNil(pb.Boosts))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal boosts")
	}
	penalties, err := marshalJSON(nonNil(pb.Penalties))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal penalties")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playbooks (id, name, boosts, penalties, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, boosts = excluded.boosts,
			penalties = excluded.penalties, updated_at = excluded.updated_at`,
		pb.ID, pb.Name, boosts, penalties, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save playbook %s", pb.Name)
}

func (s *SQLiteStore) ListPlaybooks(ctx context.Context) ([]model.Playbook, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, boosts, penalties FROM playbooks ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list playbooks")
	}
	defer rows.Close() //nolint:errcheck

	playbooks := []model.Playbook{}
	for rows.Next() {
		var pb model.Playbook
		var boosts, penalties string
		if err := rows.Scan(&pb.ID, &pb.Name, &boosts, &penalties); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan playbook")
		}
		if err := json.Unmarshal([]byte(boosts), &pb.Boosts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal boosts")
		}
		if err := json.Unmarshal([]byte(penalties), &pb.Penalties); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal penalties")
		}
		playbooks = append(playbooks, pb)
	}
	return playbooks, eris.Wrap(rows.Err(), "sqlite: list playbooks iterate")
}

func (s *SQLiteStore) DeletePlaybook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playbooks WHERE id = ? OR name = ?`, id, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete playbook %s", id)
	}
	return checkRowsAffected(res, "playbook", id)
}

// --- ICP profile ---

// GetICP returns the user's profile, or nil when none is set
func (s *SQLiteStore) GetICP(ctx context.Context, userID string) (*model.IcpProfile, error) {
	var profile string
	err := s.db.QueryRowContext(ctx, `SELECT profile FROM icp_profiles WHERE user_id = ?`, userID).Scan(&profile)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get icp")
	}

	var icp model.IcpProfile
	if err := json.Unmarshal([]byte(profile), &icp); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal icp")
	}
	return &icp, nil
}

func (s *SQLiteStore) SetICP(ctx context.Context, userID string, icp model.IcpProfile) error {
	profile, err := marshalJSON(icp)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal icp")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icp_profiles (user_id, profile, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		userID, profile, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: set icp")
}

// --- Projects and contacts ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return insertProject(ctx, s.db, p)
}

func insertProject(ctx context.Context, db execer, p *model.Project) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, name, url, opportunity_id, icp_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.URL, nullString(p.OpportunityID), p.IcpScore, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert project %s", p.Name)
}

const projectColumns = `id, name, url, opportunity_id, icp_score, created_at, updated_at`

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close() //nolint:errcheck

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) CreateContact(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, project_id, name, role, handle) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Name, c.Role, c.Handle,
	)
	return eris.Wrapf(err, "sqlite: insert contact for project %s", c.ProjectID)
}

func (s *SQLiteStore) ListContacts(ctx context.Context, projectID string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, role, handle FROM contacts WHERE project_id = ? ORDER BY name`, projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close() //nolint:errcheck

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Role, &c.Handle); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		contacts = append(contacts, c)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

// --- Sequences ---

// CreateSequence stores a sequence and its steps atomically. Step ProjectID is taken from the sequence.
func (s *SQLiteStore) CreateSequence(ctx context.Context, seq *model.Sequence, steps []model.SequenceStep) error {
	if seq.ID == "" {
		seq.ID = uuid.New().String()
	}
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin create sequence")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sequences (id, project_id, contact_id, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		seq.ID, seq.ProjectID, nullString(seq.ContactID), seq.Name, seq.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert sequence for project %s", seq.ProjectID)
	}

	for i := range steps {
		st := &steps[i]
		if st.ID == "" {
			st.ID = uuid.New().String()
		}
		if st.Status == "" {
			st.Status = model.StepPending
		}
		st.SequenceID = seq.ID
		st.ProjectID = seq.ProjectID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO sequence_steps (id, sequence_id, project_id, step_number, channel, content, status, scheduled_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.SequenceID, st.ProjectID, st.StepNumber, string(st.Channel), st.Content,
			string(st.Status), nullTime(st.ScheduledAt), nullTime(st.CompletedAt),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert step %d", st.StepNumber)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit create sequence")
}

func (s *SQLiteStore) ListSequences(ctx context.Context, projectID string) ([]model.Sequence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, contact_id, name, created_at FROM sequences WHERE project_id = ? ORDER BY created_at`, projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sequences")
	}
	defer rows.Close() //nolint:errcheck

	seqs := []model.Sequence{}
	for rows.Next() {
		var seq model.Sequence
		var contactID sql.NullString
		if err := rows.Scan(&seq.ID, &seq.ProjectID, &contactID, &seq.Name, &seq.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sequence")
		}
		seq.ContactID = contactID.String
		seq.CreatedAt = seq.CreatedAt.UTC()
		seqs = append(seqs, seq)
	}
	return seqs, eris.Wrap(rows.Err(), "sqlite: list sequences iterate")
}

const stepColumns = `id, sequence_id, project_id, step_number, channel, content, status, scheduled_at, completed_at`

func (s *SQLiteStore) GetStep(ctx context.Context, id string) (*model.SequenceStep, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM sequence_steps WHERE id = ?`, id)
	return scanStep(row)
}

func (s *SQLiteStore) ListSteps(ctx context.Context, filter StepFilter) ([]model.SequenceStep, error) {
	query := `SELECT ` + stepColumns + ` FROM sequence_steps WHERE 1=1`
	var args []any

	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.SequenceID != "" {
		query += ` AND sequence_id = ?`
		args = append(args, filter.SequenceID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY project_id, sequence_id, step_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list steps")
	}
	defer rows.Close() //nolint:errcheck

	steps := []model.SequenceStep{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *st)
	}
	return steps, eris.Wrap(rows.Err(), "sqlite: list steps iterate")
}

// CompleteStep moves a PENDING step to SENT or SKIPPED. Both are terminal.
func (s *SQLiteStore) CompleteStep(ctx context.Context, id string, to model.StepStatus, now time.Time) (*model.SequenceStep, error) {
	st, err := s.GetStep(ctx, id)
	if err != nil {
		return nil, err
	}

	switch to {
	case model.StepSent:
		err = st.MarkSent(now.UTC())
	case model.StepSkipped:
		err = st.Skip(now.UTC())
	default:
		err = eris.Wrapf(model.ErrInvalidTransition, "unsupported step status %s", to)
	}
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sequence_steps SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		string(st.Status), nullTime(st.CompletedAt), id, string(model.StepPending),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: complete step %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return nil, eris.Wrapf(ErrConflict, "step %s is no longer pending", id)
	}
	return st, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOpportunity(row scannable) (*model.Opportunity, error) {
	var o model.Opportunity
	var sourceType, status, analysisJSON, reasonsJSON, matchesJSON string
	var nextReview sql.NullTime

	err := row.Scan(&o.ID, &o.UserID, &o.URL, &sourceType, &analysisJSON, &o.LeadScore, &o.SignalStrength,
		&reasonsJSON, &matchesJSON, &status, &nextReview, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "opportunity")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan opportunity")
	}

	o.SourceType = model.SourceType(sourceType)
	o.Status = model.OpportunityStatus(status)
	o.NextReviewAt = timePtr(nextReview)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	if err := json.Unmarshal([]byte(analysisJSON), &o.Analysis); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &o.LeadReasons); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal lead reasons")
	}
	if err := json.Unmarshal([]byte(matchesJSON), &o.PlaybookMatches); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal playbook matches")
	}
	return &o, nil
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var oppID sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.URL, &oppID, &p.IcpScore, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "project")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan project")
	}
	p.OpportunityID = oppID.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func scanStep(row scannable) (*model.SequenceStep, error) {
	var st model.SequenceStep
	var channel, status string
	var scheduled, completed sql.NullTime

	err := row.Scan(&st.ID, &st.SequenceID, &st.ProjectID, &st.StepNumber, &channel, &st.Content,
		&status, &scheduled, &completed)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "step")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan step")
	}
	st.Channel = model.Channel(channel)
	st.Status = model.StepStatus(status)
	st.ScheduledAt = timePtr(scheduled)
	st.CompletedAt = timePtr(completed)
	return &st, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
