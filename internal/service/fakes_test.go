package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

// In-memory stand-ins for the repository layer. They mirror the real
// stores' error contracts so the services under test see the same
// behavior they would against postgres.

type recordingNotifier struct {
	magicLinks []string
	confirmed  []string
	promoted   []string
	claimed    []string
	completed  []string
	commented  []string
}

func (n *recordingNotifier) MagicLink(_ context.Context, _ *model.User, url string) {
	n.magicLinks = append(n.magicLinks, url)
}

func (n *recordingNotifier) RegistrationConfirmed(_ context.Context, reg *model.Registration, _ *model.Event) {
	n.confirmed = append(n.confirmed, reg.ID)
}

func (n *recordingNotifier) WaitlistPromoted(_ context.Context, reg *model.Registration, _ *model.Event) {
	n.promoted = append(n.promoted, reg.ID)
}

func (n *recordingNotifier) ItemClaimed(_ context.Context, item *model.Item, _ *model.Event) {
	n.claimed = append(n.claimed, item.ID)
}

func (n *recordingNotifier) ItemCompleted(_ context.Context, item *model.Item, _ *model.Event) {
	n.completed = append(n.completed, item.ID)
}

func (n *recordingNotifier) ItemCommented(_ context.Context, item *model.Item, _, _ string) {
	n.commented = append(n.commented, item.ID)
}

// ── users ──

type memUsers struct {
	byEmail map[string]*model.User
	seq     int
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*model.User{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, email, name string, role model.Role) (*model.User, error) {
	m.seq++
	u := &model.User{
		ID:        fmt.Sprintf("user-%d", m.seq),
		Email:     strings.ToLower(email),
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
	m.byEmail[u.Email] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetRole(_ context.Context, id string, role model.Role) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memUsers) MarkEmailVerified(_ context.Context, id string) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.EmailVerified = true
			return nil
		}
	}
	return model.ErrNotFound
}

// ── auth tokens and sessions ──

type magicToken struct {
	userID    string
	expiresAt time.Time
	used      bool
}

type memTokens struct {
	magic    map[string]*magicToken
	sessions map[string]struct {
		userID    string
		expiresAt time.Time
	}
	users *memUsers
}

func newMemTokens(users *memUsers) *memTokens {
	return &memTokens{
		magic: map[string]*magicToken{},
		sessions: map[string]struct {
			userID    string
			expiresAt time.Time
		}{},
		users: users,
	}
}

func (m *memTokens) InsertMagicToken(_ context.Context, userID, hashedToken string, expiresAt time.Time) error {
	m.magic[hashedToken] = &magicToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memTokens) ConsumeMagicToken(_ context.Context, hashedToken string) (string, error) {
	tok, ok := m.magic[hashedToken]
	if !ok || tok.used || time.Now().After(tok.expiresAt) {
		return "", model.ErrNotFound
	}
	tok.used = true
	return tok.userID, nil
}

func (m *memTokens) CreateSession(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.sessions[token] = struct {
		userID    string
		expiresAt time.Time
	}{userID, expiresAt}
	return nil
}

func (m *memTokens) UserBySession(ctx context.Context, token string) (*model.User, error) {
	s, ok := m.sessions[token]
	if !ok || time.Now().After(s.expiresAt) {
		return nil, model.ErrNotFound
	}
	return m.users.GetByID(ctx, s.userID)
}

func (m *memTokens) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

// ── events ──

type memEvents struct {
	events map[string]*model.Event
	seq    int
}

func newMemEvents() *memEvents {
	return &memEvents{events: map[string]*model.Event{}}
}

func (m *memEvents) add(e model.Event) *model.Event {
	if e.ID == "" {
		m.seq++
		e.ID = fmt.Sprintf("event-%d", m.seq)
	}
	m.events[e.ID] = &e
	return &e
}

func (m *memEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := m.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (m *memEvents) Create(_ context.Context, e *model.Event) (*model.Event, error) {
	return m.add(*e), nil
}

func (m *memEvents) ListPublished(_ context.Context) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		if e.Status == model.EventPublished {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memEvents) ListAll(_ context.Context) ([]model.Event, error) {
	var out []model.Event
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memEvents) Update(_ context.Context, id string, patch repository.EventPatch) error {
	e, ok := m.events[id]
	if !ok {
		return model.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.VenueID != nil {
		if *patch.VenueID == "" {
			e.VenueID = nil
			e.VenueName = ""
		} else {
			v := *patch.VenueID
			e.VenueID = &v
		}
	}
	if patch.Capacity != nil {
		e.Capacity = *patch.Capacity
	}
	if patch.WaitlistEnabled != nil {
		e.WaitlistEnabled = *patch.WaitlistEnabled
	}
	if patch.Status != nil {
		e.Status = *patch.Status
	}
	return nil
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memEvents) ListVenues(_ context.Context) ([]model.Venue, error) {
	return nil, nil
}

func (m *memEvents) FixerRSVPCount(_ context.Context, _ string) (int, error) {
	return 0, nil
}

// ── registrations ──

type memRegs struct {
	events *memEvents
	regs   []*model.Registration
	seq    int
}

func newMemRegs(events *memEvents) *memRegs {
	return &memRegs{events: events}
}

func (m *memRegs) activeCount(eventID string) int {
	n := 0
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.Status != model.RegistrationCancelled {
			n++
		}
	}
	return n
}

func (m *memRegs) Create(_ context.Context, p repository.CreateParams) (*model.Registration, error) {
	event, ok := m.events.events[p.EventID]
	if !ok {
		return nil, model.ErrNotFound
	}
	for _, reg := range m.regs {
		if reg.EventID == p.EventID && reg.UserID == p.UserID && reg.Status != model.RegistrationCancelled {
			return nil, model.ErrAlreadyRegistered
		}
	}

	count := m.activeCount(p.EventID)
	status, err := model.DecideAdmission(count, event.Capacity, event.WaitlistEnabled)
	if err != nil {
		return nil, err
	}

	m.seq++
	reg := &model.Registration{
		ID:              fmt.Sprintf("reg-%d", m.seq),
		EventID:         p.EventID,
		UserID:          p.UserID,
		Status:          status,
		Position:        count + 1,
		QRCode:          p.QRCode,
		ManagementToken: p.ManagementToken,
		CreatedAt:       time.Now(),
	}
	for i, in := range p.Items {
		reg.Items = append(reg.Items, model.Item{
			ID:             fmt.Sprintf("%s-item-%d", reg.ID, i+1),
			RegistrationID: reg.ID,
			EventID:        p.EventID,
			UserID:         p.UserID,
			Name:           in.Name,
			Problem:        in.Problem,
			Status:         model.ItemRegistered,
		})
	}
	m.regs = append(m.regs, reg)
	cp := *reg
	return &cp, nil
}

func (m *memRegs) find(id string) *model.Registration {
	for _, reg := range m.regs {
		if reg.ID == id {
			return reg
		}
	}
	return nil
}

func (m *memRegs) GetDetail(_ context.Context, id string) (*model.Registration, error) {
	if reg := m.find(id); reg != nil {
		cp := *reg
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (m *memRegs) TokenMatches(_ context.Context, id, token string) (bool, error) {
	reg := m.find(id)
	if reg == nil {
		return false, model.ErrNotFound
	}
	return reg.ManagementToken != "" && reg.ManagementToken == token, nil
}

func (m *memRegs) SetManagementToken(_ context.Context, id, token string) error {
	reg := m.find(id)
	if reg == nil {
		return model.ErrNotFound
	}
	reg.ManagementToken = token
	return nil
}

func (m *memRegs) Cancel(_ context.Context, id string) (*model.Registration, error) {
	reg := m.find(id)
	if reg == nil {
		return nil, model.ErrNotFound
	}
	if reg.Status == model.RegistrationCancelled {
		return nil, nil
	}
	prior := reg.Status
	reg.Status = model.RegistrationCancelled
	for i := range reg.Items {
		if reg.Items[i].Status != model.ItemCancelled {
			reg.Items[i].Status = model.ItemCancelled
		}
	}

	if prior == model.RegistrationWaitlisted {
		return nil, nil
	}
	for _, cand := range m.regs {
		if cand.EventID == reg.EventID && cand.Status == model.RegistrationWaitlisted {
			cand.Status = model.RegistrationRegistered
			cp := *cand
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRegs) FindByQR(_ context.Context, eventID, qrCode string) (*model.Registration, error) {
	for _, reg := range m.regs {
		if reg.EventID == eventID && reg.QRCode == qrCode && reg.Status != model.RegistrationCancelled {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memRegs) Search(_ context.Context, eventID, query string, limit int) ([]model.Registration, error) {
	q := strings.ToLower(query)
	var out []model.Registration
	for _, reg := range m.regs {
		if reg.EventID != eventID || reg.Status == model.RegistrationCancelled {
			continue
		}
		if strings.Contains(strings.ToLower(reg.UserName), q) || strings.Contains(strings.ToLower(reg.UserEmail), q) {
			out = append(out, *reg)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memRegs) CheckIn(_ context.Context, eventID, regID string) error {
	reg := m.find(regID)
	if reg == nil || reg.EventID != eventID || reg.Status == model.RegistrationCancelled {
		return model.ErrNotFound
	}
	if reg.Status == model.RegistrationCheckedIn {
		return model.ErrAlreadyCheckedIn
	}
	now := time.Now()
	reg.Status = model.RegistrationCheckedIn
	reg.CheckedInAt = &now
	return nil
}

func (m *memRegs) Summary(_ context.Context, eventID string) (int, int, error) {
	total, checkedIn := 0, 0
	for _, reg := range m.regs {
		if reg.EventID != eventID || reg.Status == model.RegistrationCancelled {
			continue
		}
		total++
		if reg.Status == model.RegistrationCheckedIn {
			checkedIn++
		}
	}
	return total, checkedIn, nil
}

func (m *memRegs) StatusCounts(_ context.Context, eventID string) (repository.StatusCounts, error) {
	var c repository.StatusCounts
	for _, reg := range m.regs {
		if reg.EventID != eventID {
			continue
		}
		c.Total++
		switch reg.Status {
		case model.RegistrationRegistered:
			c.Registered++
		case model.RegistrationWaitlisted:
			c.Waitlisted++
		case model.RegistrationCheckedIn:
			c.CheckedIn++
		case model.RegistrationCancelled:
			c.Cancelled++
		}
	}
	c.Active = c.Total - c.Cancelled
	return c, nil
}

// ── items ──

type memItems struct {
	items    []*model.Item
	comments []model.ItemComment
	seq      int
}

func newMemItems() *memItems {
	return &memItems{}
}

func (m *memItems) add(it model.Item) *model.Item {
	if it.ID == "" {
		m.seq++
		it.ID = fmt.Sprintf("item-%d", m.seq)
	}
	if it.Status == "" {
		it.Status = model.ItemRegistered
	}
	m.items = append(m.items, &it)
	return &it
}

func (m *memItems) find(eventID, itemID string) *model.Item {
	for _, it := range m.items {
		if it.ID == itemID && it.EventID == eventID {
			return it
		}
	}
	return nil
}

func (m *memItems) GetEventItem(_ context.Context, eventID, itemID string) (*model.Item, error) {
	if it := m.find(eventID, itemID); it != nil {
		cp := *it
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (m *memItems) GetByID(_ context.Context, itemID string) (*model.Item, error) {
	for _, it := range m.items {
		if it.ID == itemID {
			cp := *it
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memItems) ListByEvent(_ context.Context, eventID string) ([]model.Item, error) {
	var out []model.Item
	for _, it := range m.items {
		if it.EventID == eventID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memItems) Claim(_ context.Context, eventID, itemID, fixerUserID string) error {
	it := m.find(eventID, itemID)
	if it == nil {
		return model.ErrNotFound
	}
	if it.Status != model.ItemRegistered {
		return model.ErrInvalidState
	}
	now := time.Now()
	it.FixerID = &fixerUserID
	it.Status = model.ItemInProgress
	it.StartedAt = &now
	return nil
}

func (m *memItems) Complete(_ context.Context, itemID string, outcome model.Outcome, notes, method, parts string) error {
	for _, it := range m.items {
		if it.ID == itemID {
			now := time.Now()
			it.Outcome = outcome
			it.OutcomeNotes = notes
			it.RepairMethod = method
			it.PartsUsed = parts
			it.Status = model.ItemCompleted
			it.CompletedAt = &now
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memItems) Revert(_ context.Context, itemID string) error {
	for _, it := range m.items {
		if it.ID == itemID {
			it.Status = model.ItemRegistered
			it.FixerID = nil
			it.StartedAt = nil
			it.CompletedAt = nil
			it.Outcome = ""
			it.OutcomeNotes = ""
			it.RepairMethod = ""
			it.PartsUsed = ""
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memItems) MarkInProgress(_ context.Context, itemID string) error {
	for _, it := range m.items {
		if it.ID == itemID {
			now := time.Now()
			it.Status = model.ItemInProgress
			it.StartedAt = &now
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memItems) AddComment(_ context.Context, c *model.ItemComment) error {
	m.seq++
	c.ID = fmt.Sprintf("comment-%d", m.seq)
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memItems) ListComments(_ context.Context, itemID string) ([]model.ItemComment, error) {
	var out []model.ItemComment
	for _, c := range m.comments {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memItems) ReplaceForRegistration(_ context.Context, regID, eventID, userID string, items []model.ItemInput) ([]model.Item, error) {
	kept := m.items[:0]
	for _, it := range m.items {
		if it.RegistrationID != regID {
			kept = append(kept, it)
		}
	}
	m.items = kept

	var out []model.Item
	for _, in := range items {
		it := m.add(model.Item{
			RegistrationID: regID,
			EventID:        eventID,
			UserID:         userID,
			Name:           in.Name,
			Problem:        in.Problem,
		})
		out = append(out, *it)
	}
	return out, nil
}

// ── skills ──

type memSkills struct {
	byUser map[string][]model.Skill
}

func newMemSkills() *memSkills {
	return &memSkills{byUser: map[string][]model.Skill{}}
}

func (m *memSkills) SkillsForUser(_ context.Context, userID string) ([]model.Skill, error) {
	return m.byUser[userID], nil
}
