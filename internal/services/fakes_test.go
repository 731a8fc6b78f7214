package services

import (
	"context"
	"fmt"
	"time"

	"podly/internal/models"
	"podly/internal/timeutil"
)

// In-memory stand-ins for the collaborator contracts. They mimic the
// behavior the GORM implementations get from the database: status filters
// exclude soft-deleted pods, and the ledger enforces the day-bucket
// uniqueness.

type fakePodRepo struct {
	pods    map[uint]*models.Pod
	deleted map[uint]bool

	listErr   error
	updateErr map[uint]error

	updates []string // "id:status:softDelete" in call order
}

func newFakePodRepo(pods ...*models.Pod) *fakePodRepo {
	f := &fakePodRepo{
		pods:      make(map[uint]*models.Pod),
		deleted:   make(map[uint]bool),
		updateErr: make(map[uint]error),
	}
	for _, p := range pods {
		f.pods[p.ID] = p
	}
	return f
}

func (f *fakePodRepo) FindByStatus(ctx context.Context, status models.PodStatus) ([]models.Pod, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Pod
	for _, p := range f.pods {
		if p.Status == status && !f.deleted[p.ID] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePodRepo) FindByStatusAndDate(ctx context.Context, status models.PodStatus, date time.Time) ([]models.Pod, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Pod
	for _, p := range f.pods {
		if p.Status != status || f.deleted[p.ID] || p.MeetDate == nil {
			continue
		}
		if timeutil.SameDate(*p.MeetDate, date) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePodRepo) UpdateStatus(ctx context.Context, podID uint, status models.PodStatus, softDelete bool) error {
	if err := f.updateErr[podID]; err != nil {
		return err
	}
	p, ok := f.pods[podID]
	if !ok {
		return fmt.Errorf("pod %d not found", podID)
	}
	p.Status = status
	if softDelete {
		f.deleted[podID] = true
	}
	f.updates = append(f.updates, fmt.Sprintf("%d:%s:%t", podID, status, softDelete))
	return nil
}

type fakeRecipients struct {
	accounts     map[string]models.Account
	participants map[uint][]string
	likers       map[uint][]string
	reviewers    map[uint][]string

	cleared []string
}

func newFakeRecipients(accounts ...models.Account) *fakeRecipients {
	f := &fakeRecipients{
		accounts:     make(map[string]models.Account),
		participants: make(map[uint][]string),
		likers:       make(map[uint][]string),
		reviewers:    make(map[uint][]string),
	}
	for _, a := range accounts {
		f.accounts[a.Username] = a
	}
	return f
}

func (f *fakeRecipients) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	a, ok := f.accounts[username]
	if !ok {
		return nil, fmt.Errorf("account %s not found", username)
	}
	return &a, nil
}

func (f *fakeRecipients) resolve(usernames []string) []models.Account {
	var out []models.Account
	for _, u := range usernames {
		if a, ok := f.accounts[u]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeRecipients) ParticipantsOf(ctx context.Context, podID uint) ([]models.Account, error) {
	return f.resolve(f.participants[podID]), nil
}

func (f *fakeRecipients) LikersOf(ctx context.Context, podID uint) ([]models.Account, error) {
	return f.resolve(f.likers[podID]), nil
}

func (f *fakeRecipients) ReviewerIDsOf(ctx context.Context, podID uint) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, u := range f.reviewers[podID] {
		out[u] = true
	}
	return out, nil
}

func (f *fakeRecipients) ClearPushToken(ctx context.Context, username string) error {
	f.cleared = append(f.cleared, username)
	a, ok := f.accounts[username]
	if ok {
		a.PushToken = ""
		f.accounts[username] = a
	}
	return nil
}

type fakeLedger struct {
	records []models.Notification

	existsErrFor map[string]error // keyed by username
}

func (f *fakeLedger) Exists(ctx context.Context, username string, podID uint, kind models.NotificationKind, since time.Time) (bool, error) {
	if err := f.existsErrFor[username]; err != nil {
		return false, err
	}
	for _, n := range f.records {
		if n.Username == username && n.PodID == podID && n.Kind == kind && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) Record(ctx context.Context, n *models.Notification) error {
	for _, existing := range f.records {
		if existing.Username == n.Username && existing.PodID == n.PodID &&
			existing.Kind == n.Kind && existing.DayBucket == n.DayBucket {
			return models.ErrDuplicateNotification
		}
	}
	f.records = append(f.records, *n)
	return nil
}

func (f *fakeLedger) recordsFor(username string, kind models.NotificationKind) []models.Notification {
	var out []models.Notification
	for _, n := range f.records {
		if n.Username == username && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type pushCall struct {
	token string
	title string
	body  string
	data  map[string]string
}

type fakePush struct {
	calls  []pushCall
	errFor map[string]error // keyed by token
}

func (f *fakePush) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.calls = append(f.calls, pushCall{token: token, title: title, body: body, data: data})
	return f.errFor[token]
}

type fakeMailer struct {
	sent []string // pod titles
	err  error
}

func (f *fakeMailer) SendPodCanceledEmail(ownerEmail, ownerName, podTitle string) error {
	f.sent = append(f.sent, podTitle)
	return f.err
}

// test data helpers

func datePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func testPod(id uint, owner string, status models.PodStatus, meetAt time.Time) *models.Pod {
	meetAt = meetAt.UTC()
	day := time.Date(meetAt.Year(), meetAt.Month(), meetAt.Day(), 0, 0, 0, 0, time.UTC)
	clock := meetAt.Format("15:04:05")
	return &models.Pod{
		ID:       id,
		Title:    fmt.Sprintf("Pod %d", id),
		OwnerID:  owner,
		MeetDate: datePtr(day),
		MeetTime: strPtr(clock),
		Status:   status,
	}
}

func testAccount(username, token string) models.Account {
	return models.Account{
		Username:  username,
		Email:     username + "@example.com",
		PushToken: token,
	}
}
