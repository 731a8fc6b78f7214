package services

import (
	"context"
	"errors"
	"time"

	"podly/internal/models"
)

// ErrUnregisteredToken is returned by a PushGateway when the vendor reports
// the device token as dead. The caller clears the stored token so later
// sweeps stop dispatching to it.
var ErrUnregisteredToken = errors.New("push token is not registered")

// PodRepository is the pod persistence surface the sweeps depend on.
// Implementations live in internal/repository; tests use in-memory fakes.
type PodRepository interface {
	// FindByStatus returns all non-deleted pods in the given status.
	FindByStatus(ctx context.Context, status models.PodStatus) ([]models.Pod, error)
	// FindByStatusAndDate returns pods in the given status whose meeting
	// date equals date's UTC calendar day.
	FindByStatusAndDate(ctx context.Context, status models.PodStatus, date time.Time) ([]models.Pod, error)
	// UpdateStatus sets the pod's status and optionally soft-deletes it.
	UpdateStatus(ctx context.Context, podID uint, status models.PodStatus, softDelete bool) error
}

// RecipientRepository resolves the user sets a reminder fans out to.
type RecipientRepository interface {
	AccountByUsername(ctx context.Context, username string) (*models.Account, error)
	// ParticipantsOf returns accounts of approved members, owner included.
	ParticipantsOf(ctx context.Context, podID uint) ([]models.Account, error)
	LikersOf(ctx context.Context, podID uint) ([]models.Account, error)
	ReviewerIDsOf(ctx context.Context, podID uint) (map[string]bool, error)
	ClearPushToken(ctx context.Context, username string) error
}

// NotificationLedger is the append-only notification store that doubles as
// the dedup ledger.
type NotificationLedger interface {
	// Exists reports whether a (username, pod, kind) record was created at
	// or after since.
	Exists(ctx context.Context, username string, podID uint, kind models.NotificationKind, since time.Time) (bool, error)
	// Record appends a notification. It returns
	// models.ErrDuplicateNotification when the dedup index rejects the row.
	Record(ctx context.Context, n *models.Notification) error
}

// PushGateway delivers one push message to one device.
type PushGateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// CancellationMailer sends the courtesy email to a pod owner whose pod was
// auto-canceled. Email failures are logged and never block a sweep.
type CancellationMailer interface {
	SendPodCanceledEmail(ownerEmail, ownerName, podTitle string) error
}
