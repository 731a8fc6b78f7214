package services

import (
	"context"
	"fmt"
	"time"

	"podly/internal/models"
	"podly/internal/timeutil"

	"github.com/sirupsen/logrus"
)

// StatusService applies the forward-only pod state transitions that depend
// on wall-clock time. Both sweeps are idempotent: re-running them against
// already-transitioned pods is a no-op because the selection predicate no
// longer matches.
type StatusService struct {
	pods     PodRepository
	accounts RecipientRepository
	mailer   CancellationMailer
	log      *logrus.Entry
}

// NewStatusService creates a StatusService. mailer may be nil; the
// cancellation email is then skipped.
func NewStatusService(pods PodRepository, accounts RecipientRepository, mailer CancellationMailer) *StatusService {
	return &StatusService{
		pods:     pods,
		accounts: accounts,
		mailer:   mailer,
		log:      logrus.WithField("component", "status_service"),
	}
}

// CancelUnconfirmedPods cancels every recruiting pod whose meeting instant
// has arrived (meeting instant <= now) and soft-deletes it. Pods with a
// missing or malformed date/time are skipped. A failure on one pod does not
// stop the sweep.
func (s *StatusService) CancelUnconfirmedPods(ctx context.Context, now time.Time) error {
	pods, err := s.pods.FindByStatus(ctx, models.PodRecruiting)
	if err != nil {
		return fmt.Errorf("listing recruiting pods: %w", err)
	}

	for _, pod := range pods {
		log := s.log.WithField("pod_id", pod.ID)

		if pod.MeetDate == nil || pod.MeetTime == nil {
			log.Debug("pod has no meeting moment yet, skipping")
			continue
		}
		instant, err := timeutil.CombineDateTime(*pod.MeetDate, *pod.MeetTime)
		if err != nil {
			log.WithError(err).Warn("pod has malformed meeting time, skipping")
			continue
		}
		if instant.After(now) {
			continue
		}

		if err := s.pods.UpdateStatus(ctx, pod.ID, models.PodCanceled, true); err != nil {
			log.WithError(err).Error("failed to cancel pod")
			continue
		}
		log.Info("canceled unconfirmed pod")
		s.emailOwnerAboutCancellation(ctx, pod)
	}
	return nil
}

// CloseCompletedPods closes every completed pod whose meeting date is before
// today's UTC calendar day.
func (s *StatusService) CloseCompletedPods(ctx context.Context, today time.Time) error {
	pods, err := s.pods.FindByStatus(ctx, models.PodCompleted)
	if err != nil {
		return fmt.Errorf("listing completed pods: %w", err)
	}

	cutoff := timeutil.StartOfDay(today)
	for _, pod := range pods {
		log := s.log.WithField("pod_id", pod.ID)

		if pod.MeetDate == nil {
			log.Debug("completed pod has no meeting date, skipping")
			continue
		}
		if !timeutil.StartOfDay(*pod.MeetDate).Before(cutoff) {
			continue
		}

		if err := s.pods.UpdateStatus(ctx, pod.ID, models.PodClosed, false); err != nil {
			log.WithError(err).Error("failed to close pod")
			continue
		}
		log.Info("closed completed pod")
	}
	return nil
}

// emailOwnerAboutCancellation is best-effort: the pod is already canceled,
// so any failure here is only logged.
func (s *StatusService) emailOwnerAboutCancellation(ctx context.Context, pod models.Pod) {
	if s.mailer == nil {
		return
	}
	log := s.log.WithFields(logrus.Fields{"pod_id": pod.ID, "username": pod.OwnerID})

	owner, err := s.accounts.AccountByUsername(ctx, pod.OwnerID)
	if err != nil {
		log.WithError(err).Warn("could not load owner for cancellation email")
		return
	}
	if err := s.mailer.SendPodCanceledEmail(owner.Email, owner.Username, pod.Title); err != nil {
		log.WithError(err).Warn("failed to send cancellation email")
	}
}
