package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"podly/internal/models"
	"podly/internal/timeutil"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ReminderService runs the notification sweeps. Each reminder kind pairs a
// candidate query (pod status plus a time-window test on the meeting
// instant or date) with a recipient set, a dedup window, and a message.
// Dedup is checked independently per recipient; one recipient's prior
// notification never blocks another's first one. Any per-pod or
// per-recipient failure is logged and skipped so the rest of the sweep
// still runs.
type ReminderService struct {
	pods       PodRepository
	recipients RecipientRepository
	ledger     NotificationLedger
	push       PushGateway
	log        *logrus.Entry
}

// NewReminderService creates a ReminderService.
func NewReminderService(pods PodRepository, recipients RecipientRepository, ledger NotificationLedger, push PushGateway) *ReminderService {
	return &ReminderService{
		pods:       pods,
		recipients: recipients,
		ledger:     ledger,
		push:       push,
		log:        logrus.WithField("component", "reminder_service"),
	}
}

const meetTimeLayout = "Mon Jan 2, 3:04 PM"

// RemindStartingSoon notifies owner and participants of completed pods that
// meet within the next hour: now < meeting instant <= now+1h.
func (s *ReminderService) RemindStartingSoon(ctx context.Context, now time.Time) error {
	pods, err := s.pods.FindByStatus(ctx, models.PodCompleted)
	if err != nil {
		return fmt.Errorf("listing completed pods: %w", err)
	}

	horizon := now.Add(time.Hour)
	for _, pod := range pods {
		instant, ok := s.meetingInstant(pod)
		if !ok {
			continue
		}
		if !instant.After(now) || instant.After(horizon) {
			continue
		}
		recipients, err := s.ownerAndParticipants(ctx, pod)
		if err != nil {
			s.log.WithField("pod_id", pod.ID).WithError(err).Error("failed to resolve recipients")
			continue
		}
		s.dispatch(ctx, now, pod, models.KindStartSoon, recipients, now.Add(-24*time.Hour),
			"Starting soon",
			fmt.Sprintf("\"%s\" starts at %s. See you there!", pod.Title, instant.Format(meetTimeLayout)))
	}
	return nil
}

// RemindLowAttendance warns owners of recruiting pods meeting within 24
// hours: now <= meeting instant <= now+24h. Note the inclusive lower bound,
// unlike the one-hour kinds.
func (s *ReminderService) RemindLowAttendance(ctx context.Context, now time.Time) error {
	pods, err := s.pods.FindByStatus(ctx, models.PodRecruiting)
	if err != nil {
		return fmt.Errorf("listing recruiting pods: %w", err)
	}

	horizon := now.Add(24 * time.Hour)
	for _, pod := range pods {
		instant, ok := s.meetingInstant(pod)
		if !ok {
			continue
		}
		if instant.Before(now) || instant.After(horizon) {
			continue
		}
		recipients, err := s.ownerOnly(ctx, pod)
		if err != nil {
			s.log.WithField("pod_id", pod.ID).WithError(err).Error("failed to resolve owner")
			continue
		}
		s.dispatch(ctx, now, pod, models.KindLowAttendance, recipients, now.Add(-24*time.Hour),
			"Your pod is still recruiting",
			fmt.Sprintf("\"%s\" meets at %s and hasn't filled up. Spread the word!", pod.Title, instant.Format(meetTimeLayout)))
	}
	return nil
}

// RemindCancelSoon warns owners of recruiting pods that will be auto-canceled
// at start time: now < meeting instant <= now+1h.
func (s *ReminderService) RemindCancelSoon(ctx context.Context, now time.Time) error {
	pods, err := s.pods.FindByStatus(ctx, models.PodRecruiting)
	if err != nil {
		return fmt.Errorf("listing recruiting pods: %w", err)
	}

	horizon := now.Add(time.Hour)
	for _, pod := range pods {
		instant, ok := s.meetingInstant(pod)
		if !ok {
			continue
		}
		if !instant.After(now) || instant.After(horizon) {
			continue
		}
		recipients, err := s.ownerOnly(ctx, pod)
		if err != nil {
			s.log.WithField("pod_id", pod.ID).WithError(err).Error("failed to resolve owner")
			continue
		}
		s.dispatch(ctx, now, pod, models.KindCanceledSoon, recipients, now.Add(-24*time.Hour),
			"Pod about to be canceled",
			fmt.Sprintf("\"%s\" starts at %s and isn't confirmed yet. It will be canceled automatically at start time.", pod.Title, instant.Format(meetTimeLayout)))
	}
	return nil
}

// RemindSavedDeadline tells users who saved a recruiting pod that it meets
// tomorrow, so today is the last day to join.
func (s *ReminderService) RemindSavedDeadline(ctx context.Context, now time.Time) error {
	tomorrow := timeutil.StartOfDay(now).Add(24 * time.Hour)
	pods, err := s.pods.FindByStatusAndDate(ctx, models.PodRecruiting, tomorrow)
	if err != nil {
		return fmt.Errorf("listing pods meeting tomorrow: %w", err)
	}

	for _, pod := range pods {
		likers, err := s.recipients.LikersOf(ctx, pod.ID)
		if err != nil {
			s.log.WithField("pod_id", pod.ID).WithError(err).Error("failed to resolve likers")
			continue
		}
		s.dispatch(ctx, now, pod, models.KindSavedDeadline, likers, now.Add(-24*time.Hour),
			"Last day to join",
			fmt.Sprintf("\"%s\" meets tomorrow. Join before recruiting closes!", pod.Title))
	}
	return nil
}

// RemindReviewDay asks owner and participants of pods that met yesterday for
// a review. Dedup window is "today": anything sent since midnight UTC counts.
func (s *ReminderService) RemindReviewDay(ctx context.Context, now time.Time) error {
	yesterday := timeutil.StartOfDay(now).Add(-24 * time.Hour)
	pods, err := s.pods.FindByStatusAndDate(ctx, models.PodCompleted, yesterday)
	if err != nil {
		return fmt.Errorf("listing pods that met yesterday: %w", err)
	}

	for _, pod := range pods {
		recipients, err := s.ownerAndParticipants(ctx, pod)
		if err != nil {
			s.log.WithField("pod_id", pod.ID).WithError(err).Error("failed to resolve recipients")
			continue
		}
		s.dispatch(ctx, now, pod, models.KindReviewDay, recipients, timeutil.StartOfDay(now),
			"How was it?",
			fmt.Sprintf("\"%s\" met yesterday. Leave a review for your podmates.", pod.Title))
	}
	return nil
}

// RemindReviewWeek nudges participants of pods that met a week ago and who
// haven't reviewed yet. The owner is excluded.
func (s *ReminderService) RemindReviewWeek(ctx context.Context, now time.Time) error {
	weekAgo := timeutil.StartOfDay(now).Add(-7 * 24 * time.Hour)
	pods, err := s.pods.FindByStatusAndDate(ctx, models.PodCompleted, weekAgo)
	if err != nil {
		return fmt.Errorf("listing pods that met a week ago: %w", err)
	}

	for _, pod := range pods {
		log := s.log.WithField("pod_id", pod.ID)
		participants, err := s.recipients.ParticipantsOf(ctx, pod.ID)
		if err != nil {
			log.WithError(err).Error("failed to resolve participants")
			continue
		}
		reviewers, err := s.recipients.ReviewerIDsOf(ctx, pod.ID)
		if err != nil {
			log.WithError(err).Error("failed to resolve reviewers")
			continue
		}
		recipients := make([]models.Account, 0, len(participants))
		for _, a := range participants {
			if a.Username == pod.OwnerID || reviewers[a.Username] {
				continue
			}
			recipients = append(recipients, a)
		}
		s.dispatch(ctx, now, pod, models.KindReviewWeek, recipients, timeutil.StartOfDay(now),
			"A week already",
			fmt.Sprintf("It's been a week since \"%s\". Share a review if you haven't yet.", pod.Title))
	}
	return nil
}

// meetingInstant combines the pod's date and time-of-day fields, skipping
// (with a log) pods whose meeting moment is missing or malformed.
func (s *ReminderService) meetingInstant(pod models.Pod) (time.Time, bool) {
	if pod.MeetDate == nil || pod.MeetTime == nil {
		s.log.WithField("pod_id", pod.ID).Debug("pod has no meeting moment yet, skipping")
		return time.Time{}, false
	}
	instant, err := timeutil.CombineDateTime(*pod.MeetDate, *pod.MeetTime)
	if err != nil {
		s.log.WithField("pod_id", pod.ID).WithError(err).Warn("pod has malformed meeting time, skipping")
		return time.Time{}, false
	}
	return instant, true
}

func (s *ReminderService) ownerOnly(ctx context.Context, pod models.Pod) ([]models.Account, error) {
	owner, err := s.recipients.AccountByUsername(ctx, pod.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("loading owner %s: %w", pod.OwnerID, err)
	}
	return []models.Account{*owner}, nil
}

// ownerAndParticipants returns the approved members of the pod, making sure
// the owner is present even if their membership row is missing.
func (s *ReminderService) ownerAndParticipants(ctx context.Context, pod models.Pod) ([]models.Account, error) {
	participants, err := s.recipients.ParticipantsOf(ctx, pod.ID)
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	for _, a := range participants {
		if a.Username == pod.OwnerID {
			return participants, nil
		}
	}
	owner, err := s.recipients.AccountByUsername(ctx, pod.OwnerID)
	if err != nil {
		s.log.WithField("pod_id", pod.ID).WithError(err).Warn("owner account not found, notifying participants only")
		return participants, nil
	}
	return append([]models.Account{*owner}, participants...), nil
}

// dispatch fans the message out to each recipient: dedup check, push send,
// ledger record. Every step is isolated per recipient.
func (s *ReminderService) dispatch(ctx context.Context, now time.Time, pod models.Pod, kind models.NotificationKind, recipients []models.Account, since time.Time, title, body string) {
	data := map[string]string{
		"pod_id": strconv.FormatUint(uint64(pod.ID), 10),
		"kind":   string(kind),
	}
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}

	seen := make(map[string]bool, len(recipients))
	for _, rcpt := range recipients {
		if seen[rcpt.Username] {
			continue
		}
		seen[rcpt.Username] = true

		log := s.log.WithFields(logrus.Fields{
			"pod_id":   pod.ID,
			"username": rcpt.Username,
			"kind":     kind,
		})

		sent, err := s.ledger.Exists(ctx, rcpt.Username, pod.ID, kind, since)
		if err != nil {
			log.WithError(err).Error("dedup check failed")
			continue
		}
		if sent {
			continue
		}

		if rcpt.PushToken == "" {
			log.Debug("recipient has no push token, skipping")
			continue
		}
		if err := s.push.Send(ctx, rcpt.PushToken, title, body, data); err != nil {
			if errors.Is(err, ErrUnregisteredToken) {
				log.Info("push token no longer registered, clearing it")
				if cerr := s.recipients.ClearPushToken(ctx, rcpt.Username); cerr != nil {
					log.WithError(cerr).Warn("failed to clear push token")
				}
			} else {
				log.WithError(err).Error("push dispatch failed")
			}
			continue
		}

		record := &models.Notification{
			Username:  rcpt.Username,
			PodID:     pod.ID,
			Kind:      kind,
			DayBucket: timeutil.DayBucket(now),
			Title:     title,
			Body:      body,
			Data:      datatypes.JSON(payload),
			CreatedAt: now.UTC(),
		}
		if err := s.ledger.Record(ctx, record); err != nil {
			if errors.Is(err, models.ErrDuplicateNotification) {
				log.Debug("notification already recorded today")
			} else {
				log.WithError(err).Error("failed to record notification")
			}
			continue
		}
		log.Info("reminder dispatched")
	}
}
