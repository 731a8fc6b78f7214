package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"podly/internal/models"
	"podly/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reminderFixture struct {
	pods       *fakePodRepo
	recipients *fakeRecipients
	ledger     *fakeLedger
	push       *fakePush
	svc        *ReminderService
}

func newReminderFixture(pods ...*models.Pod) *reminderFixture {
	f := &reminderFixture{
		pods:       newFakePodRepo(pods...),
		recipients: newFakeRecipients(),
		ledger:     &fakeLedger{existsErrFor: map[string]error{}},
		push:       &fakePush{errFor: map[string]error{}},
	}
	f.svc = NewReminderService(f.pods, f.recipients, f.ledger, f.push)
	return f
}

func (f *reminderFixture) addAccount(a models.Account) {
	f.recipients.accounts[a.Username] = a
}

// Scenario: completed pod meeting in 30 minutes with two participants and no
// prior record produces exactly two dispatches and two ledger entries.
func TestRemindStartingSoonFansOutToParticipants(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u1", "u2"}

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	assert.Len(t, f.push.calls, 2)
	assert.Len(t, f.ledger.recordsFor("u1", models.KindStartSoon), 1)
	assert.Len(t, f.ledger.recordsFor("u2", models.KindStartSoon), 1)
}

func TestRemindStartingSoonWindowBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		meetAt   time.Time
		notified bool
	}{
		{"exactly now is excluded", testNow, false},
		{"one second in the future", testNow.Add(time.Second), true},
		{"exactly one hour out is included", testNow.Add(time.Hour), true},
		{"past the horizon", testNow.Add(time.Hour + time.Second), false},
		{"in the past", testNow.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReminderFixture(testPod(1, "u1", models.PodCompleted, tt.meetAt))
			f.addAccount(testAccount("u1", "tok-1"))
			f.recipients.participants[1] = []string{"u1"}

			require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

			if tt.notified {
				assert.Len(t, f.push.calls, 1)
			} else {
				assert.Empty(t, f.push.calls)
			}
		})
	}
}

func TestRemindStartingSoonIgnoresRecruitingPods(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodRecruiting, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.recipients.participants[1] = []string{"u1"}

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))
	assert.Empty(t, f.push.calls)
}

func TestRemindStartingSoonIncludesOwnerWithoutMembershipRow(t *testing.T) {
	f := newReminderFixture(testPod(1, "owner", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("owner", "tok-o"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u2"}

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	assert.Len(t, f.push.calls, 2)
	assert.Len(t, f.ledger.recordsFor("owner", models.KindStartSoon), 1)
}

func TestRemindLowAttendanceBoundariesAndRecipient(t *testing.T) {
	tests := []struct {
		name     string
		meetAt   time.Time
		notified bool
	}{
		{"exactly now is included", testNow, true},
		{"23h59m out", testNow.Add(24*time.Hour - time.Minute), true},
		{"exactly 24h out is included", testNow.Add(24 * time.Hour), true},
		{"past the day horizon", testNow.Add(24*time.Hour + time.Second), false},
		{"already started", testNow.Add(-time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReminderFixture(testPod(1, "owner", models.PodRecruiting, tt.meetAt))
			f.addAccount(testAccount("owner", "tok-o"))
			f.addAccount(testAccount("member", "tok-m"))
			f.recipients.participants[1] = []string{"owner", "member"}

			require.NoError(t, f.svc.RemindLowAttendance(context.Background(), testNow))

			if !tt.notified {
				assert.Empty(t, f.push.calls)
				return
			}
			// Owner only, even though the pod has other members.
			require.Len(t, f.push.calls, 1)
			assert.Equal(t, "tok-o", f.push.calls[0].token)
		})
	}
}

func TestRemindCancelSoonGoesToOwnerOnly(t *testing.T) {
	f := newReminderFixture(testPod(1, "owner", models.PodRecruiting, testNow.Add(45*time.Minute)))
	f.addAccount(testAccount("owner", "tok-o"))
	f.addAccount(testAccount("member", "tok-m"))
	f.recipients.participants[1] = []string{"owner", "member"}

	require.NoError(t, f.svc.RemindCancelSoon(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-o", f.push.calls[0].token)
	assert.Len(t, f.ledger.recordsFor("owner", models.KindCanceledSoon), 1)
}

// Scenario: pod meets tomorrow, liked by U1 and U2, U1 was already notified
// two hours ago. Only U2 gets a dispatch and a record.
func TestRemindSavedDeadlineDedupsPerRecipient(t *testing.T) {
	f := newReminderFixture(testPod(1, "owner", models.PodRecruiting, testNow.Add(24*time.Hour)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.likers[1] = []string{"u1", "u2"}
	f.ledger.records = append(f.ledger.records, models.Notification{
		Username:  "u1",
		PodID:     1,
		Kind:      models.KindSavedDeadline,
		DayBucket: timeutil.DayBucket(testNow.Add(-2 * time.Hour)),
		CreatedAt: testNow.Add(-2 * time.Hour),
	})

	require.NoError(t, f.svc.RemindSavedDeadline(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-2", f.push.calls[0].token)
	assert.Len(t, f.ledger.recordsFor("u1", models.KindSavedDeadline), 1, "no second record for u1")
	assert.Len(t, f.ledger.recordsFor("u2", models.KindSavedDeadline), 1)
}

func TestRemindSavedDeadlineOnlyMatchesTomorrow(t *testing.T) {
	f := newReminderFixture(
		testPod(1, "owner", models.PodRecruiting, testNow.Add(48*time.Hour)),
		testPod(2, "owner", models.PodRecruiting, testNow), // meets today
	)
	f.addAccount(testAccount("u1", "tok-1"))
	f.recipients.likers[1] = []string{"u1"}
	f.recipients.likers[2] = []string{"u1"}

	require.NoError(t, f.svc.RemindSavedDeadline(context.Background(), testNow))
	assert.Empty(t, f.push.calls)
}

func TestRemindReviewDayUsesSinceMidnightWindow(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(-24*time.Hour)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u1", "u2"}

	// u1 was notified late yesterday: outside the since-midnight window,
	// so a fresh notification is allowed. u2 was notified earlier today
	// and must be skipped.
	f.ledger.records = append(f.ledger.records,
		models.Notification{
			Username: "u1", PodID: 1, Kind: models.KindReviewDay,
			DayBucket: timeutil.DayBucket(testNow.Add(-13 * time.Hour)),
			CreatedAt: testNow.Add(-13 * time.Hour), // 23:00 yesterday
		},
		models.Notification{
			Username: "u2", PodID: 1, Kind: models.KindReviewDay,
			DayBucket: timeutil.DayBucket(testNow.Add(-2 * time.Hour)),
			CreatedAt: testNow.Add(-2 * time.Hour), // 10:00 today
		},
	)

	require.NoError(t, f.svc.RemindReviewDay(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-1", f.push.calls[0].token)
}

func TestRemindReviewWeekExcludesOwnerAndReviewers(t *testing.T) {
	f := newReminderFixture(testPod(1, "owner", models.PodCompleted, testNow.Add(-7*24*time.Hour)))
	f.addAccount(testAccount("owner", "tok-o"))
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"owner", "u1", "u2"}
	f.recipients.reviewers[1] = []string{"u1"}

	require.NoError(t, f.svc.RemindReviewWeek(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-2", f.push.calls[0].token)
	assert.Empty(t, f.ledger.recordsFor("owner", models.KindReviewWeek))
	assert.Empty(t, f.ledger.recordsFor("u1", models.KindReviewWeek))
}

// One recipient's dispatch failure must not block the others.
func TestDispatchIsolatesPushFailures(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u1", "u2"}
	f.push.errFor["tok-1"] = errors.New("fcm 500")

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	assert.Len(t, f.push.calls, 2, "both recipients get a dispatch attempt")
	assert.Empty(t, f.ledger.recordsFor("u1", models.KindStartSoon), "failed dispatch is not recorded")
	assert.Len(t, f.ledger.recordsFor("u2", models.KindStartSoon), 1)
}

func TestDispatchIsolatesDedupCheckFailures(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u1", "u2"}
	f.ledger.existsErrFor["u1"] = errors.New("timeout")

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-2", f.push.calls[0].token)
}

func TestDispatchSkipsRecipientsWithoutToken(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", ""))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u1", "u2"}

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-2", f.push.calls[0].token)
	assert.Empty(t, f.ledger.recordsFor("u1", models.KindStartSoon))
}

func TestDispatchClearsUnregisteredTokens(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-dead"))
	f.recipients.participants[1] = []string{"u1"}
	f.push.errFor["tok-dead"] = ErrUnregisteredToken

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	assert.Equal(t, []string{"u1"}, f.recipients.cleared)
	assert.Empty(t, f.ledger.recordsFor("u1", models.KindStartSoon))
}

// Running the same sweep twice in one window yields exactly one record per
// recipient.
func TestSweepTwiceProducesOneRecord(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.recipients.participants[1] = []string{"u1"}

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))
	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow.Add(5*time.Minute)))

	assert.Len(t, f.push.calls, 1)
	assert.Len(t, f.ledger.recordsFor("u1", models.KindStartSoon), 1)
}

// If the rolling-window check races and both ticks dispatch, the ledger's
// day-bucket uniqueness downgrades the second record to "already sent".
func TestDuplicateLedgerInsertIsNotAFailure(t *testing.T) {
	f := newReminderFixture(testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute)))
	f.addAccount(testAccount("u1", "tok-1"))
	f.recipients.participants[1] = []string{"u1"}

	// Pre-seed a record in today's bucket that the Exists window check
	// misses (CreatedAt far in the past but same bucket string).
	f.ledger.records = append(f.ledger.records, models.Notification{
		Username:  "u1",
		PodID:     1,
		Kind:      models.KindStartSoon,
		DayBucket: timeutil.DayBucket(testNow),
		CreatedAt: testNow.Add(-48 * time.Hour),
	})

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))
	assert.Len(t, f.ledger.recordsFor("u1", models.KindStartSoon), 1)
}

func TestRemindersSkipPodsWithBrokenMeetingTime(t *testing.T) {
	broken := testPod(1, "u1", models.PodCompleted, testNow.Add(30*time.Minute))
	broken.MeetTime = strPtr("garbage")
	ok := testPod(2, "u2", models.PodCompleted, testNow.Add(30*time.Minute))

	f := newReminderFixture(broken, ok)
	f.addAccount(testAccount("u1", "tok-1"))
	f.addAccount(testAccount("u2", "tok-2"))
	f.recipients.participants[1] = []string{"u1"}
	f.recipients.participants[2] = []string{"u2"}

	require.NoError(t, f.svc.RemindStartingSoon(context.Background(), testNow))

	require.Len(t, f.push.calls, 1)
	assert.Equal(t, "tok-2", f.push.calls[0].token)
}

func TestReminderSweepsPropagateQueryFailure(t *testing.T) {
	f := newReminderFixture()
	f.pods.listErr = errors.New("connection refused")

	ctx := context.Background()
	assert.Error(t, f.svc.RemindStartingSoon(ctx, testNow))
	assert.Error(t, f.svc.RemindLowAttendance(ctx, testNow))
	assert.Error(t, f.svc.RemindCancelSoon(ctx, testNow))
	assert.Error(t, f.svc.RemindSavedDeadline(ctx, testNow))
	assert.Error(t, f.svc.RemindReviewDay(ctx, testNow))
	assert.Error(t, f.svc.RemindReviewWeek(ctx, testNow))
}
