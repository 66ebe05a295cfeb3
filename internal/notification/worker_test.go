package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-backend/internal/db"
	"parking-backend/internal/model"
)

type sentAlert struct {
	endpoint string
	payload  string
}

// fakeSender records every send and answers with a configurable status per
// endpoint.
type fakeSender struct {
	mu       sync.Mutex
	sent     []sentAlert
	statuses map[string]int
}

func (f *fakeSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{endpoint: sub.Endpoint, payload: string(payload)})

	status := http.StatusCreated
	if s, ok := f.statuses[sub.Endpoint]; ok {
		status = s
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var workerDBCounter int64

func setupWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", atomic.AddInt64(&workerDBCounter, 1))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))
	return testDB
}

func seedOverstaySession(t *testing.T, testDB *gorm.DB) model.Session {
	t.Helper()
	vehicle := model.Vehicle{NumberPlate: "KA01AB1234", VehicleClass: model.VehicleCar}
	require.NoError(t, testDB.Create(&vehicle).Error)
	slot := model.Slot{SlotNumber: "A-01", SlotClass: model.SlotStandard, Status: model.SlotOccupied, Floor: 1}
	require.NoError(t, testDB.Create(&slot).Error)

	alertedAt := time.Now().UTC()
	session := model.Session{
		ID:          "11111111-1111-1111-1111-111111111111",
		VehicleID:   vehicle.ID,
		SlotID:      slot.ID,
		Status:      model.SessionActive,
		BillingType: model.BillingHourly,
		EntryTime:   alertedAt.Add(-7 * time.Hour),
		AlertedAt:   &alertedAt,
	}
	require.NoError(t, testDB.Create(&session).Error)
	return session
}

func TestWorkerPoolSendsAlertToEverySubscription(t *testing.T) {
	testDB := setupWorkerDB(t)
	session := seedOverstaySession(t, testDB)

	for i := 0; i < 3; i++ {
		sub := model.PushSubscription{
			Endpoint: fmt.Sprintf("https://push.example.com/sub/%d", i),
			P256DH:   "p256dh-key",
			Auth:     "auth-key",
		}
		require.NoError(t, testDB.Create(&sub).Error)
	}

	sender := &fakeSender{}
	pool := NewWorkerPool(2, testDB, &webpush.Options{})
	pool.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Dispatch(session.ID)

	assert.Eventually(t, func() bool {
		return sender.sentCount() == 3
	}, 2*time.Second, 10*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	for _, alert := range sender.sent {
		assert.Contains(t, alert.payload, "KA01AB1234")
		assert.Contains(t, alert.payload, "A-01")
		assert.Contains(t, alert.payload, "420 minutes")
	}
}

func TestWorkerPoolDeletesExpiredSubscription(t *testing.T) {
	testDB := setupWorkerDB(t)
	session := seedOverstaySession(t, testDB)

	gone := model.PushSubscription{Endpoint: "https://push.example.com/gone", P256DH: "k", Auth: "a"}
	alive := model.PushSubscription{Endpoint: "https://push.example.com/alive", P256DH: "k", Auth: "a"}
	require.NoError(t, testDB.Create(&gone).Error)
	require.NoError(t, testDB.Create(&alive).Error)

	sender := &fakeSender{statuses: map[string]int{gone.Endpoint: http.StatusGone}}
	pool := NewWorkerPool(1, testDB, &webpush.Options{})
	pool.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Dispatch(session.ID)

	assert.Eventually(t, func() bool {
		var count int64
		testDB.Model(&model.PushSubscription{}).Count(&count)
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	var remaining model.PushSubscription
	require.NoError(t, testDB.First(&remaining).Error)
	assert.Equal(t, alive.Endpoint, remaining.Endpoint)
}

func TestWorkerPoolIgnoresMissingSession(t *testing.T) {
	testDB := setupWorkerDB(t)

	sender := &fakeSender{}
	pool := NewWorkerPool(1, testDB, &webpush.Options{})
	pool.SetSender(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	pool.Dispatch("no-such-session")

	// Give the worker time to process and verify nothing was sent.
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, sender.sentCount())
}
