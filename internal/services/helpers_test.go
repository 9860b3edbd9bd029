package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"workdesk/internal/clock"
	"workdesk/internal/models"
	"workdesk/internal/sla"
	"workdesk/internal/store"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

var (
	requester = Actor{ID: "u-req", Name: "Rita Requester"}
	approverA = Actor{ID: "u-a", Name: "Alex"}
	approverB = Actor{ID: "u-b", Name: "Blair"}
	agent     = Actor{ID: "u-agent", Name: "Sam Agent"}
)

type recordingSink struct {
	mu    sync.Mutex
	got   []models.Notification
	err   error
	delay time.Duration
}

func (r *recordingSink) Create(ctx context.Context, n *models.Notification) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, *n)
	return nil
}

func (r *recordingSink) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.got...)
}

func (r *recordingSink) reset() {
	r.mu.Lock()
	r.got = nil
	r.mu.Unlock()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, store.AutoMigrate(db))
	return db
}

type fixture struct {
	db            *gorm.DB
	clock         *clock.FakeClock
	sink          *recordingSink
	workItems     *WorkItemService
	tickets       *TicketService
	rules         *RuleService
	notifications *NotificationService
}

func newFixture(t *testing.T, opts WorkItemOptions) *fixture {
	t.Helper()
	db := newTestDB(t)
	clk := clock.Fake(t0)
	sink := &recordingSink{}
	log := quietLogger()
	dispatcher := NewDispatcher(sink, clk, time.Second, log)

	ruleStore := store.NewRuleStore(db)
	f := &fixture{
		db:            db,
		clock:         clk,
		sink:          sink,
		workItems:     NewWorkItemService(store.NewWorkItemStore(db), ruleStore, dispatcher, clk, log, opts),
		tickets:       NewTicketService(store.NewTicketStore(db), dispatcher, sla.DefaultPolicy(), clk, log),
		rules:         NewRuleService(ruleStore, clk, log),
		notifications: NewNotificationService(store.NewNotificationStore(db), log),
	}
	_, err := f.rules.SeedDefaults(context.Background())
	require.NoError(t, err)
	return f
}

func strPtr(s string) *string { return &s }

func recipients(ns []models.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.UserID)
	}
	return out
}
