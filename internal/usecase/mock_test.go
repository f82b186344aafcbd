//go:build !integration

package usecase_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/domain/ports/adapter"
	"telegram-subscription-shop/internal/infra/adapters/payment"
	"telegram-subscription-shop/internal/infra/catalog"
	"telegram-subscription-shop/internal/infra/clock"
	"telegram-subscription-shop/internal/infra/worker"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TelegramBotAdapter ----

type SentMessage struct {
	ChatID int64
	Text   string
	Rows   [][]adapter.InlineButton
}

type MockTelegramBot struct {
	mu      sync.Mutex
	Sent    []SentMessage
	SendErr error
}

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	return m.SendButtons(ctx, chatID, text, nil)
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text, Rows: rows})
	return nil
}

func (m *MockTelegramBot) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}

// ---- Task submitters ----

// inlineSubmitter runs tasks synchronously so assertions can follow immediately.
type inlineSubmitter struct{}

func (inlineSubmitter) Submit(task worker.Task) error {
	return task(context.Background())
}

type fullSubmitter struct{}

func (fullSubmitter) Submit(worker.Task) error { return worker.ErrQueueFull }

// ---- Mock GreetingRepository ----

type MockGreetingRepo struct {
	ListFunc   func(ctx context.Context) ([]*model.Greeting, error)
	CreateFunc func(ctx context.Context, g *model.Greeting) error
}

func (m *MockGreetingRepo) List(ctx context.Context) ([]*model.Greeting, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockGreetingRepo) Create(ctx context.Context, g *model.Greeting) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, g)
	}
	return nil
}

// ---- Fixtures ----

var fixedNow = time.Unix(1700000000, 0).UTC()

const (
	testLogin     = "demo"
	testPassword1 = "demo"
	testPassword2 = "result-secret"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() failed: %v", err)
	}
	return c
}

func newTestGateway(t *testing.T, c *catalog.Catalog) *payment.RobokassaGateway {
	t.Helper()
	gw, err := payment.NewRobokassaGateway(payment.RobokassaOptions{
		MerchantLogin: testLogin,
		Password1:     testPassword1,
		Password2:     testPassword2,
	}, c, payment.NewMonotonicSequence(), clock.NewFixed(fixedNow))
	if err != nil {
		t.Fatalf("NewRobokassaGateway failed: %v", err)
	}
	return gw
}

// signResult signs a result notification the way Robokassa does.
func signResult(outSum, invID string, params model.CustomParams) string {
	sum := md5.Sum([]byte(payment.ResultSignatureInput(outSum, invID, testPassword2, params)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
