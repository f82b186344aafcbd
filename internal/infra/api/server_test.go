//go:build !integration

package api

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
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
	"telegram-subscription-shop/internal/infra/db/memory"
	"telegram-subscription-shop/internal/infra/i18n"
	"telegram-subscription-shop/internal/infra/metrics"
	"telegram-subscription-shop/internal/infra/worker"
	"telegram-subscription-shop/internal/usecase"
)

const (
	testPassword2 = "result-secret"
	managerChat   = int64(999)
	adminSecret   = "test-admin-jwt-secret"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type recordingBot struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func (b *recordingBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sent == nil {
		b.sent = map[int64][]string{}
	}
	b.sent[chatID] = append(b.sent[chatID], text)
	return nil
}

func (b *recordingBot) SendButtons(ctx context.Context, chatID int64, text string, _ [][]adapter.InlineButton) error {
	return b.SendMessage(ctx, chatID, text)
}

func (b *recordingBot) count(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent[chatID])
}

type inlineSubmitter struct{}

func (inlineSubmitter) Submit(task worker.Task) error { return task(context.Background()) }

type fixture struct {
	handler http.Handler
	bot     *recordingBot
	auth    *AuthManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := newTestLogger()
	tr := i18n.MustDefault()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() failed: %v", err)
	}
	gw, err := payment.NewRobokassaGateway(payment.RobokassaOptions{
		MerchantLogin: "demo",
		Password1:     "demo",
		Password2:     testPassword2,
	}, cat, payment.NewMonotonicSequence(), clock.NewFixed(time.Unix(1700000000, 0)))
	if err != nil {
		t.Fatalf("NewRobokassaGateway failed: %v", err)
	}
	bot := &recordingBot{}
	notify := usecase.NewNotificationUseCase(bot, cat, tr, managerChat, logger)
	pay := usecase.NewPaymentUseCase(gw, cat, notify, inlineSubmitter{}, logger, false)
	greet := usecase.NewGreetingUseCase(memory.NewGreetingRepo(nil), logger)
	if err := greet.EnsureSeed(context.Background(), usecase.DefaultGreeting); err != nil {
		t.Fatalf("EnsureSeed failed: %v", err)
	}
	auth := NewAuthManager(adminSecret, time.Hour)
	srv := NewServer(pay, greet, cat, tr, Options{BotUsername: "@weplanetnetwork_bot", RequestTimeout: 5 * time.Second, Auth: auth}, logger)
	return &fixture{handler: srv.Router(), bot: bot, auth: auth}
}

func sign(outSum, invID string, params model.CustomParams) string {
	sum := md5.Sum([]byte(payment.ResultSignatureInput(outSum, invID, testPassword2, params)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestResultCallback(t *testing.T) {
	params := model.NewOrderParams("stable_1m", "42", "alice")
	validForm := func() url.Values {
		return url.Values{
			"OutSum":               {"1520.000000"},
			"InvId":                {"1700000000"},
			"SignatureValue":       {sign("1520.000000", "1700000000", params)},
			"Shp_subscriptionType": {"stable_1m"},
			"Shp_userId":           {"42"},
			"Shp_userName":         {"alice"},
		}
	}

	t.Run("valid notification is acknowledged", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(postForm("/api/robokassa/result", validForm()))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, but got: %d (%s)", rec.Code, rec.Body.String())
		}
		if rec.Body.String() != "OK1700000000" {
			t.Errorf("expected OK1700000000, but got: %q", rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("expected text/plain, but got: %q", ct)
		}
		if f.bot.count(managerChat) != 1 {
			t.Errorf("expected one manager notification, but got: %d", f.bot.count(managerChat))
		}
	})

	t.Run("tampered amount is rejected with 400", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.Set("OutSum", "1.000000")
		rec := f.do(postForm("/api/robokassa/result", form))
		if rec.Code != http.StatusBadRequest || rec.Body.String() != "Invalid signature" {
			t.Fatalf("expected 400 Invalid signature, but got: %d %q", rec.Code, rec.Body.String())
		}
		if f.bot.count(managerChat) != 0 {
			t.Error("expected no manager notification")
		}
	})

	t.Run("dropped custom parameter breaks the signature", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.Del("Shp_userName")
		if rec := f.do(postForm("/api/robokassa/result", form)); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, but got: %d", rec.Code)
		}
	})

	t.Run("JSON body with numeric OutSum", func(t *testing.T) {
		f := newFixture(t)
		p := model.NewOrderParams("chatgpt_1m", "42", "")
		body := `{"OutSum": 2290, "InvId": 7, "SignatureValue": "` + sign("2290", "7", p) + `", "Shp_subscriptionType": "chatgpt_1m", "Shp_userId": "42"}`
		req := httptest.NewRequest(http.MethodPost, "/api/robokassa/result", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := f.do(req)
		if rec.Code != http.StatusOK || rec.Body.String() != "OK7" {
			t.Fatalf("expected 200 OK7, but got: %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(postForm("/api/robokassa/result", url.Values{"OutSum": {"1520"}}))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, but got: %d", rec.Code)
		}
		if strings.HasPrefix(rec.Body.String(), "OK") {
			t.Errorf("did not expect an acknowledgment, but got: %q", rec.Body.String())
		}
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/robokassa/result", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		if rec := f.do(req); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, but got: %d", rec.Code)
		}
	})
}

func TestRedirectPages(t *testing.T) {
	t.Run("success page redirects to the bot and notifies the customer", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/robokassa/success?InvId=1&Shp_userId=42&Shp_subscriptionType=stable_1m", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, but got: %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{"Оплата прошла успешно!", `http-equiv="refresh"`, "https://t.me/weplanetnetwork_bot"} {
			if !strings.Contains(body, want) {
				t.Errorf("expected page to contain %q", want)
			}
		}
		if f.bot.count(42) != 1 {
			t.Errorf("expected one customer message, but got: %d", f.bot.count(42))
		}
	})

	t.Run("fail page notifies customer and manager", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/robokassa/fail?InvId=1&Shp_userId=42&Shp_subscriptionType=stable_1m", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Оплата не прошла") {
			t.Fatalf("unexpected fail page: %d %s", rec.Code, rec.Body.String())
		}
		if f.bot.count(42) != 1 || f.bot.count(managerChat) != 1 {
			t.Errorf("expected customer and manager messages, but got: %d, %d", f.bot.count(42), f.bot.count(managerChat))
		}
	})

	t.Run("page renders without customer id", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/robokassa/success", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, but got: %d", rec.Code)
		}
	})
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("health", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("greetings", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/greetings", nil))
		var got []model.Greeting
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 1 || got[0].Message != "Привет, мир!" {
			t.Errorf("unexpected greetings: %+v", got)
		}
	})

	t.Run("trace id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		if got := f.do(req).Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("expected echoed trace id, but got: %q", got)
		}
		if got := f.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Header().Get("X-Request-ID"); got == "" {
			t.Error("expected a generated trace id")
		}
	})

	t.Run("metrics", func(t *testing.T) {
		metrics.MustRegister()
		rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "telegram_rate_limited_total") {
			t.Fatalf("unexpected metrics response: %d", rec.Code)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		if rec := f.do(httptest.NewRequest(http.MethodGet, "/nope", nil)); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, but got: %d", rec.Code)
		}
	})
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.auth.Mint("ops")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("no credentials -> 401", func(t *testing.T) {
		if rec := f.do(httptest.NewRequest(http.MethodGet, "/api/admin/offers", nil)); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, but got: %d", rec.Code)
		}
	})

	t.Run("token signed with another secret -> 401", func(t *testing.T) {
		other, _, _ := NewAuthManager("other-secret", time.Hour).Mint("ops")
		req := httptest.NewRequest(http.MethodGet, "/api/admin/offers", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		if rec := f.do(req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, but got: %d", rec.Code)
		}
	})

	t.Run("list offers", func(t *testing.T) {
		rec := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/admin/offers", nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, but got: %d", rec.Code)
		}
		var got offersResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Currency != "RUB" || len(got.Offers) != 10 || got.Offers[0].ID != "stable_1m" {
			t.Errorf("unexpected offers: %+v", got)
		}
	})

	t.Run("create payment link", func(t *testing.T) {
		body := `{"offerId":"stable_3m","customerId":42,"userName":"alice"}`
		rec := f.do(authed(httptest.NewRequest(http.MethodPost, "/api/admin/payment-links", strings.NewReader(body))))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, but got: %d (%s)", rec.Code, rec.Body.String())
		}
		var got createLinkResponse
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		if got.Amount != 3740 || got.InvoiceID == "" || !strings.HasPrefix(got.URL, payment.DefaultRobokassaURL+"?") {
			t.Errorf("unexpected link: %+v", got)
		}
	})

	t.Run("unknown offer -> 404", func(t *testing.T) {
		body := `{"offerId":"nope","customerId":42}`
		if rec := f.do(authed(httptest.NewRequest(http.MethodPost, "/api/admin/payment-links", strings.NewReader(body)))); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, but got: %d", rec.Code)
		}
	})

	t.Run("missing customer -> 400", func(t *testing.T) {
		body := `{"offerId":"stable_1m"}`
		if rec := f.do(authed(httptest.NewRequest(http.MethodPost, "/api/admin/payment-links", strings.NewReader(body)))); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, but got: %d", rec.Code)
		}
	})
}

func TestAdminRoutesDisabledWithoutSecret(t *testing.T) {
	srv := NewServer(nil, nil, nil, i18n.MustDefault(), Options{}, newTestLogger())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/offers", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, but got: %d", rec.Code)
	}
}

func TestAuthManager(t *testing.T) {
	a := NewAuthManager(adminSecret, time.Minute)
	a.now = func() time.Time { return time.Unix(1700000000, 0) }
	tok, exp, err := a.Mint("ops")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if !exp.Equal(time.Unix(1700000060, 0)) {
		t.Errorf("unexpected expiry: %v", exp)
	}
	claims, err := a.Parse(tok)
	if err != nil || claims.Role != roleAdmin || claims.Subject != "ops" {
		t.Fatalf("expected valid admin claims, but got: %+v, %v", claims, err)
	}

	a.now = func() time.Time { return time.Unix(1700000120, 0) }
	if _, err := a.Parse(tok); err == nil {
		t.Error("expected expired token to be rejected")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := a.ParseFromRequest(req); err != ErrMissingToken {
		t.Errorf("expected ErrMissingToken, but got: %v", err)
	}
}
