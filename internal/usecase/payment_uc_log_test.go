//go:build !integration

package usecase_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"telegram-subscription-shop/internal/domain/model"
	"telegram-subscription-shop/internal/infra/i18n"
	"telegram-subscription-shop/internal/usecase"
)

func TestPaymentUseCase_CustomerIdentityInLogs(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	setup := func(dev bool) (usecase.PaymentUseCase, *bytes.Buffer) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
		notify := usecase.NewNotificationUseCase(&MockTelegramBot{}, cat, i18n.MustDefault(), managerChat, newTestLogger())
		return usecase.NewPaymentUseCase(newTestGateway(t, cat), cat, notify, inlineSubmitter{}, &logger, dev), &buf
	}

	t.Run("redacted outside dev mode", func(t *testing.T) {
		uc, buf := setup(false)
		if _, err := uc.StartPurchase(ctx, "stable_1m", 123456789, "александра"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "123456789") || strings.Contains(out, "александра") {
			t.Errorf("expected customer identity to be redacted, but got: %s", out)
		}
		if !strings.Contains(out, `"user_id":"1234...89"`) || !strings.Contains(out, `"user_name":"алек...ра"`) {
			t.Errorf("expected redacted previews, but got: %s", out)
		}
	})

	t.Run("readable in dev mode", func(t *testing.T) {
		uc, buf := setup(true)
		if _, err := uc.StartPurchase(ctx, "stable_1m", 123456789, "alice"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !strings.Contains(buf.String(), `"user_id":"123456789"`) {
			t.Errorf("expected raw user id in dev mode, but got: %s", buf.String())
		}
	})

	t.Run("ConfirmResult traces its duration and redacts the payer", func(t *testing.T) {
		uc, buf := setup(false)
		params := model.NewOrderParams("stable_1m", "987654321", "")
		res := model.PaymentResult{
			OutSum:    "1520",
			InvoiceID: "1700000000",
			Signature: signResult("1520", "1700000000", params),
			Params:    params,
		}
		if _, err := uc.ConfirmResult(ctx, res); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		out := buf.String()
		if strings.Contains(out, "987654321") {
			t.Errorf("expected payer id to be redacted, but got: %s", out)
		}
		if !strings.Contains(out, `"method":"PaymentUC.ConfirmResult"`) || !strings.Contains(out, `"duration"`) {
			t.Errorf("expected trace duration entries, but got: %s", out)
		}
	})
}
