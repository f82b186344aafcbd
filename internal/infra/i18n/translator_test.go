//go:build !integration

package i18n

import (
	"strings"
	"testing"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Привет\nwelcome_user: Привет %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Привет" {
			t.Errorf("wanted 'Привет', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted key back, got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Алиса"); got != "Привет Алиса" {
			t.Errorf("wanted 'Привет Алиса', got '%s'", got)
		}
	})
}

func TestEmbeddedLocale(t *testing.T) {
	tr := MustDefault()
	if tr.Lang() != "ru" {
		t.Fatalf("lang = %q", tr.Lang())
	}
	for _, key := range []string{"welcome", "stable_info", "payment_link", "manager_new_order", "manager_payment_success", "customer_payment_success", "customer_payment_failed", "btn_pay"} {
		if tr.T(key) == key {
			t.Errorf("missing key %s", key)
		}
	}
	got := tr.T("payment_link", "ChatGPT Plus", "1 месяц", 2290)
	if !strings.Contains(got, "2290₽") || !strings.Contains(got, "ChatGPT Plus") {
		t.Errorf("unexpected payment_link: %s", got)
	}
	if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
		t.Error("expected error for missing locale")
	}
}
