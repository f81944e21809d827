package psp

import (
	"context"
	"testing"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/provider"
)

func newTestRouter(adapters ...Adapter) (*Router, *provider.Manager[Adapter]) {
	mgr := provider.NewManager(provider.NewRegistry[Adapter](), &provider.HealthCheckSelector[Adapter]{})
	for _, a := range adapters {
		mgr.Add(a.Name(), a)
	}
	return NewRouter(mgr), mgr
}

func TestRouter_SelectByCurrency(t *testing.T) {
	stripe := &currencyAdapter{fakeAdapter: &fakeAdapter{name: "stripe", available: true}, currencies: []string{"USD", "EUR"}}
	mollie := &currencyAdapter{fakeAdapter: &fakeAdapter{name: "mollie", available: true}, currencies: []string{"EUR"}}
	router, _ := newTestRouter(stripe, mollie)

	a, err := router.Select(context.Background(), RoutingContext{Currency: "USD"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if a.Name() != "stripe" {
		t.Errorf("Select(USD) = %s, want stripe", a.Name())
	}

	_, err = router.Select(context.Background(), RoutingContext{Currency: "JPY"})
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE for JPY, got %v", err)
	}

	if got := router.ByCurrency("EUR"); len(got) != 2 {
		t.Errorf("ByCurrency(EUR) returned %d adapters, want 2", len(got))
	}
}

func TestRouter_DefaultWins(t *testing.T) {
	router, mgr := newTestRouter(
		&fakeAdapter{name: "adyen", available: true},
		&fakeAdapter{name: "stripe", available: true},
	)
	if err := mgr.SetDefault("stripe"); err != nil {
		t.Fatal(err)
	}
	a, err := router.Select(context.Background(), RoutingContext{Currency: "EUR"})
	if err != nil || a.Name() != "stripe" {
		t.Errorf("Select() = %v, %v; want stripe", a, err)
	}
}

func TestRouter_SelectWithFailover(t *testing.T) {
	primary := &fakeAdapter{name: "stripe", available: false}
	backup := &fakeAdapter{name: "adyen", available: true}
	router, mgr := newTestRouter(primary, backup)
	if err := mgr.SetDefault("stripe"); err != nil {
		t.Fatal(err)
	}

	a, err := router.SelectWithFailover(context.Background(), RoutingContext{})
	if err != nil {
		t.Fatalf("SelectWithFailover() error = %v", err)
	}
	if a.Name() != "adyen" {
		t.Errorf("failover chose %s, want adyen", a.Name())
	}

	backup.available = false
	if _, err := router.SelectWithFailover(context.Background(), RoutingContext{}); err == nil {
		t.Error("expected an error when every provider is down")
	}
}

func TestRouter_LookupAndHealth(t *testing.T) {
	router, _ := newTestRouter(
		&fakeAdapter{name: "stripe", available: true},
		&fakeAdapter{name: "adyen", available: false},
	)

	if _, err := router.ByName("stripe"); err != nil {
		t.Errorf("ByName(stripe) error = %v", err)
	}
	_, err := router.ByName("paypal")
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}

	health := router.HealthStatus(context.Background())
	if !health["stripe"] || health["adyen"] {
		t.Errorf("HealthStatus() = %v", health)
	}
	if all := router.All(); len(all) != 2 || all[0].Name() != "stripe" {
		t.Errorf("All() should keep registration order, got %d adapters", len(all))
	}
}

func TestRouter_FailoverFollowsRegistrationOrder(t *testing.T) {
	router, _ := newTestRouter(
		&fakeAdapter{name: "stripe", available: false},
		&fakeAdapter{name: "mollie", available: true},
		&fakeAdapter{name: "adyen", available: true},
	)

	a, err := router.SelectWithFailover(context.Background(), RoutingContext{})
	if err != nil {
		t.Fatalf("SelectWithFailover() error = %v", err)
	}
	if a.Name() != "mollie" {
		t.Errorf("failover chose %s, want mollie (next in registration order)", a.Name())
	}
}
