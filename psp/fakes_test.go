package psp

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/pspkit/resilience"
)

// fakeAdapter returns whatever ports are set. Unset ports are nil.
type fakeAdapter struct {
	name          string
	available     bool
	payments      PaymentPort
	refunds       RefundPort
	customers     CustomerPort
	subscriptions SubscriptionPort
	checkout      CheckoutPort
	ops           ProviderSpecificPort
}

func (f *fakeAdapter) Name() string                           { return f.name }
func (f *fakeAdapter) IsAvailable(context.Context) bool       { return f.available }
func (f *fakeAdapter) Payments() PaymentPort                  { return f.payments }
func (f *fakeAdapter) Refunds() RefundPort                    { return f.refunds }
func (f *fakeAdapter) Payouts() PayoutPort                    { return nil }
func (f *fakeAdapter) Customers() CustomerPort                { return f.customers }
func (f *fakeAdapter) Disputes() DisputePort                  { return nil }
func (f *fakeAdapter) Subscriptions() SubscriptionPort        { return f.subscriptions }
func (f *fakeAdapter) Checkout() CheckoutPort                 { return f.checkout }
func (f *fakeAdapter) ProviderSpecific() ProviderSpecificPort { return f.ops }
func (f *fakeAdapter) Reconciliation() ReconciliationPort     { return nil }

// currencyAdapter limits a fakeAdapter to some currencies.
type currencyAdapter struct {
	*fakeAdapter
	currencies []string
}

func (c *currencyAdapter) SupportsCurrency(code string) bool {
	for _, cur := range c.currencies {
		if cur == code {
			return true
		}
	}
	return false
}

// fakePayments embeds PaymentPort so that only the methods a test sets need
// an implementation.
type fakePayments struct {
	PaymentPort

	mu     sync.Mutex
	keys   []string
	create func(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error)
	get    func(ctx context.Context, id string) (*PaymentResponse, error)
}

func (f *fakePayments) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	f.mu.Lock()
	f.keys = append(f.keys, req.IdempotencyKey)
	f.mu.Unlock()
	return f.create(ctx, req)
}

func (f *fakePayments) GetPayment(ctx context.Context, id string) (*PaymentResponse, error) {
	return f.get(ctx, id)
}

func (f *fakePayments) idempotencyKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// testResilience returns a policy config with short waits.
func testResilience() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.Retry.WaitDuration = time.Millisecond
	cfg.Retry.ExponentialMaxWaitDuration = 5 * time.Millisecond
	cfg.TimeLimiter.TimeoutDuration = time.Second
	return cfg
}

func newTestService(adapter Adapter, cfg resilience.Config) (*Service, *resilience.MemorySink, *resilience.Registry) {
	reg := resilience.NewRegistry(cfg, nil)
	sink := resilience.NewMemorySink()
	return NewService(adapter, resilience.NewExecutor(reg, sink)), sink, reg
}

func validPayment() CreatePaymentRequest {
	return CreatePaymentRequest{
		Amount:          MustMoney("49.90", "EUR"),
		PaymentMethodID: "pm_card_visa",
	}
}
