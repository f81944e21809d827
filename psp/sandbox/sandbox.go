// Package sandbox provides an in-memory payment provider. It implements the
// payment, refund, customer, checkout, subscription, provider-specific and
// reconciliation ports, keeps all state in process, and can inject latency
// and failures so resilience policies can be exercised without a real PSP.
//
// Payouts and disputes are not offered; psp.Service reports them as
// unsupported.
package sandbox

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kbukum/pspkit/logger"
	"github.com/kbukum/pspkit/provider"
	"github.com/kbukum/pspkit/psp"
)

// DefaultName is the provider name used when Options.Name is empty.
const DefaultName = "sandbox"

// Options configures an Adapter.
type Options struct {
	Name string
	// Currencies the sandbox accepts. Empty accepts all.
	Currencies []string
	// Latency is added to every call.
	Latency time.Duration
}

// Adapter is an in-memory psp.Adapter.
type Adapter struct {
	name       string
	currencies []string
	latency    time.Duration
	available  atomic.Bool
	now        func() time.Time
	log        *logger.Logger
	ops        *psp.OperationRegistry

	mu            sync.Mutex
	failures      []error
	payments      map[string]*psp.PaymentResponse
	idempotency   map[string]string
	refunds       map[string]*psp.RefundResponse
	customers     map[string]*psp.CustomerResponse
	methods       map[string]*psp.PaymentMethodResponse
	sessions      map[string]*psp.CheckoutSessionResponse
	intents       map[string]*psp.PaymentIntentResponse
	plans         map[string]*psp.PricingPlanResponse
	subscriptions map[string]*psp.SubscriptionResponse
	invoices      map[string][]psp.InvoiceResponse
	expected      map[string]expectation
}

// New creates an available sandbox adapter.
func New(opts Options) *Adapter {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	currencies := make([]string, len(opts.Currencies))
	for i, c := range opts.Currencies {
		currencies[i] = strings.ToUpper(c)
	}
	a := &Adapter{
		name:          opts.Name,
		currencies:    currencies,
		latency:       opts.Latency,
		now:           time.Now,
		log:           logger.Get("psp").WithComponent("sandbox"),
		ops:           psp.NewOperationRegistry(opts.Name),
		payments:      make(map[string]*psp.PaymentResponse),
		idempotency:   make(map[string]string),
		refunds:       make(map[string]*psp.RefundResponse),
		customers:     make(map[string]*psp.CustomerResponse),
		methods:       make(map[string]*psp.PaymentMethodResponse),
		sessions:      make(map[string]*psp.CheckoutSessionResponse),
		intents:       make(map[string]*psp.PaymentIntentResponse),
		plans:         make(map[string]*psp.PricingPlanResponse),
		subscriptions: make(map[string]*psp.SubscriptionResponse),
		invoices:      make(map[string][]psp.InvoiceResponse),
		expected:      make(map[string]expectation),
	}
	a.available.Store(true)
	a.registerOperations()
	return a
}

// Factory builds an adapter from a provider config map with the optional
// keys "name" (string), "currencies" ([]string or []any) and "latency"
// (duration string).
func Factory(cfg map[string]any) (psp.Adapter, error) {
	var opts Options
	if v, ok := cfg["name"].(string); ok {
		opts.Name = v
	}
	switch v := cfg["currencies"].(type) {
	case []string:
		opts.Currencies = v
	case []any:
		for _, c := range v {
			s, ok := c.(string)
			if !ok {
				return nil, fmt.Errorf("sandbox: currencies must be strings, got %T", c)
			}
			opts.Currencies = append(opts.Currencies, s)
		}
	case nil:
	default:
		return nil, fmt.Errorf("sandbox: currencies must be a list, got %T", v)
	}
	if v, ok := cfg["latency"].(string); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("sandbox: latency: %w", err)
		}
		opts.Latency = d
	}
	return New(opts), nil
}

// Name returns the provider name.
func (a *Adapter) Name() string { return a.name }

// IsAvailable reports the availability set with SetAvailable.
func (a *Adapter) IsAvailable(context.Context) bool { return a.available.Load() }

// SetAvailable changes what IsAvailable reports.
func (a *Adapter) SetAvailable(v bool) { a.available.Store(v) }

// SupportsCurrency implements psp.CurrencySupporter.
func (a *Adapter) SupportsCurrency(code string) bool {
	return len(a.currencies) == 0 || slices.Contains(a.currencies, strings.ToUpper(code))
}

// Health implements provider.HealthChecker. The sandbox is degraded while
// injected failures are pending.
func (a *Adapter) Health(context.Context) provider.HealthStatus {
	if !a.available.Load() {
		return provider.HealthStatus{Status: provider.StatusUnavailable, Message: "sandbox marked unavailable"}
	}
	a.mu.Lock()
	pending := len(a.failures)
	a.mu.Unlock()
	hs := provider.HealthStatus{
		Status:  provider.StatusHealthy,
		Details: map[string]any{"pending_failures": pending, "latency": a.latency.String()},
	}
	if pending > 0 {
		hs.Status = provider.StatusDegraded
		hs.Message = fmt.Sprintf("%d injected failures pending", pending)
	}
	return hs
}

// Close implements provider.Closeable. A closed sandbox reports itself
// unavailable and drops pending injected failures.
func (a *Adapter) Close(context.Context) error {
	a.available.Store(false)
	a.mu.Lock()
	a.failures = nil
	a.mu.Unlock()
	a.log.Info("sandbox closed", logger.Fields(logger.FieldProvider, a.name))
	return nil
}

// FailNext makes the next n calls, on any port, return err.
func (a *Adapter) FailNext(n int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for range n {
		a.failures = append(a.failures, err)
	}
}

// Operations returns the registry of provider-specific operations, so
// callers can register more.
func (a *Adapter) Operations() *psp.OperationRegistry { return a.ops }

func (a *Adapter) Payments() psp.PaymentPort                  { return paymentPort{a} }
func (a *Adapter) Refunds() psp.RefundPort                    { return refundPort{a} }
func (a *Adapter) Payouts() psp.PayoutPort                    { return nil }
func (a *Adapter) Customers() psp.CustomerPort                { return customerPort{a} }
func (a *Adapter) Disputes() psp.DisputePort                  { return nil }
func (a *Adapter) Subscriptions() psp.SubscriptionPort        { return subscriptionPort{a} }
func (a *Adapter) Checkout() psp.CheckoutPort                 { return checkoutPort{a} }
func (a *Adapter) ProviderSpecific() psp.ProviderSpecificPort { return a.ops }
func (a *Adapter) Reconciliation() psp.ReconciliationPort     { return reconciliationPort{a} }

// enter simulates the network round trip: it waits for the configured
// latency and returns the next injected failure, if any.
func (a *Adapter) enter(ctx context.Context) error {
	if a.latency > 0 {
		t := time.NewTimer(a.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.failures) == 0 {
		return nil
	}
	err := a.failures[0]
	a.failures = a.failures[1:]
	return err
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (a *Adapter) registerOperations() {
	a.ops.Register("balance", func(_ context.Context, _ psp.ProviderOperationRequest) (map[string]any, error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		totals := make(map[string]decimal.Decimal)
		for _, p := range a.payments {
			if p.AmountCaptured == nil {
				continue
			}
			net := p.AmountCaptured.Amount
			if p.AmountRefunded != nil {
				net = net.Sub(p.AmountRefunded.Amount)
			}
			cur := p.AmountCaptured.Currency
			totals[cur] = totals[cur].Add(net)
		}
		balances := make(map[string]string, len(totals))
		for cur, d := range totals {
			balances[cur] = d.StringFixed(2)
		}
		return map[string]any{"available": balances}, nil
	}, psp.OperationMetadata{
		Description: "Returns the captured, unrefunded balance per currency.",
		Example:     map[string]any{"available": map[string]string{"EUR": "120.00"}},
	})

	a.ops.Register("reset", func(_ context.Context, _ psp.ProviderOperationRequest) (map[string]any, error) {
		a.mu.Lock()
		defer a.mu.Unlock()
		n := len(a.payments)
		clear(a.payments)
		clear(a.idempotency)
		clear(a.refunds)
		clear(a.customers)
		clear(a.methods)
		clear(a.sessions)
		clear(a.intents)
		clear(a.plans)
		clear(a.subscriptions)
		clear(a.invoices)
		clear(a.expected)
		a.failures = nil
		return map[string]any{"payments_removed": n}, nil
	}, psp.OperationMetadata{
		Description: "Discards all sandbox state and pending injected failures.",
	})
}

// page applies limit and starting-after cursor to items ordered newest first.
func page[T any](items []T, id func(T) string, limit int, startingAfter string) []T {
	if startingAfter != "" {
		for i, it := range items {
			if id(it) == startingAfter {
				items = items[i+1:]
				break
			}
		}
	}
	if limit <= 0 {
		limit = 10
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
