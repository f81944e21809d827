// Package psp defines a provider-independent payment service provider API.
//
// A provider integration implements Adapter, which exposes up to nine ports:
// payments, refunds, payouts, customers, disputes, subscriptions, checkout,
// provider-specific operations and reconciliation. Amounts are Money values
// backed by shopspring/decimal.
//
// Service is the facade applications call. It validates each request, runs
// the provider call through a resilience.Executor under one of the operation
// tags (payment, refund, subscription, checkout, customer,
// provider_specific), traces it, and returns failures as *errors.AppError:
//
//	exec := resilience.NewExecutor(resilience.NewRegistry(cfg.Resilience, log), sink)
//	svc := psp.NewService(adapter, exec, psp.WithValidator(psp.NewPaymentValidator(cfg.SupportedCurrencies)))
//	pay, err := svc.CreatePayment(ctx, psp.CreatePaymentRequest{
//	    Amount:          psp.MustMoney("49.90", "EUR"),
//	    PaymentMethodID: "pm_card_visa",
//	})
//
// Router selects among several adapters held by a provider.Manager, and
// HealthIndicator reports an adapter together with its circuit breakers.
package psp
