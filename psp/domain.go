package psp

// PaymentStatus is the provider-independent lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusRequiresAction    PaymentStatus = "REQUIRES_ACTION"
	PaymentStatusProcessing        PaymentStatus = "PROCESSING"
	PaymentStatusSucceeded         PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusCancelled         PaymentStatus = "CANCELLED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusDisputed          PaymentStatus = "DISPUTED"
)

// IsTerminal reports whether no further transition is expected without a
// refund or dispute.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethodType identifies a family of payment instruments.
type PaymentMethodType string

const (
	PaymentMethodCard         PaymentMethodType = "CARD"
	PaymentMethodBankTransfer PaymentMethodType = "BANK_TRANSFER"
	PaymentMethodSEPADebit    PaymentMethodType = "SEPA_DEBIT"
	PaymentMethodACHDebit     PaymentMethodType = "ACH_DEBIT"
	PaymentMethodIDEAL        PaymentMethodType = "IDEAL"
	PaymentMethodBancontact   PaymentMethodType = "BANCONTACT"
	PaymentMethodGiropay      PaymentMethodType = "GIROPAY"
	PaymentMethodSofort       PaymentMethodType = "SOFORT"
	PaymentMethodEPS          PaymentMethodType = "EPS"
	PaymentMethodPrzelewy24   PaymentMethodType = "PRZELEWY24"
	PaymentMethodAlipay       PaymentMethodType = "ALIPAY"
	PaymentMethodWeChatPay    PaymentMethodType = "WECHAT_PAY"
	PaymentMethodGooglePay    PaymentMethodType = "GOOGLE_PAY"
	PaymentMethodApplePay     PaymentMethodType = "APPLE_PAY"
	PaymentMethodPayPal       PaymentMethodType = "PAYPAL"
	PaymentMethodKlarna       PaymentMethodType = "KLARNA"
	PaymentMethodAfterpay     PaymentMethodType = "AFTERPAY"
	PaymentMethodAffirm       PaymentMethodType = "AFFIRM"
	PaymentMethodWallet       PaymentMethodType = "WALLET"
	PaymentMethodCrypto       PaymentMethodType = "CRYPTO"
	PaymentMethodOther        PaymentMethodType = "OTHER"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing   SubscriptionStatus = "TRIALING"
	SubscriptionStatusActive     SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue    SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusPaused     SubscriptionStatus = "PAUSED"
	SubscriptionStatusCanceled   SubscriptionStatus = "CANCELED"
	SubscriptionStatusUnpaid     SubscriptionStatus = "UNPAID"
	SubscriptionStatusIncomplete SubscriptionStatus = "INCOMPLETE"
)

// BillingInterval is the unit of a pricing plan's billing period.
type BillingInterval string

const (
	BillingIntervalDay   BillingInterval = "DAY"
	BillingIntervalWeek  BillingInterval = "WEEK"
	BillingIntervalMonth BillingInterval = "MONTH"
	BillingIntervalYear  BillingInterval = "YEAR"
)

// CheckoutMode selects what a hosted checkout session collects.
type CheckoutMode string

const (
	CheckoutModePayment      CheckoutMode = "PAYMENT"
	CheckoutModeSubscription CheckoutMode = "SUBSCRIPTION"
	CheckoutModeSetup        CheckoutMode = "SETUP"
)

// Address is a postal address. Country is an ISO 3166-1 alpha-2 code.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// CustomerInfo describes the payer when no stored customer is referenced.
type CustomerInfo struct {
	CustomerID      string   `json:"customer_id,omitempty"`
	FirstName       string   `json:"first_name,omitempty"`
	LastName        string   `json:"last_name,omitempty"`
	Email           string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string   `json:"phone,omitempty"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
	ShippingAddress *Address `json:"shipping_address,omitempty"`
}
