package sandbox

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/kbukum/pspkit/errors"
	"github.com/kbukum/pspkit/psp"
)

type customerPort struct{ a *Adapter }

func (c customerPort) CreateCustomer(ctx context.Context, req psp.CreateCustomerRequest) (*psp.CustomerResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cust := &psp.CustomerResponse{
		CustomerID: newID("cus"),
		Email:      req.CustomerInfo.Email,
		Name:       fullName(req.CustomerInfo),
		Phone:      req.CustomerInfo.Phone,
		Metadata:   maps.Clone(req.Metadata),
		CreatedAt:  a.now(),
	}
	a.customers[cust.CustomerID] = cust
	if req.PaymentMethodID != "" {
		a.attach(cust, req.PaymentMethodID, true)
	}
	return cloneCustomer(cust), nil
}

func (c customerPort) GetCustomer(ctx context.Context, customerID string) (*psp.CustomerResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cust, err := a.customer(customerID)
	if err != nil {
		return nil, err
	}
	return cloneCustomer(cust), nil
}

func (c customerPort) UpdateCustomer(ctx context.Context, req psp.UpdateCustomerRequest) (*psp.CustomerResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cust, err := a.customer(req.CustomerID)
	if err != nil {
		return nil, err
	}
	if info := req.CustomerInfo; info != nil {
		if info.Email != "" {
			cust.Email = info.Email
		}
		if name := fullName(*info); name != "" {
			cust.Name = name
		}
		if info.Phone != "" {
			cust.Phone = info.Phone
		}
	}
	if len(req.Metadata) > 0 {
		if cust.Metadata == nil {
			cust.Metadata = map[string]string{}
		}
		maps.Copy(cust.Metadata, req.Metadata)
	}
	return cloneCustomer(cust), nil
}

// DeleteCustomer removes a customer and detaches its payment methods.
func (c customerPort) DeleteCustomer(ctx context.Context, customerID string) error {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.customer(customerID); err != nil {
		return err
	}
	delete(a.customers, customerID)
	for id, pm := range a.methods {
		if pm.CustomerID == customerID {
			delete(a.methods, id)
		}
	}
	return nil
}

func (c customerPort) ListCustomers(ctx context.Context, req psp.ListCustomersRequest) ([]psp.CustomerResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []psp.CustomerResponse
	for _, cust := range a.customers {
		if req.Email != "" && !strings.EqualFold(cust.Email, req.Email) {
			continue
		}
		out = append(out, *cloneCustomer(cust))
	}
	slices.SortFunc(out, func(x, y psp.CustomerResponse) int { return y.CreatedAt.Compare(x.CreatedAt) })
	return page(out, func(c psp.CustomerResponse) string { return c.CustomerID }, req.Limit, req.StartingAfter), nil
}

// AttachPaymentMethod attaches a payment method. The sandbox accepts any
// ID and records it as a card. The first method becomes the default.
func (c customerPort) AttachPaymentMethod(ctx context.Context, req psp.AttachPaymentMethodRequest) (*psp.PaymentMethodResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cust, err := a.customer(req.CustomerID)
	if err != nil {
		return nil, err
	}
	if pm, ok := a.methods[req.PaymentMethodID]; ok && pm.CustomerID != req.CustomerID {
		return nil, errors.Conflict("payment method " + req.PaymentMethodID + " belongs to another customer").
			WithDetail("provider", a.name)
	}
	pm := a.attach(cust, req.PaymentMethodID, req.SetAsDefault)
	out := *pm
	return &out, nil
}

func (c customerPort) DetachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cust, err := a.customer(customerID)
	if err != nil {
		return err
	}
	pm, ok := a.methods[paymentMethodID]
	if !ok || pm.CustomerID != customerID {
		return errors.NotFound("payment method", paymentMethodID).WithDetail("provider", a.name)
	}
	delete(a.methods, paymentMethodID)
	if cust.DefaultPaymentMethodID == paymentMethodID {
		cust.DefaultPaymentMethodID = ""
	}
	return nil
}

func (c customerPort) ListPaymentMethods(ctx context.Context, customerID string) ([]psp.PaymentMethodResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.customer(customerID); err != nil {
		return nil, err
	}
	var out []psp.PaymentMethodResponse
	for _, pm := range a.methods {
		if pm.CustomerID == customerID {
			out = append(out, *pm)
		}
	}
	slices.SortFunc(out, func(x, y psp.PaymentMethodResponse) int { return strings.Compare(x.PaymentMethodID, y.PaymentMethodID) })
	return out, nil
}

func (c customerPort) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*psp.CustomerResponse, error) {
	a := c.a
	if err := a.enter(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cust, err := a.customer(customerID)
	if err != nil {
		return nil, err
	}
	if pm, ok := a.methods[paymentMethodID]; !ok || pm.CustomerID != customerID {
		return nil, errors.NotFound("payment method", paymentMethodID).WithDetail("provider", a.name)
	}
	cust.DefaultPaymentMethodID = paymentMethodID
	return cloneCustomer(cust), nil
}

// attach records pm for cust. Caller holds mu.
func (a *Adapter) attach(cust *psp.CustomerResponse, paymentMethodID string, setDefault bool) *psp.PaymentMethodResponse {
	pm := &psp.PaymentMethodResponse{
		PaymentMethodID: paymentMethodID,
		Type:            psp.PaymentMethodCard,
		CustomerID:      cust.CustomerID,
	}
	a.methods[paymentMethodID] = pm
	if setDefault || cust.DefaultPaymentMethodID == "" {
		cust.DefaultPaymentMethodID = paymentMethodID
	}
	return pm
}

// customer returns the stored customer. Caller holds mu.
func (a *Adapter) customer(id string) (*psp.CustomerResponse, error) {
	cust, ok := a.customers[id]
	if !ok {
		return nil, errors.NotFound("customer", id).WithDetail("provider", a.name)
	}
	return cust, nil
}

func cloneCustomer(c *psp.CustomerResponse) *psp.CustomerResponse {
	out := *c
	out.Metadata = maps.Clone(c.Metadata)
	return &out
}

func fullName(info psp.CustomerInfo) string {
	return strings.TrimSpace(info.FirstName + " " + info.LastName)
}
