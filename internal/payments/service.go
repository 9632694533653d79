// Package payments integrates Stripe: contribution payment intents routed
// to the organization's Connect account, Connect onboarding, and webhook
// event intake. Settlement is asynchronous; the webhook handler only
// verifies and enqueues, the worker writes the contribution.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/velopreem/backend/config"
	"github.com/velopreem/backend/internal/datastore"
	"github.com/velopreem/backend/internal/paths"
)

var (
	// ErrNotConnected is returned when the owning organization has no Stripe
	// Connect account.
	ErrNotConnected = errors.New("organization has no connected stripe account")
	// ErrBadSignature is returned for webhook payloads that fail signature
	// verification.
	ErrBadSignature = errors.New("webhook signature verification failed")
)

// Service wraps the Stripe client.
type Service struct {
	sc     *client.API
	cfg    config.StripeConfig
	repo   *datastore.Repository
	logger *zap.Logger
}

// NewService creates the payments service.
func NewService(cfg config.StripeConfig, repo *datastore.Repository, logger *zap.Logger) *Service {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sc: sc, cfg: cfg, repo: repo, logger: logger}
}

// ContributionIntent is the client-facing result of starting a payment.
type ContributionIntent struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

// CreateContributionIntent starts a payment for a preem. The amount is in
// dollars; funds transfer to the owning organization's Connect account. The
// preem path and contributor ride in the intent metadata so the webhook can
// record the contribution without extra lookups.
func (s *Service) CreateContributionIntent(ctx context.Context, preemPath string, amount float64, message string, anonymous bool, caller datastore.Identity) (*ContributionIntent, error) {
	preemDoc, err := paths.AsDocPath(preemPath)
	if err != nil {
		return nil, err
	}
	if paths.CollectionGroup(preemDoc) != "preems" {
		return nil, fmt.Errorf("%w: %q is not a preem path", paths.ErrInvalidPath, preemPath)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("contribution amount must be positive, got %v", amount)
	}

	org, err := s.repo.GetOrganizationForPath(ctx, preemDoc)
	if err != nil {
		return nil, err
	}
	if org.Stripe == nil || org.Stripe.ConnectAccountID == "" {
		return nil, ErrNotConnected
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount * 100)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(org.Stripe.ConnectAccountID),
		},
	}
	params.Context = ctx
	params.AddMetadata("preemPath", preemDoc)
	params.AddMetadata("userId", caller.UID)
	if message != "" {
		params.AddMetadata("message", message)
	}
	if anonymous {
		params.AddMetadata("anonymous", "true")
	}

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	s.logger.Info("payment intent created",
		zap.String("payment_intent_id", pi.ID),
		zap.String("preem", preemDoc),
	)
	return &ContributionIntent{PaymentIntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ConnectOnboarding holds the redirect URL to Stripe-hosted onboarding.
type ConnectOnboarding struct {
	AccountID string `json:"accountId"`
	URL       string `json:"url"`
}

// StartConnectOnboarding creates an Express account for the organization if
// it has none and returns an onboarding link. The account id is persisted
// immediately; account state arrives later via account.updated events.
func (s *Service) StartConnectOnboarding(ctx context.Context, organizationID string, caller datastore.Identity) (*ConnectOnboarding, error) {
	org, err := s.repo.GetOrganization(ctx, "organizations/"+organizationID)
	if err != nil {
		return nil, err
	}

	accountID := ""
	if org.Stripe != nil {
		accountID = org.Stripe.ConnectAccountID
	}
	if accountID == "" {
		params := &stripe.AccountParams{
			Type: stripe.String(string(stripe.AccountTypeExpress)),
		}
		params.Context = ctx
		acct, err := s.sc.Accounts.New(params)
		if err != nil {
			return nil, fmt.Errorf("create connect account: %w", err)
		}
		accountID = acct.ID
		if err := s.repo.UpdateOrganizationStripeAccount(ctx, organizationID, accountID, nil, caller); err != nil {
			return nil, err
		}
	}

	linkParams := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(s.cfg.ConnectRefreshURL),
		ReturnURL:  stripe.String(s.cfg.ConnectReturnURL),
		Type:       stripe.String("account_onboarding"),
	}
	linkParams.Context = ctx
	link, err := s.sc.AccountLinks.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("create account link: %w", err)
	}
	s.logger.Info("connect onboarding started",
		zap.String("organization", organizationID),
		zap.String("account_id", accountID),
	)
	return &ConnectOnboarding{AccountID: accountID, URL: link.URL}, nil
}

// SyncAccount fetches the Connect account from Stripe and stores its
// current state on the owning organization.
func (s *Service) SyncAccount(ctx context.Context, organizationID, accountID string) error {
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := s.sc.Accounts.GetByID(accountID, params)
	if err != nil {
		return fmt.Errorf("retrieve account %s: %w", accountID, err)
	}
	return s.repo.UpdateOrganizationStripeAccountFromWebhook(ctx, organizationID, accountID, accountSnapshot(acct))
}

// VerifyWebhook checks the Stripe-Signature header and parses the event.
func (s *Service) VerifyWebhook(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return &event, nil
}

// ParsePaymentIntent decodes a payment_intent.* event's object.
func ParsePaymentIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &pi, nil
}

// ParseAccount decodes an account.updated event's object.
func ParseAccount(event *stripe.Event) (*stripe.Account, error) {
	var acct stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acct, nil
}

// accountSnapshot reduces a Stripe account to the fields shown in the
// organization management UI.
func accountSnapshot(acct *stripe.Account) map[string]any {
	if acct == nil {
		return nil
	}
	return map[string]any{
		"id":               acct.ID,
		"chargesEnabled":   acct.ChargesEnabled,
		"payoutsEnabled":   acct.PayoutsEnabled,
		"detailsSubmitted": acct.DetailsSubmitted,
		"country":          string(acct.Country),
		"defaultCurrency":  string(acct.DefaultCurrency),
	}
}
