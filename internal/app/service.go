/**
 * @description
 * This file contains the core business logic for the payments-service. The
 * `Service` struct orchestrates all money movement: peer-to-peer transfers with
 * tiered fees and the lifetime free-transfer quota, mock on-ramp top-ups, mock
 * off-ramp withdrawals, and the account lifecycle (registration and login).
 *
 * Key features:
 * - Transfers validate, classify through the fee engine, then hand the whole
 *   mutation (debit, credit, quota increment, paired journal records) to one
 *   atomic repository operation, so a failure at any step mutates nothing.
 * - Collaborators (wallet provisioning, token issuance, event publishing, rate
 *   limiting) are injected interfaces so the core stays testable with fakes.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - github.com/shopspring/decimal: Exact currency conversion arithmetic.
 * - golang.org/x/crypto/bcrypt: Credential hashing.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paylink/payments-service/internal/domain"
	"github.com/paylink/payments-service/internal/store"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	// SystemIdentity is the counterparty recorded on top-up and withdrawal
	// journal records.
	SystemIdentity = "system@paylink.com"

	systemTopUpWallet    = "system"
	systemWithdrawWallet = "bank_transfer"

	adminEmail   = "admin@paylink.com"
	premiumEmail = "premium@paylink.com"

	bcryptCost = 12
)

var (
	ErrInvalidAmount       = errors.New("amount must be a positive number of minor units")
	ErrInvalidRecipient    = errors.New("recipient email is required")
	ErrSelfTransfer        = errors.New("cannot send payment to yourself")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidRegistration = errors.New("name, email and password are required")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTooManyTransfers    = errors.New("too many transfer attempts, slow down")
)

// WalletProvisioner generates a wallet address/key pair for a new account.
// Called exactly once, at account creation.
type WalletProvisioner interface {
	Generate(seed string) (address string, privateKey string)
}

// TokenIssuer mints a credential the identity gateway can later verify.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, email string) (string, error)
}

// EventPublisher publishes payment events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// RateLimiter enforces a fixed-window limit per scope/subject pair.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// OpeningBalances are the demo starting balances assigned at registration,
// in stablecoin cents.
type OpeningBalances struct {
	Default int64
	Premium int64
	Admin   int64
}

// ServiceConfig carries the tunables the ledger needs beyond its collaborators.
type ServiceConfig struct {
	FreeTransferLimit          int
	INRPerUSD                  float64
	INRTopUpRate               float64 // stablecoin cents credited per paise
	WalletSeedSecret           string
	TransferRateLimitPerMinute int
	OpeningBalances            OpeningBalances
}

// TransferOutcome is returned to the API layer after a committed transfer.
type TransferOutcome struct {
	TxHash     string
	NewBalance int64
	Fee        int64
	InvoiceID  *string
	Replayed   bool
}

// RampOutcome is returned after a committed top-up or withdrawal.
type RampOutcome struct {
	NewBalance  int64
	MovedAmount int64 // credited stablecoin cents (top-up) or local minor units (withdrawal)
	Currency    domain.Currency
}

// Service provides the core business logic for the payments ledger.
type Service struct {
	repo        store.Repository
	fees        *FeeEngine
	wallets     WalletProvisioner
	tokens      TokenIssuer
	events      EventPublisher
	rateLimiter RateLimiter
	cfg         ServiceConfig
}

// NewService creates a new ledger service instance. The event publisher may be
// nil; publishing then becomes a no-op.
func NewService(repo store.Repository, fees *FeeEngine, wallets WalletProvisioner, tokens TokenIssuer, events EventPublisher, cfg ServiceConfig) *Service {
	if cfg.FreeTransferLimit <= 0 {
		cfg.FreeTransferLimit = 5
	}
	return &Service{
		repo:    repo,
		fees:    fees,
		wallets: wallets,
		tokens:  tokens,
		events:  events,
		cfg:     cfg,
	}
}

// SetTransferRateLimiter wires an optional distributed rate limiter for the
// transfer endpoint.
func (s *Service) SetTransferRateLimiter(limiter RateLimiter) {
	s.rateLimiter = limiter
}

// Register provisions a wallet, hashes the credential, and creates the
// account with its demo opening balance. Returns the account and a signed
// token for the new identity.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, string, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, "", ErrInvalidRegistration
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidEmail
	}
	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country != "IN" {
		country = "US"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash credential: %w", err)
	}

	// Seed mixes the identity, creation instant, and a server-side secret so
	// two registrations never derive the same pair.
	seed := fmt.Sprintf("%s_%d_%s", email, time.Now().UnixNano(), s.cfg.WalletSeedSecret)
	address, privateKey := s.wallets.Generate(seed)

	account := &domain.Account{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		CredentialHash: string(hash),
		WalletAddress:  address,
		PrivateKey:     privateKey,
		Balance:        s.openingBalanceFor(email),
		Country:        country,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		account.Phone = &phone
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return account, token, nil
}

func (s *Service) openingBalanceFor(email string) int64 {
	switch email {
	case adminEmail:
		return s.cfg.OpeningBalances.Admin
	case premiumEmail:
		return s.cfg.OpeningBalances.Premium
	default:
		return s.cfg.OpeningBalances.Default
	}
}

// Login verifies a credential against the stored hash and issues a token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error) {
	account, err := s.repo.FindAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return account, token, nil
}

// GetAccount returns an account by id, for the profile endpoint and the
// identity gateway.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, id)
}

// Transfer moves value from the sender to the recipient identity. It
// validates input, quotes the fee tier, then applies the debit, credit, quota
// increment, and paired journal records as one atomic unit.
func (s *Service) Transfer(ctx context.Context, senderID uuid.UUID, req domain.SendPaymentRequest) (*TransferOutcome, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	recipientEmail := strings.ToLower(strings.TrimSpace(req.RecipientEmail))
	if recipientEmail == "" {
		return nil, ErrInvalidRecipient
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, ErrUnsupportedCurrency
	}

	if err := s.consumeTransferRateLimit(ctx, senderID); err != nil {
		return nil, err
	}

	sender, err := s.repo.FindAccountByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sender: %w", err)
	}
	if strings.EqualFold(sender.Email, recipientEmail) {
		return nil, ErrSelfTransfer
	}

	quote, err := s.fees.ComputeFee(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	params := store.TransferParams{
		SenderID:       senderID,
		RecipientEmail: recipientEmail,
		Amount:         req.Amount,
		Fee:            quote.Fee,
		Currency:       currency,
		FreeTier:       quote.Tier == domain.TierFree,
		FreeTierLimit:  s.cfg.FreeTransferLimit,
		SettlementRef:  NewSettlementReference(),
	}
	if quote.InvoiceRequired {
		invoiceID := NewInvoiceID()
		params.InvoiceID = &invoiceID
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.IdempotencyKey = &key
	}

	result, err := s.repo.ExecuteTransfer(ctx, params)
	if err != nil {
		return nil, err
	}

	record := result.SenderRecord
	if result.Replayed {
		log.Printf("level=info component=ledger op=transfer outcome=replayed sender_id=%s settlement_ref=%s", senderID, record.SettlementReference)
	} else {
		log.Printf("level=info component=ledger op=transfer outcome=completed sender_id=%s recipient=%s amount=%d fee=%d tier=%s currency=%s",
			senderID, recipientEmail, record.Amount, record.Fee, quote.Tier, currency)
		s.publish(ctx, "payment.completed", record)
	}

	return &TransferOutcome{
		TxHash:     record.SettlementReference,
		NewBalance: result.NewSenderBalance,
		Fee:        record.Fee,
		InvoiceID:  record.InvoiceID,
		Replayed:   result.Replayed,
	}, nil
}

func (s *Service) consumeTransferRateLimit(ctx context.Context, senderID uuid.UUID) error {
	limit := s.cfg.TransferRateLimitPerMinute
	if s.rateLimiter == nil || limit <= 0 {
		return nil
	}
	count, _, err := s.rateLimiter.ConsumeRateLimit(ctx, "payments:send", senderID.String(), limit, time.Minute)
	if err != nil {
		// The limiter is protective, not authoritative; a broken limiter must
		// not block payments.
		log.Printf("level=warn component=ledger msg=\"rate limiter unavailable\" err=%v", err)
		return nil
	}
	if count > limit {
		return ErrTooManyTransfers
	}
	return nil
}

// TopUp credits the account with the request amount converted to stablecoin
// cents at the fixed per-currency on-ramp rate, and journals one `topup`
// record from the system identity. The tiered fee engine does not apply.
func (s *Service) TopUp(ctx context.Context, accountID uuid.UUID, req domain.TopUpRequest) (*RampOutcome, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, ErrUnsupportedCurrency
	}

	credited := req.Amount
	if currency == domain.CurrencyINR {
		credited = roundToMinorUnit(decimal.NewFromInt(req.Amount).Mul(decimal.NewFromFloat(s.cfg.INRTopUpRate)))
	}
	if credited <= 0 {
		return nil, ErrInvalidAmount
	}

	result, err := s.repo.ApplySingleSided(ctx, store.JournalEntryParams{
		AccountID:     accountID,
		Kind:          domain.KindTopUp,
		BalanceDelta:  credited,
		JournalAmount: credited,
		Currency:      currency,
		SettlementRef: NewSettlementReference(),
		SystemWallet:  systemTopUpWallet,
		SystemEmail:   SystemIdentity,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger op=topup outcome=completed account_id=%s credited=%d currency=%s", accountID, credited, currency)
	s.publish(ctx, "wallet.topup.completed", result.Record)

	return &RampOutcome{NewBalance: result.NewBalance, MovedAmount: credited, Currency: currency}, nil
}

// Withdraw debits the account and journals one `withdrawal` record to the
// system identity. The reported local amount converts the debited stablecoin
// cents at the fixed rate, for display only.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, req domain.WithdrawRequest) (*RampOutcome, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, ErrUnsupportedCurrency
	}

	result, err := s.repo.ApplySingleSided(ctx, store.JournalEntryParams{
		AccountID:     accountID,
		Kind:          domain.KindWithdrawal,
		BalanceDelta:  -req.Amount,
		JournalAmount: req.Amount,
		Currency:      currency,
		SettlementRef: NewSettlementReference(),
		SystemWallet:  systemWithdrawWallet,
		SystemEmail:   SystemIdentity,
	})
	if err != nil {
		return nil, err
	}

	localAmount := req.Amount
	if currency == domain.CurrencyINR {
		localAmount = roundToMinorUnit(decimal.NewFromInt(req.Amount).Mul(decimal.NewFromFloat(s.cfg.INRPerUSD)))
	}

	log.Printf("level=info component=ledger op=withdraw outcome=completed account_id=%s amount=%d currency=%s", accountID, req.Amount, currency)
	s.publish(ctx, "wallet.withdrawal.completed", result.Record)

	return &RampOutcome{NewBalance: result.NewBalance, MovedAmount: localAmount, Currency: currency}, nil
}

// Balance returns the account's current balance and wallet address.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (*domain.BalanceView, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceView{Balance: account.Balance, WalletAddress: account.WalletAddress}, nil
}

// History returns the caller's journal records, newest first, each carrying
// its own perspective kind.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactionsForIdentity(ctx, account.Email)
}

func (s *Service) publish(ctx context.Context, routingKey string, record *domain.Transaction) {
	if s.events == nil {
		return
	}
	event := domain.PaymentEvent{
		TransactionID:       record.ID,
		Kind:                record.Kind,
		FromIdentity:        record.FromIdentity,
		ToIdentity:          record.ToIdentity,
		Amount:              record.Amount,
		Fee:                 record.Fee,
		Currency:            record.Currency,
		SettlementReference: record.SettlementReference,
		Timestamp:           record.CreatedAt,
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		log.Printf("level=warn component=ledger msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
