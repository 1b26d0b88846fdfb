package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"hbbank/models"
	"hbbank/storage"
)

// Keys the account and transaction lists are persisted under
const (
	AccountsKey     = "accounts"
	TransactionsKey = "transactions"
)

const tracerName = "hbbank/store"

// Store holds accounts and transactions in memory and writes the whole
// collection back to storage after every mutation. Persisted state is read
// once, by whichever operation runs first.
type Store struct {
	storage      storage.Storage
	accounts     []*models.Account
	transactions []models.Transaction
	loaded       bool
	now          func() time.Time
	logger       *slog.Logger
	tracer       trace.Tracer
	mutex        sync.Mutex
}

type Option func(*Store)

// WithClock replaces time.Now, mainly for tests that need to move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTracerProvider sets where store spans are sent. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) {
		s.tracer = tp.Tracer(tracerName)
	}
}

func New(backend storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage:      backend,
		accounts:     []*models.Account{},
		transactions: []models.Transaction{},
		now:          time.Now,
		logger:       slog.Default(),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount opens a new account and persists it
func (s *Store) CreateAccount(ctx context.Context, name string, accountType models.AccountType, currency string, initialBalance decimal.Decimal) (account models.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "store.CreateAccount")
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return models.Account{}, err
	}

	acc, err := models.NewAccount(name, accountType, currency, initialBalance, s.now())
	if err != nil {
		return models.Account{}, err
	}
	s.accounts = append(s.accounts, acc)
	span.SetAttributes(attribute.String("account.id", acc.ID.String()))

	if err := s.persist(ctx); err != nil {
		return *acc, err
	}
	s.logger.Info("account created", "account_id", acc.ID, "type", acc.AccountType, "currency", acc.Currency)
	return *acc, nil
}

// GetAccounts returns every account after compounding interest on savings
// accounts. The store is persisted when any balance changed.
func (s *Store) GetAccounts(ctx context.Context) (accounts []models.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "store.GetAccounts")
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	changed := false
	for _, acc := range s.accounts {
		if acc.ApplyInterest(now) {
			changed = true
		}
	}
	if changed {
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
	}

	accounts = make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accounts = append(accounts, *acc)
	}
	return accounts, nil
}

// GetAccount returns one account, compounding its interest first
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (account models.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "store.GetAccount", trace.WithAttributes(attribute.String("account.id", id.String())))
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return models.Account{}, err
	}
	acc, err := s.find(id)
	if err != nil {
		return models.Account{}, err
	}
	if acc.ApplyInterest(s.now()) {
		if err := s.persist(ctx); err != nil {
			return models.Account{}, err
		}
	}
	return *acc, nil
}

// Deposit credits the account and records a Deposit transaction
func (s *Store) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (tx models.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, "store.Deposit", trace.WithAttributes(attribute.String("account.id", id.String())))
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return models.Transaction{}, err
	}
	acc, err := s.find(id)
	if err != nil {
		return models.Transaction{}, err
	}

	now := s.now()
	accrued := acc.ApplyInterest(now)
	before := acc.Balance
	if err := acc.Deposit(amount, now); err != nil {
		return models.Transaction{}, s.rejected(ctx, accrued, err)
	}

	tx = models.NewTransaction(acc.ID, models.TransactionDeposit, amount, before, acc.Balance, now)
	s.transactions = append(s.transactions, tx)
	return tx, s.persist(ctx)
}

// Withdraw debits the account and records a Withdraw transaction
func (s *Store) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (tx models.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, "store.Withdraw", trace.WithAttributes(attribute.String("account.id", id.String())))
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return models.Transaction{}, err
	}
	acc, err := s.find(id)
	if err != nil {
		return models.Transaction{}, err
	}

	now := s.now()
	accrued := acc.ApplyInterest(now)
	before := acc.Balance
	if err := acc.Withdraw(amount, now); err != nil {
		return models.Transaction{}, s.rejected(ctx, accrued, err)
	}

	tx = models.NewTransaction(acc.ID, models.TransactionWithdraw, amount, before, acc.Balance, now)
	s.transactions = append(s.transactions, tx)
	return tx, s.persist(ctx)
}

// Transfer moves amount between two accounts. Both sides are validated before
// either balance changes. The recorded balances are those of the source.
func (s *Store) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (tx models.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, "store.Transfer", trace.WithAttributes(
		attribute.String("account.from", fromID.String()),
		attribute.String("account.to", toID.String()),
	))
	defer func() { finish(span, err) }()

	if fromID == toID {
		return models.Transaction{}, fmt.Errorf("%w: cannot transfer to the same account", models.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("%w: amount must be greater than zero", models.ErrInvalidArgument)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return models.Transaction{}, err
	}
	from, err := s.find(fromID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("source: %w", err)
	}
	to, err := s.find(toID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("destination: %w", err)
	}

	now := s.now()
	accrued := from.ApplyInterest(now)
	if to.ApplyInterest(now) {
		accrued = true
	}
	if amount.GreaterThan(from.Balance) {
		err := fmt.Errorf("%w: amount %s exceeds balance %s", models.ErrInsufficientFunds, amount, from.Balance)
		return models.Transaction{}, s.rejected(ctx, accrued, err)
	}

	before := from.Balance
	if err := from.Withdraw(amount, now); err != nil {
		return models.Transaction{}, err
	}
	if err := to.Deposit(amount, now); err != nil {
		return models.Transaction{}, err
	}

	tx = models.NewTransaction(from.ID, models.TransactionTransfer, amount, before, from.Balance, now)
	toAccountID := to.ID
	tx.ToAccountID = &toAccountID
	s.transactions = append(s.transactions, tx)
	return tx, s.persist(ctx)
}

// AddTransaction appends tx to the log and persists. A missing id or date is filled in.
func (s *Store) AddTransaction(ctx context.Context, tx models.Transaction) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.AddTransaction")
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	s.transactions = append(s.transactions, tx)
	return s.persist(ctx)
}

// GetTransactions returns the transactions where accountID is the source or
// the destination, in the order they were recorded
func (s *Store) GetTransactions(ctx context.Context, accountID uuid.UUID) (transactions []models.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, "store.GetTransactions", trace.WithAttributes(attribute.String("account.id", accountID.String())))
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	transactions = []models.Transaction{}
	for _, tx := range s.transactions {
		if tx.Involves(accountID) {
			transactions = append(transactions, tx)
		}
	}
	return transactions, nil
}

// SaveAccounts writes the current in-memory state to storage
func (s *Store) SaveAccounts(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "store.SaveAccounts")
	defer func() { finish(span, err) }()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) find(id uuid.UUID) (*models.Account, error) {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, id)
}

// ensureLoaded reads persisted state on first use. A failed read leaves the
// store unloaded so the next call tries again. Callers hold the mutex.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	var accounts []*models.Account
	var transactions []models.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := storage.GetJSON(gctx, s.storage, AccountsKey, &accounts)
		return err
	})
	g.Go(func() error {
		_, err := storage.GetJSON(gctx, s.storage, TransactionsKey, &transactions)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load bank state", "error", err)
		return fmt.Errorf("load: %w", err)
	}

	if accounts == nil {
		accounts = []*models.Account{}
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	s.accounts = accounts
	s.transactions = transactions
	s.loaded = true
	s.logger.Debug("bank state loaded", "accounts", len(accounts), "transactions", len(transactions))
	return nil
}

// rejected returns the error of a refused mutation. Interest accrued before
// the refusal is kept and saved, the same as a read would.
func (s *Store) rejected(ctx context.Context, accrued bool, err error) error {
	if !accrued {
		return err
	}
	if saveErr := s.persist(ctx); saveErr != nil {
		return errors.Join(err, saveErr)
	}
	return err
}

// persist writes both lists and returns once both writes have finished.
func (s *Store) persist(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return storage.SetJSON(gctx, s.storage, AccountsKey, s.accounts)
	})
	g.Go(func() error {
		return storage.SetJSON(gctx, s.storage, TransactionsKey, s.transactions)
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to persist bank state", "error", err)
		return fmt.Errorf("save: %w", err)
	}
	s.logger.Debug("bank state persisted", "accounts", len(s.accounts), "transactions", len(s.transactions))
	return nil
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
