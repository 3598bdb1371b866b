package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tutorhub/internal/user"
	"tutorhub/internal/wallet"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	args := m.Called(ctx, email, name)
	return args.String(0), args.Error(1)
}

func (m *MockClient) CreateIntent(ctx context.Context, customerID string, amountCents int64, currency string) (*PaymentIntent, error) {
	args := m.Called(ctx, customerID, amountCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentIntent), args.Error(1)
}

func (m *MockClient) GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentIntent), args.Error(1)
}

func (m *MockClient) Payout(ctx context.Context, userID int, amountUSD float64, reference string) (string, error) {
	args := m.Called(ctx, userID, amountUSD, reference)
	return args.String(0), args.Error(1)
}

type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) GetOrCreateWallet(ctx context.Context, userID int) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepo) AddTransaction(ctx context.Context, userID int, amount int64, txType string, sessionID *int, description string) error {
	args := m.Called(ctx, userID, amount, txType, sessionID, description)
	return args.Error(0)
}

func (m *MockWalletRepo) AddPurchase(ctx context.Context, userID int, tokens int64, reference, description string) error {
	args := m.Called(ctx, userID, tokens, reference, description)
	return args.Error(0)
}

func (m *MockWalletRepo) LockTokens(ctx context.Context, userID int, tokens int64) error {
	args := m.Called(ctx, userID, tokens)
	return args.Error(0)
}

func (m *MockWalletRepo) UnlockTokens(ctx context.Context, userID int, tokens int64) error {
	args := m.Called(ctx, userID, tokens)
	return args.Error(0)
}

func (m *MockWalletRepo) SettleLocked(ctx context.Context, userID int, tokens int64, description string) error {
	args := m.Called(ctx, userID, tokens, description)
	return args.Error(0)
}

func (m *MockWalletRepo) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]wallet.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.Transaction), args.Error(1)
}

func (m *MockWalletRepo) CountRefundsForSession(ctx context.Context, sessionID int) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func TestService_CreateIntent(t *testing.T) {
	t.Run("Successfully create intent", func(t *testing.T) {
		client := new(MockClient)
		walletRepo := new(MockWalletRepo)
		userRepo := new(MockUserRepo)
		svc := NewService(client, walletRepo, userRepo)

		userRepo.On("FindByID", mock.Anything, 1).
			Return(&user.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: user.RoleStudent}, nil)
		client.On("CreateCustomer", mock.Anything, "alice@example.com", "Alice").
			Return("cus_1", nil)
		client.On("CreateIntent", mock.Anything, "cus_1", int64(1000), "usd").
			Return(&PaymentIntent{ID: "pi_1", AmountCents: 1000, Status: IntentStatusPending}, nil)

		intent, err := svc.CreateIntent(context.Background(), 1, 10.0)

		require.NoError(t, err)
		assert.Equal(t, "pi_1", intent.ID)
		client.AssertExpectations(t)
	})

	t.Run("Amount rounds to nearest cent", func(t *testing.T) {
		client := new(MockClient)
		walletRepo := new(MockWalletRepo)
		userRepo := new(MockUserRepo)
		svc := NewService(client, walletRepo, userRepo)

		userRepo.On("FindByID", mock.Anything, 1).
			Return(&user.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: user.RoleStudent}, nil)
		client.On("CreateCustomer", mock.Anything, "alice@example.com", "Alice").
			Return("cus_1", nil)
		client.On("CreateIntent", mock.Anything, "cus_1", int64(1999), "usd").
			Return(&PaymentIntent{ID: "pi_1", AmountCents: 1999, Status: IntentStatusPending}, nil)

		_, err := svc.CreateIntent(context.Background(), 1, 19.99)

		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("Reject non-positive amount", func(t *testing.T) {
		client := new(MockClient)
		svc := NewService(client, new(MockWalletRepo), new(MockUserRepo))

		_, err := svc.CreateIntent(context.Background(), 1, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.CreateIntent(context.Background(), 1, -5)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		client.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ConfirmPurchase(t *testing.T) {
	t.Run("Successfully credit purchased tokens", func(t *testing.T) {
		client := new(MockClient)
		walletRepo := new(MockWalletRepo)
		userRepo := new(MockUserRepo)
		svc := NewService(client, walletRepo, userRepo)

		client.On("GetIntent", mock.Anything, "pi_1").
			Return(&PaymentIntent{ID: "pi_1", AmountCents: 1000, Status: IntentStatusSucceeded}, nil)
		userRepo.On("FindByID", mock.Anything, 1).
			Return(&user.User{ID: 1, Role: user.RoleStudent}, nil)
		walletRepo.On("AddPurchase", mock.Anything, 1, int64(100), "pi_1", "Token purchase, payment intent pi_1").
			Return(nil)

		tokens, err := svc.ConfirmPurchase(context.Background(), 1, "pi_1")

		require.NoError(t, err)
		// $10 buys 100 tokens at the student rate of $0.10/token
		assert.Equal(t, int64(100), tokens)
		walletRepo.AssertExpectations(t)
	})

	t.Run("Parent buys at the student rate", func(t *testing.T) {
		client := new(MockClient)
		walletRepo := new(MockWalletRepo)
		userRepo := new(MockUserRepo)
		svc := NewService(client, walletRepo, userRepo)

		client.On("GetIntent", mock.Anything, "pi_2").
			Return(&PaymentIntent{ID: "pi_2", AmountCents: 500, Status: IntentStatusSucceeded}, nil)
		userRepo.On("FindByID", mock.Anything, 3).
			Return(&user.User{ID: 3, Role: user.RoleParent}, nil)
		walletRepo.On("AddPurchase", mock.Anything, 3, int64(50), "pi_2", mock.Anything).
			Return(nil)

		tokens, err := svc.ConfirmPurchase(context.Background(), 3, "pi_2")

		require.NoError(t, err)
		assert.Equal(t, int64(50), tokens)
		walletRepo.AssertExpectations(t)
	})

	t.Run("Reject unsettled intent", func(t *testing.T) {
		client := new(MockClient)
		walletRepo := new(MockWalletRepo)
		userRepo := new(MockUserRepo)
		svc := NewService(client, walletRepo, userRepo)

		client.On("GetIntent", mock.Anything, "pi_3").
			Return(&PaymentIntent{ID: "pi_3", AmountCents: 1000, Status: IntentStatusPending}, nil)

		tokens, err := svc.ConfirmPurchase(context.Background(), 1, "pi_3")

		assert.ErrorIs(t, err, ErrPaymentNotSettled)
		assert.Zero(t, tokens)
		walletRepo.AssertNotCalled(t, "AddPurchase",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Replayed confirmation credits only once", func(t *testing.T) {
		client := new(MockClient)
		walletRepo := new(MockWalletRepo)
		userRepo := new(MockUserRepo)
		svc := NewService(client, walletRepo, userRepo)

		client.On("GetIntent", mock.Anything, "pi_4").
			Return(&PaymentIntent{ID: "pi_4", AmountCents: 1000, Status: IntentStatusSucceeded}, nil)
		userRepo.On("FindByID", mock.Anything, 1).
			Return(&user.User{ID: 1, Role: user.RoleStudent}, nil)
		walletRepo.On("AddPurchase", mock.Anything, 1, int64(100), "pi_4", mock.Anything).
			Return(nil).Once()
		walletRepo.On("AddPurchase", mock.Anything, 1, int64(100), "pi_4", mock.Anything).
			Return(wallet.ErrDuplicateReference)

		tokens, err := svc.ConfirmPurchase(context.Background(), 1, "pi_4")
		require.NoError(t, err)
		assert.Equal(t, int64(100), tokens)

		// the replay reports the same token count without a second credit
		tokens, err = svc.ConfirmPurchase(context.Background(), 1, "pi_4")
		require.NoError(t, err)
		assert.Equal(t, int64(100), tokens)

		walletRepo.AssertNumberOfCalls(t, "AddPurchase", 2)
	})

	t.Run("Unknown intent", func(t *testing.T) {
		client := new(MockClient)
		svc := NewService(client, new(MockWalletRepo), new(MockUserRepo))

		client.On("GetIntent", mock.Anything, "pi_missing").
			Return(nil, ErrIntentNotFound)

		tokens, err := svc.ConfirmPurchase(context.Background(), 1, "pi_missing")

		assert.ErrorIs(t, err, ErrIntentNotFound)
		assert.Zero(t, tokens)
	})
}
