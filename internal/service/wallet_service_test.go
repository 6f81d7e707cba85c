package service

import (
	"context"
	"testing"
	"time"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/internal/core/ports/mocks"
	"custodial-wallet-service/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testUserID  = "user_42"
	testAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

type walletTestDeps struct {
	svc     *WalletServiceImpl
	wallets *mocks.MockWalletRepository
	txs     *mocks.MockTransactionRepository
	keys    *mocks.MockKeyStore
	chain   *mocks.MockChainGateway
	signer  *mocks.MockTransactionSigner
	ctrl    *gomock.Controller
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		wallets: mocks.NewMockWalletRepository(ctrl),
		txs:     mocks.NewMockTransactionRepository(ctrl),
		keys:    mocks.NewMockKeyStore(ctrl),
		chain:   mocks.NewMockChainGateway(ctrl),
		signer:  mocks.NewMockTransactionSigner(ctrl),
		ctrl:    ctrl,
	}
	// No balance cache and no audit trail in unit tests.
	d.svc = NewWalletService(
		d.wallets, d.txs, d.keys, d.chain, d.signer,
		nil, nil, 10*time.Second, zerolog.Nop(),
	)
	return d
}

// ==================== CreateWallet ====================

func TestWalletService_CreateWallet_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	priv := []byte{1, 2, 3}

	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(nil, nil)
	d.keys.EXPECT().GenerateKeyPair().Return(testAddress, priv, nil)
	d.keys.EXPECT().EncryptKey(priv).Return("enc_blob", nil)
	d.wallets.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, w *domain.Wallet) error {
			assert.Equal(t, testUserID, w.UserID)
			assert.Equal(t, testAddress, w.Address)
			assert.Equal(t, "enc_blob", w.EncryptedPrivateKey)
			assert.False(t, w.CreatedAt.IsZero())
			return nil
		})
	d.chain.EXPECT().Balance(ctx, testAddress).Return(decimal.RequireFromString("1.5"), nil)

	summary, err := d.svc.CreateWallet(ctx, testUserID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, testAddress, summary.Address)
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("1.5")))
}

func TestWalletService_CreateWallet_ZeroesKeyBytes(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	priv := []byte{0xaa, 0xbb, 0xcc}

	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(nil, nil)
	d.keys.EXPECT().GenerateKeyPair().Return(testAddress, priv, nil)
	d.keys.EXPECT().EncryptKey(priv).Return("enc_blob", nil)
	d.wallets.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.chain.EXPECT().Balance(ctx, testAddress).Return(decimal.Zero, nil)

	_, err := d.svc.CreateWallet(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, priv, "plaintext key bytes wiped after encryption")
}

func TestWalletService_CreateWallet_InvalidUserID(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	for _, userID := range []string{"", "   ", "bad user", "a@b"} {
		summary, err := d.svc.CreateWallet(context.Background(), userID)
		assert.Nil(t, summary)
		require.Error(t, err, userID)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRequest))
	}
}

func TestWalletService_CreateWallet_AlreadyExists(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(&domain.Wallet{UserID: testUserID}, nil)

	summary, err := d.svc.CreateWallet(ctx, testUserID)
	assert.NoError(t, err)
	assert.Nil(t, summary, "duplicate creation is an idempotent no-op")
}

func TestWalletService_CreateWallet_LosesInsertRace(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(nil, nil)
	d.keys.EXPECT().GenerateKeyPair().Return(testAddress, []byte{1}, nil)
	d.keys.EXPECT().EncryptKey(gomock.Any()).Return("enc_blob", nil)
	// Another caller inserted between the read and the write; the unique
	// constraint is the authority.
	d.wallets.EXPECT().Create(ctx, gomock.Any()).Return(apperror.ErrDuplicateUser())

	summary, err := d.svc.CreateWallet(ctx, testUserID)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

// ==================== GetWalletInfo ====================

func TestWalletService_GetWalletInfo_Found(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	created := time.Now().UTC()
	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(&domain.Wallet{
		UserID:    testUserID,
		Address:   testAddress,
		CreatedAt: created,
	}, nil)
	d.chain.EXPECT().Balance(ctx, testAddress).Return(decimal.RequireFromString("1.5"), nil)

	summary, err := d.svc.GetWalletInfo(ctx, testUserID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, testAddress, summary.Address)
	assert.True(t, summary.Balance.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, created, summary.CreatedAt)
}

func TestWalletService_GetWalletInfo_Absent(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(nil, nil)

	summary, err := d.svc.GetWalletInfo(ctx, testUserID)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

// ==================== GetBalance ====================

func TestWalletService_GetBalance_InvalidAddress(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	// No gateway expectation: invalid addresses never reach the chain.
	balance := d.svc.GetBalance(context.Background(), "not-an-address")
	assert.True(t, balance.IsZero())
}

func TestWalletService_GetBalance_RPCFailureDegradesToZero(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.chain.EXPECT().Balance(ctx, testAddress).Return(decimal.Zero, apperror.ErrRPCFailure(assert.AnError))

	balance := d.svc.GetBalance(ctx, testAddress)
	assert.True(t, balance.IsZero())
}

func TestWalletService_GetBalance_UsesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wallets := mocks.NewMockWalletRepository(ctrl)
	txs := mocks.NewMockTransactionRepository(ctrl)
	keys := mocks.NewMockKeyStore(ctrl)
	chain := mocks.NewMockChainGateway(ctrl)
	signer := mocks.NewMockTransactionSigner(ctrl)
	cache := mocks.NewMockBalanceCache(ctrl)

	svc := NewWalletService(wallets, txs, keys, chain, signer, cache, nil, 10*time.Second, zerolog.Nop())
	ctx := context.Background()
	want := decimal.RequireFromString("2.25")

	// Miss: fall through to the chain, then populate the cache.
	cache.EXPECT().Get(ctx, testAddress).Return(nil, nil)
	chain.EXPECT().Balance(ctx, testAddress).Return(want, nil)
	cache.EXPECT().Set(ctx, testAddress, want, 10*time.Second).Return(nil)
	assert.True(t, svc.GetBalance(ctx, testAddress).Equal(want))

	// Hit: the chain is not consulted.
	cache.EXPECT().Get(ctx, testAddress).Return(&want, nil)
	assert.True(t, svc.GetBalance(ctx, testAddress).Equal(want))
}

// ==================== SendTransaction ====================

func TestWalletService_SendTransaction_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	amount := decimal.RequireFromString("0.5")
	recipient := "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	raw := []byte{0xf8, 0x6b}

	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(&domain.Wallet{
		UserID:              testUserID,
		Address:             testAddress,
		EncryptedPrivateKey: "enc_blob",
	}, nil)
	d.signer.EXPECT().BuildAndSign(ctx, "enc_blob", testAddress, recipient, amount).Return(raw, nil)
	d.chain.EXPECT().Broadcast(ctx, raw).Return("0xhash", nil)
	d.txs.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *domain.Transaction) error {
			assert.Equal(t, "0xhash", rec.TxHash)
			assert.Equal(t, testUserID, rec.UserID)
			assert.Equal(t, recipient, rec.Recipient)
			assert.True(t, rec.Amount.Equal(amount))
			assert.Equal(t, domain.TransactionStatusPending, rec.Status)
			return nil
		})

	result := d.svc.SendTransaction(ctx, testUserID, recipient, amount)
	require.NotNil(t, result)
	assert.Equal(t, domain.SendStatusSuccess, result.Status)
	assert.Equal(t, "0xhash", result.TxHash)
	assert.Empty(t, result.Message)
}

func TestWalletService_SendTransaction_InvalidInputsShortCircuit(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	// No repository, signer or gateway expectations: validation failures
	// must not touch any collaborator.
	cases := []struct {
		name      string
		userID    string
		recipient string
		amount    decimal.Decimal
	}{
		{"empty user id", "", testAddress, decimal.NewFromInt(1)},
		{"malformed recipient", testUserID, "0xnope", decimal.NewFromInt(1)},
		{"zero amount", testUserID, testAddress, decimal.Zero},
		{"negative amount", testUserID, testAddress, decimal.NewFromInt(-2)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := d.svc.SendTransaction(ctx, tc.userID, tc.recipient, tc.amount)
			require.NotNil(t, result)
			assert.Equal(t, domain.SendStatusError, result.Status)
			assert.Empty(t, result.TxHash)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestWalletService_SendTransaction_WalletNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.wallets.EXPECT().GetByUserID(ctx, "ghost").Return(nil, nil)

	result := d.svc.SendTransaction(ctx, "ghost", testAddress, decimal.NewFromInt(1))
	require.NotNil(t, result)
	assert.Equal(t, domain.SendStatusError, result.Status)
	assert.Equal(t, "Wallet not found", result.Message)
}

func TestWalletService_SendTransaction_BroadcastFailureLeavesNoRecord(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.wallets.EXPECT().GetByUserID(ctx, testUserID).Return(&domain.Wallet{
		UserID:              testUserID,
		Address:             testAddress,
		EncryptedPrivateKey: "enc_blob",
	}, nil)
	d.signer.EXPECT().BuildAndSign(ctx, "enc_blob", testAddress, testAddress, gomock.Any()).Return([]byte{1}, nil)
	d.chain.EXPECT().Broadcast(ctx, []byte{1}).Return("", apperror.ErrRPCFailure(assert.AnError))
	// No txs.Create expectation: records exist only after successful broadcast.

	result := d.svc.SendTransaction(ctx, testUserID, testAddress, decimal.NewFromInt(1))
	require.NotNil(t, result)
	assert.Equal(t, domain.SendStatusError, result.Status)
	assert.Equal(t, "Chain RPC call failed", result.Message)
}

// ==================== GetTransactionHistory ====================

func TestWalletService_GetTransactionHistory_Empty(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txs.EXPECT().ListByUserID(ctx, testUserID).Return(nil, nil)

	items, err := d.svc.GetTransactionHistory(ctx, testUserID)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestWalletService_GetTransactionHistory_InsertionOrder(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	records := []domain.Transaction{
		{TxHash: "0x01", UserID: testUserID, Amount: decimal.NewFromInt(1), Status: domain.TransactionStatusPending, CreatedAt: time.Now().UTC()},
		{TxHash: "0x02", UserID: testUserID, Amount: decimal.NewFromInt(2), Status: domain.TransactionStatusPending, CreatedAt: time.Now().UTC()},
		{TxHash: "0x03", UserID: testUserID, Amount: decimal.NewFromInt(3), Status: domain.TransactionStatusPending, CreatedAt: time.Now().UTC()},
	}
	d.txs.EXPECT().ListByUserID(ctx, testUserID).Return(records, nil)

	items, err := d.svc.GetTransactionHistory(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "0x01", items[0].TxHash)
	assert.Equal(t, "0x02", items[1].TxHash)
	assert.Equal(t, "0x03", items[2].TxHash)
	assert.NotEmpty(t, items[0].Timestamp)
}
