package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"custodial-wallet-service/internal/core/domain"
	"custodial-wallet-service/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet() *domain.Wallet {
	return &domain.Wallet{
		UserID:              "user_42",
		Address:             "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		EncryptedPrivateKey: "aes_gcm_encrypted_key_blob",
		CreatedAt:           time.Now().UTC().Truncate(time.Microsecond),
	}
}

func walletColumns() []string {
	return []string{"user_id", "address", "encrypted_private_key", "created_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletColumns()).AddRow(
		w.UserID, w.Address, w.EncryptedPrivateKey, w.CreatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.UserID, w.Address, w.EncryptedPrivateKey, w.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_DuplicateUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.UserID, w.Address, w.EncryptedPrivateKey, w.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: walletUserConstraint})

	err = repo.Create(context.Background(), w)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateUser))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_DuplicateAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.UserID, w.Address, w.EncryptedPrivateKey, w.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: walletAddressConstraint})

	err = repo.Create(context.Background(), w)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateAddress))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_OtherErrorIsStorageFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.UserID, w.Address, w.EncryptedPrivateKey, w.CreatedAt).
		WillReturnError(errors.New("connection reset"))

	err = repo.Create(context.Background(), w)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStorageFailure))
}

func TestWalletRepo_GetByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs(w.UserID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByUserID(context.Background(), w.UserID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.Address, result.Address)
	assert.Equal(t, w.EncryptedPrivateKey, result.EncryptedPrivateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByUserID_Absent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByUserID(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, result)
}
