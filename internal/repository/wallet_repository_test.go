package repository

import (
	"testing"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
)

func TestWalletRepositoryListEarningMismatches(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewWalletRepository(db)
	consistent := createTestProfile(t, db, constants.RoleBroadcaster, "22992000001")
	drifted := createTestProfile(t, db, constants.RoleBroadcaster, "22992000002")

	accounts := []models.WalletAccount{
		{ProfileID: consistent.ID, Currency: "XOF", Balance: mustMoney(t, "60.00"), TotalEarned: mustMoney(t, "60.00")},
		{ProfileID: drifted.ID, Currency: "XOF", Balance: mustMoney(t, "90.00"), TotalEarned: mustMoney(t, "90.00")},
	}
	for i := range accounts {
		if err := repo.CreateAccount(&accounts[i]); err != nil {
			t.Fatalf("create account failed: %v", err)
		}
	}

	now := time.Now()
	txns := []models.WalletTransaction{
		{ProfileID: consistent.ID, Type: constants.WalletTxnTypeEarning, Direction: constants.WalletTxnDirectionIn, Status: constants.WalletTxnStatusCompleted, Amount: mustMoney(t, "60.00"), Currency: "XOF", Reference: "proof:1:earning", CreatedAt: now},
		{ProfileID: drifted.ID, Type: constants.WalletTxnTypeEarning, Direction: constants.WalletTxnDirectionIn, Status: constants.WalletTxnStatusCompleted, Amount: mustMoney(t, "40.00"), Currency: "XOF", Reference: "proof:2:earning", CreatedAt: now},
		{ProfileID: drifted.ID, Type: constants.WalletTxnTypeDeposit, Direction: constants.WalletTxnDirectionIn, Status: constants.WalletTxnStatusCompleted, Amount: mustMoney(t, "50.00"), Currency: "XOF", Reference: "deposit:2:1", CreatedAt: now},
	}
	for i := range txns {
		if err := repo.CreateTransaction(&txns[i]); err != nil {
			t.Fatalf("create transaction failed: %v", err)
		}
	}

	rows, err := repo.ListEarningMismatches()
	if err != nil {
		t.Fatalf("list mismatches failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 mismatch, got %d (%+v)", len(rows), rows)
	}
	if rows[0].ProfileID != drifted.ID || rows[0].LedgerEarned != 40 || rows[0].TotalEarned != 90 {
		t.Fatalf("unexpected mismatch row: %+v", rows[0])
	}
}

func TestWalletRepositoryReferenceUnique(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewWalletRepository(db)
	profile := createTestProfile(t, db, constants.RoleBroadcaster, "22992000003")

	txn := models.WalletTransaction{
		ProfileID: profile.ID, Type: constants.WalletTxnTypeEarning, Direction: constants.WalletTxnDirectionIn,
		Status: constants.WalletTxnStatusCompleted, Amount: mustMoney(t, "10.00"), Currency: "XOF", Reference: "proof:9:earning",
	}
	if err := repo.CreateTransaction(&txn); err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	dup := txn
	dup.ID = 0
	if err := repo.CreateTransaction(&dup); err == nil {
		t.Fatalf("duplicate reference should be rejected")
	}

	found, err := repo.GetTransactionByReference(" proof:9:earning ")
	if err != nil || found == nil || found.ID != txn.ID {
		t.Fatalf("lookup by reference failed: found=%+v err=%v", found, err)
	}
}
