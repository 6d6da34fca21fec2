package state

import (
	"math/big"
	"testing"

	"presalechain/core/types"
	"presalechain/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db)
}

func TestGetAccountUnknownAddress(t *testing.T) {
	manager := newTestManager(t)

	account, err := manager.GetAccount([]byte("fresh-address-bytes-"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if account.Nonce != 0 {
		t.Fatalf("expected zero nonce, got %d", account.Nonce)
	}
	if account.BalanceNative.Sign() != 0 || account.BalanceUSDC.Sign() != 0 || account.BalanceUSDT.Sign() != 0 {
		t.Fatal("expected zero balances for unknown address")
	}
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	addr := []byte("account-address-byte")

	account := &types.Account{
		Nonce:         7,
		BalanceNative: big.NewInt(100),
		BalanceUSDC:   big.NewInt(200),
		BalanceUSDT:   nil, // nil balances persist as zero
	}
	if err := manager.PutAccount(addr, account); err != nil {
		t.Fatalf("put: %v", err)
	}

	loaded, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Nonce != 7 {
		t.Fatalf("expected nonce 7, got %d", loaded.Nonce)
	}
	if loaded.BalanceNative.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected native balance %s", loaded.BalanceNative)
	}
	if loaded.BalanceUSDC.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected usdc balance %s", loaded.BalanceUSDC)
	}
	if loaded.BalanceUSDT == nil || loaded.BalanceUSDT.Sign() != 0 {
		t.Fatalf("expected materialised zero usdt balance, got %v", loaded.BalanceUSDT)
	}
}

func TestAccountValidation(t *testing.T) {
	manager := newTestManager(t)

	if _, err := manager.GetAccount(nil); err == nil {
		t.Fatal("expected empty address rejected")
	}
	if err := manager.PutAccount([]byte("addr"), nil); err == nil {
		t.Fatal("expected nil account rejected")
	}
	if err := manager.PutAccount(nil, &types.Account{}); err == nil {
		t.Fatal("expected empty address rejected")
	}
}

type kvRecord struct {
	Name  string
	Count uint64
	Total *big.Int
}

func TestKVRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	found, err := manager.KVGet([]byte("record"), nil)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if found {
		t.Fatal("missing key reported present")
	}

	in := kvRecord{Name: "first", Count: 3, Total: big.NewInt(42)}
	if err := manager.KVPut([]byte("record"), &in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out kvRecord
	found, err = manager.KVGet([]byte("record"), &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("stored key reported missing")
	}
	if out.Name != in.Name || out.Count != in.Count || out.Total.Cmp(in.Total) != 0 {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestKVKeysAreNamespaced(t *testing.T) {
	manager := newTestManager(t)

	in := kvRecord{Name: "kv", Total: big.NewInt(1)}
	if err := manager.KVPut([]byte("shared"), &in); err != nil {
		t.Fatalf("put: %v", err)
	}

	// An account under the same raw bytes must not collide with the record.
	account, err := manager.GetAccount([]byte("shared"))
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Nonce != 0 || account.BalanceNative.Sign() != 0 {
		t.Fatal("kv record leaked into the account namespace")
	}
}

func TestBatchCommitsAllWritesAtOnce(t *testing.T) {
	manager := newTestManager(t)
	addr := []byte("batched-account-addr")

	batch := manager.NewBatch()
	if err := batch.PutAccount(addr, &types.Account{BalanceNative: big.NewInt(5)}); err != nil {
		t.Fatalf("stage account: %v", err)
	}
	record := kvRecord{Name: "staged", Total: big.NewInt(9)}
	if err := batch.KVPut([]byte("batched-record"), &record); err != nil {
		t.Fatalf("stage record: %v", err)
	}

	// Nothing lands before the commit.
	account, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.BalanceNative.Sign() != 0 {
		t.Fatal("staged account visible before commit")
	}
	found, err := manager.KVGet([]byte("batched-record"), nil)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if found {
		t.Fatal("staged record visible before commit")
	}

	if err := batch.Write(); err != nil {
		t.Fatalf("write: %v", err)
	}
	account, err = manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.BalanceNative.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected native balance %s", account.BalanceNative)
	}
	var out kvRecord
	found, err = manager.KVGet([]byte("batched-record"), &out)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !found || out.Name != "staged" || out.Total.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestBatchValidatesLikeManager(t *testing.T) {
	manager := newTestManager(t)
	batch := manager.NewBatch()

	if err := batch.PutAccount(nil, &types.Account{}); err == nil {
		t.Fatal("expected empty address rejected")
	}
	if err := batch.PutAccount([]byte("addr"), nil); err == nil {
		t.Fatal("expected nil account rejected")
	}
	if err := batch.KVPut(nil, "value"); err == nil {
		t.Fatal("expected empty key rejected")
	}
}

func TestKVRejectsEmptyKey(t *testing.T) {
	manager := newTestManager(t)
	if err := manager.KVPut(nil, "value"); err == nil {
		t.Fatal("expected empty key rejected")
	}
	if _, err := manager.KVGet(nil, nil); err == nil {
		t.Fatal("expected empty key rejected")
	}
}
