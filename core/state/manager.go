package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"presalechain/core/types"
	"presalechain/storage"
)

// Manager provides typed access to ledger state stored in the key-value
// database. Keys are hashed with keccak256 before hitting the backend and all
// values are RLP encoded.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	accountPrefix = []byte("account:")
	kvPrefix      = []byte("kv:")
)

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

func kvKey(key []byte) []byte {
	buf := make([]byte, len(kvPrefix)+len(key))
	copy(buf, kvPrefix)
	copy(buf[len(kvPrefix):], key)
	return ethcrypto.Keccak256(buf)
}

type storedAccount struct {
	Nonce         uint64
	BalanceNative *big.Int
	BalanceUSDC   *big.Int
	BalanceUSDT   *big.Int
}

// GetAccount loads the account stored under the supplied address. Unknown
// addresses resolve to a fresh account with zero balances.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, errors.New("state: manager not initialised")
	}
	if len(addr) == 0 {
		return nil, errors.New("state: address must not be empty")
	}
	key := accountKey(addr)
	ok, err := m.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{
			BalanceNative: big.NewInt(0),
			BalanceUSDC:   big.NewInt(0),
			BalanceUSDT:   big.NewInt(0),
		}, nil
	}
	data, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	account := &types.Account{
		Nonce:         stored.Nonce,
		BalanceNative: stored.BalanceNative,
		BalanceUSDC:   stored.BalanceUSDC,
		BalanceUSDT:   stored.BalanceUSDT,
	}
	if account.BalanceNative == nil {
		account.BalanceNative = big.NewInt(0)
	}
	if account.BalanceUSDC == nil {
		account.BalanceUSDC = big.NewInt(0)
	}
	if account.BalanceUSDT == nil {
		account.BalanceUSDT = big.NewInt(0)
	}
	return account, nil
}

// PutAccount persists the supplied account under the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	if len(addr) == 0 {
		return errors.New("state: address must not be empty")
	}
	if account == nil {
		return errors.New("state: nil account")
	}
	encoded, err := encodeAccount(account)
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), encoded)
}

func encodeAccount(account *types.Account) ([]byte, error) {
	stored := storedAccount{
		Nonce:         account.Nonce,
		BalanceNative: account.BalanceNative,
		BalanceUSDC:   account.BalanceUSDC,
		BalanceUSDT:   account.BalanceUSDT,
	}
	if stored.BalanceNative == nil {
		stored.BalanceNative = big.NewInt(0)
	}
	if stored.BalanceUSDC == nil {
		stored.BalanceUSDC = big.NewInt(0)
	}
	if stored.BalanceUSDT == nil {
		stored.BalanceUSDT = big.NewInt(0)
	}
	return rlp.EncodeToBytes(stored)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is automatically hashed with keccak256 before insertion.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errors.New("state: manager not initialised")
	}
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	hashed := kvKey(key)
	ok, err := m.db.Has(hashed)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	data, err := m.db.Get(hashed)
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// BatchWriter stages typed writes against the manager's backend. Nothing is
// visible to readers until Write commits the whole set at once.
type BatchWriter interface {
	PutAccount(addr []byte, account *types.Account) error
	KVPut(key []byte, value interface{}) error
	Write() error
}

// NewBatch starts an empty staged write set. Callers stage any mix of account
// and record writes and commit them with a single Write call.
func (m *Manager) NewBatch() BatchWriter {
	if m == nil || m.db == nil {
		return nil
	}
	return &managerBatch{batch: m.db.NewBatch()}
}

type managerBatch struct {
	batch storage.Batch
}

func (b *managerBatch) PutAccount(addr []byte, account *types.Account) error {
	if len(addr) == 0 {
		return errors.New("state: address must not be empty")
	}
	if account == nil {
		return errors.New("state: nil account")
	}
	encoded, err := encodeAccount(account)
	if err != nil {
		return err
	}
	b.batch.Put(accountKey(addr), encoded)
	return nil
}

func (b *managerBatch) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	b.batch.Put(kvKey(key), encoded)
	return nil
}

func (b *managerBatch) Write() error {
	return b.batch.Write()
}
