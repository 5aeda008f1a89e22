package token

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"farmchain/storage"
)

var (
	ErrInvalidAmount       = errors.New("token: amount must be non-negative")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrNotMintable         = errors.New("token: token not mintable by the farm")
	ErrMintCapExceeded     = errors.New("token: mint cap exceeded")
)

var ledgerKey = []byte("token/ledger")

type balanceKey struct {
	token   [20]byte
	account [20]byte
}

type journalEntry struct {
	key      balanceKey
	balance  *big.Int
	supply   bool
	existed  bool
	prevSupp *big.Int
}

type snapshot struct {
	id  int
	pos int
}

// Ledger is a multi-token balance sheet. Tokens pulled in by the farm are held
// by the escrow account; rewards are minted into it.
type Ledger struct {
	mu       sync.Mutex
	escrow   [20]byte
	balances map[balanceKey]*big.Int
	supply   map[[20]byte]*big.Int
	mintCaps map[[20]byte]*big.Int

	// journal is only written while a snapshot is open.
	journal   []journalEntry
	snapshots []snapshot
	nextID    int
}

// NewLedger returns an empty ledger holding farm funds under escrow.
func NewLedger(escrow [20]byte) *Ledger {
	return &Ledger{
		escrow:   escrow,
		balances: make(map[balanceKey]*big.Int),
		supply:   make(map[[20]byte]*big.Int),
		mintCaps: make(map[[20]byte]*big.Int),
	}
}

// Escrow returns the account holding farm funds.
func (l *Ledger) Escrow() [20]byte { return l.escrow }

// SetMintable allows the farm to mint token up to cap. A nil cap is unlimited.
func (l *Ledger) SetMintable(token [20]byte, cap *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cap == nil {
		l.mintCaps[token] = nil
		return
	}
	l.mintCaps[token] = new(big.Int).Set(cap)
}

// BalanceOf returns the account's balance of token.
func (l *Ledger) BalanceOf(token, account [20]byte) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(balanceKey{token: token, account: account})
}

// TotalSupply returns the minted supply of token.
func (l *Ledger) TotalSupply(token [20]byte) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.supply[token]; ok {
		return new(big.Int).Set(s)
	}
	return big.NewInt(0)
}

// Mint credits amount of token to an account.
func (l *Ledger) Mint(token, to [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(balanceKey{token: token, account: to}, amount)
	l.addSupply(token, amount)
	return nil
}

// Transfer moves amount of token between two accounts.
func (l *Ledger) Transfer(token, from, to [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(token, from, to, amount)
}

// TransferIn pulls amount of token from an account into escrow.
func (l *Ledger) TransferIn(token, from [20]byte, amount *big.Int) error {
	return l.Transfer(token, from, l.escrow, amount)
}

// TransferOut pays amount of token from escrow to an account.
func (l *Ledger) TransferOut(token, to [20]byte, amount *big.Int) error {
	return l.Transfer(token, l.escrow, to, amount)
}

// MintOrReserve funds escrow with newly minted reward tokens.
func (l *Ledger) MintOrReserve(token [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cap, ok := l.mintCaps[token]
	if !ok {
		return fmt.Errorf("%w: %x", ErrNotMintable, token)
	}
	if cap != nil {
		current := big.NewInt(0)
		if s, ok := l.supply[token]; ok {
			current = s
		}
		if new(big.Int).Add(current, amount).Cmp(cap) > 0 {
			return fmt.Errorf("%w: supply %s + %s > %s", ErrMintCapExceeded, current, amount, cap)
		}
	}
	l.credit(balanceKey{token: token, account: l.escrow}, amount)
	l.addSupply(token, amount)
	return nil
}

// Snapshot opens a revertible scope and returns its id. Scopes nest.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.snapshots = append(l.snapshots, snapshot{id: id, pos: len(l.journal)})
	return id
}

// RevertToSnapshot undoes every mutation recorded since id was opened and
// closes id together with any scope nested inside it.
func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.snapshotIndex(id)
	if idx < 0 {
		return
	}
	pos := l.snapshots[idx].pos
	for i := len(l.journal) - 1; i >= pos; i-- {
		entry := l.journal[i]
		if entry.supply {
			if entry.existed {
				l.supply[entry.key.token] = entry.prevSupp
			} else {
				delete(l.supply, entry.key.token)
			}
			continue
		}
		if entry.existed {
			l.balances[entry.key] = entry.balance
		} else {
			delete(l.balances, entry.key)
		}
	}
	l.journal = l.journal[:pos]
	l.close(idx)
}

// DiscardSnapshot keeps the mutations made since id and closes it. Once the
// outermost scope closes the journal is dropped.
func (l *Ledger) DiscardSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.snapshotIndex(id); idx >= 0 {
		l.close(idx)
	}
}

func (l *Ledger) snapshotIndex(id int) int {
	for i := len(l.snapshots) - 1; i >= 0; i-- {
		if l.snapshots[i].id == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) close(idx int) {
	l.snapshots = l.snapshots[:idx]
	if len(l.snapshots) == 0 {
		l.journal = nil
	}
}

func (l *Ledger) journaling() bool { return len(l.snapshots) > 0 }

func (l *Ledger) move(token, from, to [20]byte, amount *big.Int) error {
	src := balanceKey{token: token, account: from}
	have := l.balance(src)
	if have.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, have, amount)
	}
	l.debit(src, amount)
	l.credit(balanceKey{token: token, account: to}, amount)
	return nil
}

func (l *Ledger) balance(key balanceKey) *big.Int {
	if b, ok := l.balances[key]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}

func (l *Ledger) record(key balanceKey) {
	if !l.journaling() {
		return
	}
	prev, ok := l.balances[key]
	entry := journalEntry{key: key, existed: ok}
	if ok {
		entry.balance = new(big.Int).Set(prev)
	}
	l.journal = append(l.journal, entry)
}

func (l *Ledger) credit(key balanceKey, amount *big.Int) {
	l.record(key)
	l.balances[key] = new(big.Int).Add(l.balance(key), amount)
}

func (l *Ledger) debit(key balanceKey, amount *big.Int) {
	l.record(key)
	l.balances[key] = new(big.Int).Sub(l.balance(key), amount)
}

func (l *Ledger) addSupply(token [20]byte, amount *big.Int) {
	prev, ok := l.supply[token]
	if !ok {
		prev = big.NewInt(0)
	}
	if l.journaling() {
		entry := journalEntry{key: balanceKey{token: token}, supply: true, existed: ok}
		if ok {
			entry.prevSupp = new(big.Int).Set(prev)
		}
		l.journal = append(l.journal, entry)
	}
	l.supply[token] = new(big.Int).Add(prev, amount)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// --- persistence ---

type balanceRecord struct {
	Token   [20]byte
	Account [20]byte
	Amount  *big.Int
}

type supplyRecord struct {
	Token  [20]byte
	Amount *big.Int
}

type mintRecord struct {
	Token  [20]byte
	Capped bool
	Cap    *big.Int
}

type ledgerRecord struct {
	Escrow   [20]byte
	Balances []balanceRecord
	Supply   []supplyRecord
	Mintable []mintRecord
}

// Save writes the ledger into db.
func (l *Ledger) Save(db storage.Database) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := ledgerRecord{Escrow: l.escrow}
	for key, amount := range l.balances {
		rec.Balances = append(rec.Balances, balanceRecord{Token: key.token, Account: key.account, Amount: new(big.Int).Set(amount)})
	}
	sort.Slice(rec.Balances, func(i, j int) bool {
		if c := bytes.Compare(rec.Balances[i].Token[:], rec.Balances[j].Token[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(rec.Balances[i].Account[:], rec.Balances[j].Account[:]) < 0
	})
	for token, amount := range l.supply {
		rec.Supply = append(rec.Supply, supplyRecord{Token: token, Amount: new(big.Int).Set(amount)})
	}
	sort.Slice(rec.Supply, func(i, j int) bool {
		return bytes.Compare(rec.Supply[i].Token[:], rec.Supply[j].Token[:]) < 0
	})
	for token, cap := range l.mintCaps {
		entry := mintRecord{Token: token, Cap: big.NewInt(0)}
		if cap != nil {
			entry.Capped = true
			entry.Cap = new(big.Int).Set(cap)
		}
		rec.Mintable = append(rec.Mintable, entry)
	}
	sort.Slice(rec.Mintable, func(i, j int) bool {
		return bytes.Compare(rec.Mintable[i].Token[:], rec.Mintable[j].Token[:]) < 0
	})
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("token: encode ledger: %w", err)
	}
	return db.Put(ledgerKey, encoded)
}

// LoadLedger restores a ledger from db. A missing record yields an empty
// ledger with the supplied escrow.
func LoadLedger(db storage.Database, escrow [20]byte) (*Ledger, error) {
	data, err := db.Get(ledgerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return NewLedger(escrow), nil
	}
	if err != nil {
		return nil, err
	}
	var rec ledgerRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, fmt.Errorf("token: decode ledger: %w", err)
	}
	l := NewLedger(rec.Escrow)
	for _, b := range rec.Balances {
		l.balances[balanceKey{token: b.Token, account: b.Account}] = b.Amount
	}
	for _, s := range rec.Supply {
		l.supply[s.Token] = s.Amount
	}
	for _, m := range rec.Mintable {
		if m.Capped {
			l.mintCaps[m.Token] = m.Cap
		} else {
			l.mintCaps[m.Token] = nil
		}
	}
	return l, nil
}
