package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"onchainlottery/internal/lottery"
)

// bank sentinel errors.
var (
	ErrInvalidAmount     = errorsmod.Register("bank", 1, "invalid amount")
	ErrInsufficientFunds = errorsmod.Register("bank", 2, "insufficient funds")
	ErrBalanceOverflow   = errorsmod.Register("bank", 3, "balance overflow")
	ErrBlockedRecipient  = errorsmod.Register("bank", 4, "recipient cannot receive funds")
)

type State struct {
	Height int64  `json:"height"`
	Params Params `json:"params"`

	NextLotteryID uint64                      `json:"nextLotteryId"`
	Accounts      map[string]math.Int         `json:"accounts"`
	AccountKeys   map[string][]byte           `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax      map[string]uint64           `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce, for replay protection
	Lotteries     map[uint64]*lottery.Lottery `json:"lotteries"`
}

func NewState() *State {
	return &State{
		Height:        0,
		Params:        DefaultParams(),
		NextLotteryID: 1,
		Accounts:      map[string]math.Int{},
		AccountKeys:   map[string][]byte{},
		NonceMax:      map[string]uint64{},
		Lotteries:     map[uint64]*lottery.Lottery{},
	}
}

// normalize restores empty maps and defaults after JSON decoding.
func (s *State) normalize() {
	if s.Accounts == nil {
		s.Accounts = map[string]math.Int{}
	}
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Lotteries == nil {
		s.Lotteries = map[uint64]*lottery.Lottery{}
	}
	if s.NextLotteryID == 0 {
		s.NextLotteryID = 1
	}
	if s.Params.MinStake.IsNil() {
		s.Params.MinStake = lottery.DefaultMinStake
	}
	for addr, bal := range s.Accounts {
		if bal.IsNil() {
			s.Accounts[addr] = math.ZeroInt()
		}
	}
	for _, l := range s.Lotteries {
		if l != nil {
			l.Normalize()
		}
	}
}

func decode(b []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	st.normalize()
	return &st, nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	out, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	return out, nil
}

func (s *State) AppHash() []byte {
	// encoding/json does NOT guarantee map key order, so maps are normalized
	// into sorted slices before hashing.
	type accountKV struct {
		Addr    string   `json:"addr"`
		Balance math.Int `json:"balance"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type lotteryKV struct {
		ID      uint64           `json:"id"`
		Lottery *lottery.Lottery `json:"lottery"`
	}

	accounts := make([]accountKV, 0, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts = append(accounts, accountKV{Addr: k, Balance: v})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Addr < accounts[j].Addr })

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	lotteries := make([]lotteryKV, 0, len(s.Lotteries))
	for id, l := range s.Lotteries {
		lotteries = append(lotteries, lotteryKV{ID: id, Lottery: l})
	}
	sort.Slice(lotteries, func(i, j int) bool { return lotteries[i].ID < lotteries[j].ID })

	normalized := struct {
		Height        int64          `json:"height"`
		Params        Params         `json:"params"`
		NextLotteryID uint64         `json:"nextLotteryId"`
		Accounts      []accountKV    `json:"accounts"`
		AccountKeys   []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax      []nonceKV      `json:"nonceMax,omitempty"`
		Lotteries     []lotteryKV    `json:"lotteries"`
	}{
		Height:        s.Height,
		Params:        s.Params,
		NextLotteryID: s.NextLotteryID,
		Accounts:      accounts,
		AccountKeys:   accountKeys,
		NonceMax:      nonces,
		Lotteries:     lotteries,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

func (s *State) Balance(addr string) math.Int {
	bal, ok := s.Accounts[addr]
	if !ok || bal.IsNil() {
		return math.ZeroInt()
	}
	return bal
}

func (s *State) Credit(addr string, amount math.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if s.Params.IsBlocked(addr) {
		return errorsmod.Wrapf(ErrBlockedRecipient, "%q", addr)
	}
	bal := s.Balance(addr)
	next, err := bal.SafeAdd(amount)
	if err != nil {
		return errorsmod.Wrapf(ErrBalanceOverflow, "have=%s add=%s", bal, amount)
	}
	s.Accounts[addr] = next
	return nil
}

func (s *State) Debit(addr string, amount math.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	bal := s.Balance(addr)
	if bal.LT(amount) {
		return errorsmod.Wrapf(ErrInsufficientFunds, "have=%s need=%s", bal, amount)
	}
	s.Accounts[addr] = bal.Sub(amount)
	return nil
}

func requirePositive(amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return errorsmod.Wrap(ErrInvalidAmount, "amount must be positive")
	}
	return nil
}

// ---- Lottery ----

// Lottery returns the instance with id, or ErrLotteryNotFound.
func (s *State) Lottery(id uint64) (*lottery.Lottery, error) {
	l := s.Lotteries[id]
	if l == nil {
		return nil, errorsmod.Wrapf(lottery.ErrLotteryNotFound, "id %d", id)
	}
	return l, nil
}

// CreateLottery allocates the next id and binds manager to a new instance
// using the chain's min stake.
func (s *State) CreateLottery(manager string) (*lottery.Lottery, error) {
	l, err := lottery.New(s.NextLotteryID, manager, s.Params.MinStake)
	if err != nil {
		return nil, err
	}
	s.Lotteries[l.ID] = l
	s.NextLotteryID++
	return l, nil
}

// LotteryIDs returns every instance id in ascending order.
func (s *State) LotteryIDs() []uint64 {
	ids := make([]uint64, 0, len(s.Lotteries))
	for id := range s.Lotteries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
