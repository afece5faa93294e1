package state

import (
	"encoding/json"
	"fmt"
	"sort"

	"cosmossdk.io/math"

	"onchainlottery/internal/lottery"
)

type Params struct {
	// MinStake is bound into every lottery at creation.
	MinStake math.Int `json:"minStake"`

	// BlockedAddrs can hold and spend funds but never receive them. Paying a
	// lottery pool to one of these fails the draw.
	BlockedAddrs []string `json:"blockedAddrs,omitempty"`
}

func DefaultParams() Params {
	return Params{
		MinStake: lottery.DefaultMinStake,
	}
}

func (p Params) Validate() error {
	if p.MinStake.IsNil() || !p.MinStake.IsPositive() {
		return fmt.Errorf("minStake must be > 0")
	}
	seen := make(map[string]bool, len(p.BlockedAddrs))
	for _, a := range p.BlockedAddrs {
		if a == "" {
			return fmt.Errorf("blockedAddrs contains empty address")
		}
		if seen[a] {
			return fmt.Errorf("duplicate blocked address %q", a)
		}
		seen[a] = true
	}
	return nil
}

func (p Params) IsBlocked(addr string) bool {
	for _, a := range p.BlockedAddrs {
		if a == addr {
			return true
		}
	}
	return false
}

type GenesisAccount struct {
	Addr    string   `json:"addr"`
	Balance math.Int `json:"balance"`
}

// Genesis is the app_state carried in the CometBFT genesis file.
type Genesis struct {
	Params   Params           `json:"params"`
	Accounts []GenesisAccount `json:"accounts,omitempty"`
}

func DefaultGenesis() *Genesis {
	return &Genesis{Params: DefaultParams()}
}

// ParseGenesis decodes app_state. Empty input yields DefaultGenesis.
func ParseGenesis(b []byte) (*Genesis, error) {
	if len(b) == 0 || string(b) == "null" {
		return DefaultGenesis(), nil
	}
	g := DefaultGenesis()
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	if g.Params.MinStake.IsNil() {
		g.Params.MinStake = lottery.DefaultMinStake
	}
	return g, nil
}

func (g *Genesis) Validate() error {
	if g == nil {
		return fmt.Errorf("genesis state is nil")
	}
	if err := g.Params.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(g.Accounts))
	for _, a := range g.Accounts {
		if a.Addr == "" {
			return fmt.Errorf("genesis account missing addr")
		}
		if seen[a.Addr] {
			return fmt.Errorf("duplicate genesis account %q", a.Addr)
		}
		seen[a.Addr] = true
		if a.Balance.IsNil() || a.Balance.IsNegative() {
			return fmt.Errorf("genesis account %q has invalid balance", a.Addr)
		}
	}
	return nil
}

// Apply seeds s from g. Genesis balances bypass Credit, so blocked addresses
// can be funded here.
func (g *Genesis) Apply(s *State) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.Params = g.Params
	for _, a := range g.Accounts {
		s.Accounts[a.Addr] = a.Balance
	}
	return nil
}

// Export returns the genesis that reproduces the bank and params of s.
func (s *State) Export() *Genesis {
	g := &Genesis{Params: s.Params}
	for addr, bal := range s.Accounts {
		g.Accounts = append(g.Accounts, GenesisAccount{Addr: addr, Balance: bal})
	}
	sort.Slice(g.Accounts, func(i, j int) bool { return g.Accounts[i].Addr < g.Accounts[j].Addr })
	return g
}
