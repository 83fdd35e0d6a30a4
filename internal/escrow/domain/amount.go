package domain

import (
	"fmt"
	"math/big"
)

// Amount is a monetary value in the smallest unit of the external asset
// (wei-scale). Arbitrary precision, never negative, JSON-encoded as a
// decimal string so 18-decimal values survive round trips.
type Amount struct {
	n *big.Int
}

func NewAmount(v int64) Amount {
	return Amount{n: big.NewInt(v)}
}

// ParseAmount parses a base-10 string. Negative values are rejected.
func ParseAmount(s string) (Amount, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if n.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %q", s)
	}
	return Amount{n: n}, nil
}

func (a Amount) big() *big.Int {
	if a.n == nil {
		return new(big.Int)
	}
	return a.n
}

func (a Amount) Add(b Amount) Amount {
	return Amount{n: new(big.Int).Add(a.big(), b.big())}
}

// Sub panics if the result would be negative; callers must compare first.
func (a Amount) Sub(b Amount) Amount {
	n := new(big.Int).Sub(a.big(), b.big())
	if n.Sign() < 0 {
		panic("amount underflow")
	}
	return Amount{n: n}
}

func (a Amount) Cmp(b Amount) int    { return a.big().Cmp(b.big()) }
func (a Amount) IsZero() bool        { return a.big().Sign() == 0 }
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

func (a Amount) String() string { return a.big().String() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.big().String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// SumAmounts folds a slice; used to check milestone amounts against the
// funding target at creation time.
func SumAmounts(amts []Amount) Amount {
	total := new(big.Int)
	for _, a := range amts {
		total.Add(total, a.big())
	}
	return Amount{n: total}
}
