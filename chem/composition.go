package chem

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matpipe/matpipe/pkg/errors"
)

const amountTol = 1e-8

// Composition maps elements to amounts, keeping the order in which elements
// were first seen. The zero value is an empty composition. A Composition is
// immutable once built.
type Composition struct {
	symbols []string
	amounts map[string]float64
}

// NewComposition builds a composition from parallel symbol and amount slices.
// Repeated symbols are summed. Unknown symbols and non-positive amounts are
// rejected.
func NewComposition(symbols []string, amounts []float64) (Composition, error) {
	if len(symbols) != len(amounts) {
		return Composition{}, errors.NewDimensionError("NewComposition", len(symbols), len(amounts), 0)
	}
	b := newBuilder()
	for i, s := range symbols {
		if _, ok := bySymbol[s]; !ok {
			return Composition{}, errors.NewParseError(s, -1, "unknown element")
		}
		if !(amounts[i] > 0) || math.IsInf(amounts[i], 0) {
			return Composition{}, errors.NewValidationError(s, "amount must be positive and finite", amounts[i])
		}
		b.add(s, amounts[i])
	}
	return b.build(), nil
}

// Elements returns the element symbols in order of appearance.
func (c Composition) Elements() []string {
	return append([]string(nil), c.symbols...)
}

// Len returns the number of distinct elements.
func (c Composition) Len() int { return len(c.symbols) }

// Amount returns the amount of an element, 0 when absent.
func (c Composition) Amount(symbol string) float64 {
	return c.amounts[symbol]
}

// NumAtoms returns the total amount of all elements.
func (c Composition) NumAtoms() float64 {
	var n float64
	for _, s := range c.symbols {
		n += c.amounts[s]
	}
	return n
}

// Fraction returns the atomic fraction of an element.
func (c Composition) Fraction(symbol string) float64 {
	n := c.NumAtoms()
	if n == 0 {
		return 0
	}
	return c.amounts[symbol] / n
}

// Weight returns the formula weight in g/mol.
func (c Composition) Weight() float64 {
	var w float64
	for _, s := range c.symbols {
		w += bySymbol[s].AtomicMass * c.amounts[s]
	}
	return w
}

// Reduced divides all amounts by their greatest common factor when every
// amount is integral. It returns the reduced composition and the factor.
func (c Composition) Reduced() (Composition, float64) {
	if len(c.symbols) == 0 {
		return c, 1
	}
	g := 0
	for _, s := range c.symbols {
		a := c.amounts[s]
		r := math.Round(a)
		if math.Abs(a-r) > amountTol {
			return c, 1
		}
		g = gcd(g, int(r))
	}
	if g <= 1 {
		return c, 1
	}
	b := newBuilder()
	for _, s := range c.symbols {
		b.add(s, c.amounts[s]/float64(g))
	}
	return b.build(), float64(g)
}

// String renders the composition as a compact formula such as "Fe2O3".
func (c Composition) String() string {
	var sb strings.Builder
	for _, s := range c.symbols {
		sb.WriteString(s)
		a := c.amounts[s]
		if math.Abs(a-1) > amountTol {
			sb.WriteString(formatAmount(a))
		}
	}
	return sb.String()
}

// Equal reports whether two compositions have the same amounts, ignoring order.
func (c Composition) Equal(o Composition) bool {
	if len(c.symbols) != len(o.symbols) {
		return false
	}
	for _, s := range c.symbols {
		if math.Abs(c.amounts[s]-o.amounts[s]) > amountTol {
			return false
		}
	}
	return true
}

func formatAmount(a float64) string {
	if r := math.Round(a); math.Abs(a-r) <= amountTol {
		return strconv.Itoa(int(r))
	}
	return strconv.FormatFloat(a, 'g', -1, 64)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

type builder struct {
	symbols []string
	amounts map[string]float64
}

func newBuilder() *builder {
	return &builder{amounts: make(map[string]float64)}
}

func (b *builder) add(symbol string, amount float64) {
	if _, ok := b.amounts[symbol]; !ok {
		b.symbols = append(b.symbols, symbol)
	}
	b.amounts[symbol] += amount
}

func (b *builder) merge(o *builder, factor float64) {
	for _, s := range o.symbols {
		b.add(s, o.amounts[s]*factor)
	}
}

func (b *builder) build() Composition {
	return Composition{symbols: b.symbols, amounts: b.amounts}
}

// ParseFormula parses a chemical formula such as "Fe2O3", "Ca3(PO4)2" or
// "K4[Fe(CN)6]". Amounts may be decimal ("Li0.5CoO2"). Whitespace between
// tokens is ignored.
func ParseFormula(formula string) (Composition, error) {
	p := &formulaParser{s: formula}
	b, err := p.parseGroup(0)
	if err != nil {
		return Composition{}, err
	}
	if p.pos < len(p.s) {
		return Composition{}, p.fail(fmt.Sprintf("unexpected %q", p.s[p.pos]))
	}
	if len(b.symbols) == 0 {
		return Composition{}, errors.NewParseError(formula, -1, "empty formula")
	}
	return b.build(), nil
}

type formulaParser struct {
	s   string
	pos int
}

func (p *formulaParser) fail(reason string) error {
	return errors.NewParseError(p.s, p.pos, reason)
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

// parseGroup parses tokens until the closing bracket close (0 at top level).
func (p *formulaParser) parseGroup(close byte) (*builder, error) {
	b := newBuilder()
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			if close != 0 {
				return nil, p.fail(fmt.Sprintf("missing %q", close))
			}
			return b, nil
		}
		ch := p.s[p.pos]
		switch {
		case ch == close:
			return b, nil
		case ch == '(' || ch == '[':
			start := p.pos
			p.pos++
			want := byte(')')
			if ch == '[' {
				want = ']'
			}
			inner, err := p.parseGroup(want)
			if err != nil {
				return nil, err
			}
			p.pos++ // closing bracket
			if len(inner.symbols) == 0 {
				return nil, errors.NewParseError(p.s, start, "empty group")
			}
			n, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			b.merge(inner, n)
		case ch >= 'A' && ch <= 'Z':
			start := p.pos
			p.pos++
			for p.pos < len(p.s) && p.s[p.pos] >= 'a' && p.s[p.pos] <= 'z' {
				p.pos++
			}
			sym := p.s[start:p.pos]
			if _, ok := bySymbol[sym]; !ok {
				return nil, errors.NewParseError(p.s, start, fmt.Sprintf("unknown element %q", sym))
			}
			n, err := p.parseAmount()
			if err != nil {
				return nil, err
			}
			b.add(sym, n)
		default:
			return nil, p.fail(fmt.Sprintf("unexpected %q", ch))
		}
	}
}

// parseAmount reads an optional non-negative number; absent means 1.
func (p *formulaParser) parseAmount() (float64, error) {
	start := p.pos
	for p.pos < len(p.s) && (p.s[p.pos] >= '0' && p.s[p.pos] <= '9' || p.s[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 1, nil
	}
	v, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return 0, errors.NewParseError(p.s, start, "invalid amount")
	}
	if v <= 0 {
		return 0, errors.NewParseError(p.s, start, "amount must be positive")
	}
	return v, nil
}
