package qasm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var unaryFuncs = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"ln":   math.Log,
	"sqrt": math.Sqrt,
}

// Eval evaluates a parameter expression: numbers, pi, + - * / ^, unary
// signs, parentheses and the unary functions sin, cos, tan, exp, ln and
// sqrt.
func Eval(expr string) (float64, error) {
	p := &exprParser{src: strings.TrimSpace(expr)}
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	p.skip()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("expression %q: unexpected %q", expr, p.src[p.pos:])
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skip() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skip()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) sum() (float64, error) {
	v, err := p.product()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.product()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.product()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) product() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, fmt.Errorf("division by zero in %q", p.src)
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.power()
}

// power is right associative and binds tighter than unary minus on its
// left operand only, so -2^2 is -4.
func (p *exprParser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.unary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing ) in %q", p.src)
		}
		p.pos++
		return v, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case unicode.IsLetter(rune(c)):
		name := p.ident()
		if name == "pi" {
			return math.Pi, nil
		}
		f, ok := unaryFuncs[name]
		if !ok {
			return 0, fmt.Errorf("unknown identifier %q", name)
		}
		if p.peek() != '(' {
			return 0, fmt.Errorf("%s needs an argument", name)
		}
		arg, err := p.primary()
		if err != nil {
			return 0, err
		}
		return f(arg), nil
	case c == 0:
		return 0, fmt.Errorf("unexpected end of %q", p.src)
	}
	return 0, fmt.Errorf("unexpected %q in %q", c, p.src)
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		isExp := (c == 'e' || c == 'E') && p.pos > start
		isSign := (c == '+' || c == '-') && p.pos > start && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E')
		if !(c == '.' || (c >= '0' && c <= '9') || isExp || isSign) {
			break
		}
		p.pos++
	}
	return strconv.ParseFloat(p.src[start:p.pos], 64)
}

func (p *exprParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}
