package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxArithmeticLength bounds short-circuit evaluation input.
const maxArithmeticLength = 100

// IsArithmeticQuery reports whether the query is a pure arithmetic
// expression: digits, operators, parentheses, decimal points and spaces,
// with at least one digit and one operator.
func IsArithmeticQuery(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" || len(q) > maxArithmeticLength {
		return false
	}
	hasDigit, hasOp := false, false
	for _, r := range q {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '%':
			hasOp = true
		case r == '(' || r == ')' || r == '.' || r == ' ':
		default:
			return false
		}
	}
	return hasDigit && hasOp
}

// EvaluateArithmetic computes the expression with standard precedence.
func EvaluateArithmetic(query string) (string, error) {
	p := &exprParser{input: strings.ReplaceAll(strings.TrimSpace(query), " ", "")}
	value, err := p.parseExpr()
	if err != nil {
		return "", err
	}
	if p.pos != len(p.input) {
		return "", fmt.Errorf("unexpected character at position %d", p.pos)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return "", fmt.Errorf("expression is not finite")
	}
	if value == math.Trunc(value) && math.Abs(value) < 1e15 {
		return strconv.FormatInt(int64(value), 10), nil
	}
	return strconv.FormatFloat(value, 'g', -1, 64), nil
}

// exprParser is a recursive-descent parser over +- / */% / parentheses.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.input) {
		op := p.input[p.pos]
		if op != '+' && op != '-' {
			break
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.input) {
		op := p.input[p.pos]
		if op != '*' && op != '/' && op != '%' {
			break
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Mod(left, right)
		}
	}
	return left, nil
}

func (p *exprParser) parseFactor() (float64, error) {
	if p.pos >= len(p.input) {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if p.input[p.pos] == '-' {
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	}
	if p.input[p.pos] == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.input) && (p.input[p.pos] == '.' || (p.input[p.pos] >= '0' && p.input[p.pos] <= '9')) {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	return strconv.ParseFloat(p.input[start:p.pos], 64)
}
