// Package signal parses chat lines of the form
//
//	<BUY|SELL> <LIMIT|STOP|MARKET> <SYMBOL> <VOLUME> <ENTRY> <SL> <TP>
//
// into trade intents. The match is anchored at the start of the line and
// anything after the take-profit number is ignored.
package signal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"signalrelay/internal/core"
)

const number = `\d*\.?\d+`

var (
	grammar = regexp.MustCompile(`^(BUY|SELL) (LIMIT|STOP|MARKET) (\w+) (` + number + `) (` + number + `) (` + number + `) (` + number + `)`)

	directionTok = regexp.MustCompile(`^(BUY|SELL)$`)
	kindTok      = regexp.MustCompile(`^(LIMIT|STOP|MARKET)$`)
	symbolTok    = regexp.MustCompile(`^\w+$`)
	numberTok    = regexp.MustCompile(`^` + number + `$`)
	lastTok      = regexp.MustCompile(`^` + number)
)

type field struct {
	name  string
	check *regexp.Regexp
}

var fields = []field{
	{"direction", directionTok},
	{"kind", kindTok},
	{"symbol", symbolTok},
	{"volume", numberTok},
	{"entry", numberTok},
	{"sl", numberTok},
	{"tp", lastTok},
}

// Parse returns the intent for line, or a PARSE_ERROR naming the first field
// that does not fit the grammar.
func Parse(line string) (core.TradeIntent, error) {
	m := grammar.FindStringSubmatch(line)
	if m == nil {
		return core.TradeIntent{}, diagnose(line)
	}
	var nums [4]decimal.Decimal
	for i, raw := range m[4:8] {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return core.TradeIntent{}, noMatch(fields[3+i].name, raw, "not a decimal")
		}
		nums[i] = d
	}
	return core.TradeIntent{
		Direction:  core.Direction(m[1]),
		Kind:       core.OrderKind(m[2]),
		Symbol:     m[3],
		Volume:     nums[0],
		EntryPrice: nums[1],
		StopLoss:   nums[2],
		TakeProfit: nums[3],
	}, nil
}

// IsNoMatch reports whether err came from a line outside the grammar.
func IsNoMatch(err error) bool { return core.IsCode(err, core.ErrParse) }

// diagnose walks the space separated tokens to find where line leaves the
// grammar. It only runs after the regexp rejected the line.
func diagnose(line string) error {
	toks := strings.Split(line, " ")
	for i, f := range fields {
		if i >= len(toks) {
			return noMatch(f.name, "", "missing")
		}
		tok := toks[i]
		if tok == "" {
			return noMatch(f.name, tok, "unexpected whitespace")
		}
		if !f.check.MatchString(tok) {
			return noMatch(f.name, tok, "unexpected token")
		}
	}
	return core.NewError(core.ErrParse, "line does not match signal grammar").WithDetail("line", line)
}

func noMatch(field, tok, reason string) error {
	msg := fmt.Sprintf("%s: %s", field, reason)
	if tok != "" {
		msg = fmt.Sprintf("%s: %s %q", field, reason, tok)
	}
	return core.NewError(core.ErrParse, msg).WithDetail("field", field).WithDetail("token", tok)
}
