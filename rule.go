// FILE: lixenwraith/dotenv/rule.go
package dotenv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
)

// Rule labels, reported by ValidationError.Rule
const (
	ruleLabelRequired  = "required"
	ruleLabelIfPresent = "ifPresent"
	ruleLabelAllowed   = "allowedValues"
	ruleLabelCustom    = "customClosure"
	ruleLabelNotEmpty  = "notEmpty"
	ruleLabelDateTime  = "isDateTime"
	ruleLabelExpr      = "expr"
)

// Slot names. Type rules use one slot per kind.
const (
	slotPresence = "presence"
	slotAllowed  = "allowed-values"
	slotCustom   = "custom"
	slotNotEmpty = "not-empty"
	slotDateTime = "date-time"
	slotExpr     = "expr"
)

// CustomFunc is a caller supplied predicate. It receives the key, its value
// (Null when absent) and the whole dataset under validation.
type CustomFunc func(key string, value Value, data *Map) bool

// Rule is one validation rule attached to a key.
// The concrete variants are RulePresence, RuleType, RuleAllowed, RuleCustom,
// RuleNotEmpty, RuleDateTime and RuleExpr.
type Rule interface {
	Label() string
	slot() string
}

// RulePresence checks that a key exists. A non-required presence rule
// skips the remaining rules of an absent key instead of failing.
type RulePresence struct {
	Required bool
}

// RuleType checks the kind of a value
type RuleType struct {
	Kind Kind
}

// RuleAllowed checks strict membership in Set
type RuleAllowed struct {
	Set []Value
}

// RuleCustom delegates to a caller predicate
type RuleCustom struct {
	Fn CustomFunc
}

// RuleNotEmpty rejects empty values as defined by Value.IsEmpty
type RuleNotEmpty struct{}

// RuleDateTime checks that the textual value is a point in time
type RuleDateTime struct{}

// RuleExpr evaluates a boolean expr-lang expression.
// The environment exposes key, value and env (the dataset as plain values).
type RuleExpr struct {
	Expression string
}

func (r RulePresence) Label() string {
	if r.Required {
		return ruleLabelRequired
	}
	return ruleLabelIfPresent
}

func (r RuleType) Label() string {
	switch r.Kind {
	case KindInt:
		return "isInteger"
	case KindFloat:
		return "isFloat"
	case KindBool:
		return "isBoolean"
	case KindArray:
		return "isArray"
	case KindString:
		return "isString"
	default:
		return "is" + r.Kind.String()
	}
}

func (RuleAllowed) Label() string  { return ruleLabelAllowed }
func (RuleCustom) Label() string   { return ruleLabelCustom }
func (RuleNotEmpty) Label() string { return ruleLabelNotEmpty }
func (RuleDateTime) Label() string { return ruleLabelDateTime }
func (RuleExpr) Label() string     { return ruleLabelExpr }

func (RulePresence) slot() string { return slotPresence }
func (r RuleType) slot() string   { return "type:" + r.Kind.String() }
func (RuleAllowed) slot() string  { return slotAllowed }
func (RuleCustom) slot() string   { return slotCustom }
func (RuleNotEmpty) slot() string { return slotNotEmpty }
func (RuleDateTime) slot() string { return slotDateTime }
func (RuleExpr) slot() string     { return slotExpr }

// outcome is the result of evaluating one rule
type outcome int

const (
	outcomePass outcome = iota
	outcomeFail
	outcomeSkip // Absent optional key, stop evaluating it
)

func passIf(ok bool) outcome {
	if ok {
		return outcomePass
	}
	return outcomeFail
}

// evaluate interprets rule against key in data
func evaluate(rule Rule, key string, data *Map) (outcome, error) {
	v, present := data.Get(key)

	switch r := rule.(type) {
	case RulePresence:
		switch {
		case present:
			return outcomePass, nil
		case r.Required:
			return outcomeFail, nil
		default:
			return outcomeSkip, nil
		}
	case RuleType:
		return passIf(v.Kind() == r.Kind), nil
	case RuleAllowed:
		for _, allowed := range r.Set {
			if allowed.Equal(v) {
				return outcomePass, nil
			}
		}
		return outcomeFail, nil
	case RuleCustom:
		if r.Fn == nil {
			return outcomePass, nil
		}
		return passIf(r.Fn(key, v, data)), nil
	case RuleNotEmpty:
		return passIf(!v.IsEmpty()), nil
	case RuleDateTime:
		_, ok := ParseDateTime(v.String())
		return passIf(ok && !v.IsNull()), nil
	case RuleExpr:
		return evalExpr(r.Expression, key, v, data)
	default:
		return outcomeFail, fmt.Errorf("unknown rule type %T", rule)
	}
}

// evalExpr compiles and runs a boolean expression rule
func evalExpr(expression, key string, v Value, data *Map) (outcome, error) {
	env := map[string]any{
		"key":   key,
		"value": v.Interface(),
		"env":   data.ToMap(),
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return outcomeFail, fmt.Errorf("compile %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return outcomeFail, fmt.Errorf("eval %q: %w", expression, err)
	}
	ok, _ := result.(bool)
	return passIf(ok), nil
}

// dateTimeLayouts are tried in order by ParseDateTime
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDateTime interprets s as a point in time. Besides the layouts above it
// accepts "@<unix seconds>" and the keywords now, today, tomorrow and yesterday.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(s) {
	case "now":
		return now, true
	case "today", "midnight":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	if rest, ok := strings.CutPrefix(s, "@"); ok {
		sec, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, 0), true
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
