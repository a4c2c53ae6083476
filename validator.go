// FILE: lixenwraith/dotenv/validator.go
package dotenv

import (
	"slices"
	"sync"
)

// State is the lifecycle state of a Validator
type State int

const (
	StateUnbuilt   State = iota // No rules registered
	StateBuilt                  // Rules registered, not validated since the last change
	StateValidated              // Last ValidateAll succeeded
	StateFailed                 // Last ValidateAll failed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateValidated:
		return "validated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// slotRule is a rule registered under a slot
type slotRule struct {
	slot string
	rule Rule
}

// Validator holds ordered per-key rule queues and evaluates them fail-fast.
// It is safe for concurrent use.
type Validator struct {
	mu      sync.RWMutex
	order   []string              // Keys in registration order
	queues  map[string][]slotRule // Slots in registration order
	state   State
	version uint64
	data    *Map   // Dataset of the last ValidateAll
	epoch   uint64 // Advanced by Unrequire and Reset; older selections attach nothing
}

// NewValidator creates an empty validator
func NewValidator() *Validator {
	return &Validator{queues: make(map[string][]slotRule)}
}

// Required selects keys and installs a presence rule failing on absence
func (v *Validator) Required(keys ...string) Selection {
	return v.selectKeys(keys, RulePresence{Required: true})
}

// IfPresent selects keys and installs a presence rule skipping absent keys
func (v *Validator) IfPresent(keys ...string) Selection {
	return v.selectKeys(keys, RulePresence{Required: false})
}

func (v *Validator) selectKeys(keys []string, presence Rule) Selection {
	targets := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			targets = append(targets, k)
		}
	}
	v.mu.RLock()
	epoch := v.epoch
	v.mu.RUnlock()

	sel := Selection{v: v, keys: targets, epoch: epoch}
	return sel.attach(presence)
}

// Unrequire removes every rule of keys
func (v *Validator) Unrequire(keys ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, k := range keys {
		if _, ok := v.queues[k]; !ok {
			continue
		}
		delete(v.queues, k)
		v.order = slices.DeleteFunc(v.order, func(o string) bool { return o == k })
	}
	v.epoch++
	v.changed()
}

// Reset clears all rules and the last dataset
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.order = nil
	v.queues = make(map[string][]slotRule)
	v.data = nil
	v.epoch++
	v.changed()
}

// ValidateAll evaluates every rule queue against data.
// It returns a *ValidationError for the first failing rule.
func (v *Validator) ValidateAll(data *Map) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.data = data
	for _, key := range v.order {
		if err := v.validateKey(key, data); err != nil {
			v.state = StateFailed
			return err
		}
	}
	v.state = StateValidated
	return nil
}

// validateKey runs the queue of key, presence first
func (v *Validator) validateKey(key string, data *Map) error {
	for _, sr := range orderedRules(v.queues[key]) {
		result, err := evaluate(sr.rule, key, data)
		switch {
		case err != nil || result == outcomeFail:
			value, present := data.Get(key)
			verr := &ValidationError{
				Key:     key,
				Rule:    sr.rule.Label(),
				Value:   value,
				Present: present,
				Cause:   err,
			}
			if allowed, ok := sr.rule.(RuleAllowed); ok {
				verr.Allowed = allowed.Set
			}
			return verr
		case result == outcomeSkip:
			return nil
		}
	}
	return nil
}

// orderedRules moves the presence slot to the front
func orderedRules(queue []slotRule) []slotRule {
	out := make([]slotRule, 0, len(queue))
	for _, sr := range queue {
		if sr.slot == slotPresence {
			out = append(out, sr)
		}
	}
	for _, sr := range queue {
		if sr.slot != slotPresence {
			out = append(out, sr)
		}
	}
	return out
}

// Keys returns the keys with rules, in registration order
func (v *Validator) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.order)
}

// Rules returns the rules of key in evaluation order
func (v *Validator) Rules(key string) []Rule {
	v.mu.RLock()
	defer v.mu.RUnlock()

	queue := orderedRules(v.queues[key])
	rules := make([]Rule, len(queue))
	for i, sr := range queue {
		rules[i] = sr.rule
	}
	return rules
}

// State returns the current lifecycle state
func (v *Validator) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Version returns a counter incremented by every rule change
func (v *Validator) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// invalidate returns a validated or failed validator to StateBuilt
func (v *Validator) invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateValidated || v.state == StateFailed {
		v.state = StateBuilt
	}
}

// attach registers rule under its slot for every key, replacing a previous rule of that slot.
// Selections made before the last Unrequire or Reset attach nothing.
func (v *Validator) attach(keys []string, epoch uint64, rule Rule) {
	if len(keys) == 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if epoch != v.epoch {
		return
	}

	slot := rule.slot()
	for _, k := range keys {
		queue, known := v.queues[k]
		if !known {
			v.order = append(v.order, k)
		}
		i := slices.IndexFunc(queue, func(sr slotRule) bool { return sr.slot == slot })
		if i >= 0 {
			queue[i].rule = rule
		} else {
			queue = append(queue, slotRule{slot: slot, rule: rule})
		}
		v.queues[k] = queue
	}
	v.changed()
}

// changed records a rule mutation; callers hold mu
func (v *Validator) changed() {
	v.version++
	if len(v.queues) == 0 {
		v.state = StateUnbuilt
	} else {
		v.state = StateBuilt
	}
}

// Selection is the set of keys chosen by Required or IfPresent.
// Rule methods attach to every selected key and return the selection for chaining.
// The zero Selection attaches nothing.
type Selection struct {
	v     *Validator
	keys  []string
	epoch uint64
}

// Keys returns the selected keys
func (s Selection) Keys() []string { return slices.Clone(s.keys) }

// IsInteger requires an Int value
func (s Selection) IsInteger() Selection { return s.attach(RuleType{Kind: KindInt}) }

// IsFloat requires a Float value
func (s Selection) IsFloat() Selection { return s.attach(RuleType{Kind: KindFloat}) }

// IsBoolean requires a Bool value
func (s Selection) IsBoolean() Selection { return s.attach(RuleType{Kind: KindBool}) }

// IsArray requires an Array value
func (s Selection) IsArray() Selection { return s.attach(RuleType{Kind: KindArray}) }

// IsString requires a String value
func (s Selection) IsString() Selection { return s.attach(RuleType{Kind: KindString}) }

// NotEmpty rejects empty values
func (s Selection) NotEmpty() Selection { return s.attach(RuleNotEmpty{}) }

// IsDateTime requires a value parseable by ParseDateTime
func (s Selection) IsDateTime() Selection { return s.attach(RuleDateTime{}) }

// AllowedValues requires a value strictly equal to one of vals
func (s Selection) AllowedValues(vals ...any) Selection {
	set := make([]Value, len(vals))
	for i, val := range vals {
		set[i] = ValueOf(val)
	}
	return s.attach(RuleAllowed{Set: set})
}

// Custom attaches a caller predicate
func (s Selection) Custom(fn CustomFunc) Selection { return s.attach(RuleCustom{Fn: fn}) }

// Expr attaches a boolean expr-lang expression over key, value and env
func (s Selection) Expr(expression string) Selection {
	return s.attach(RuleExpr{Expression: expression})
}

func (s Selection) attach(rule Rule) Selection {
	if s.v != nil {
		s.v.attach(s.keys, s.epoch, rule)
	}
	return s
}
