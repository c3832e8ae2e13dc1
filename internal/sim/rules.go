package sim

import (
	"fmt"
	"sort"

	"github.com/vovakirdan/causal-sim/internal/core"
)

// TranslationRule moves one object for one tick, ignoring every other object.
type TranslationRule func(o *Object, ctx Context)

// InteractionRule updates two touching objects. Static participants are
// handed copies, so a rule can never move a static body.
type InteractionRule func(a, b *Object, c Contact)

// Contact describes the geometry of a touch between a and b.
type Contact struct {
	Normal core.Vec2 // unit vector pointing from b toward a
	Depth  float64   // separation along Normal that clears the overlap
}

// Flip returns the same contact seen from the other body.
func (c Contact) Flip() Contact {
	return Contact{Normal: c.Normal.Neg(), Depth: c.Depth}
}

// Separate pushes a and b apart along the normal by Depth. Two mobile bodies
// each move half the depth; against a static body the mobile one moves all of it.
func (c Contact) Separate(a, b *Object) {
	switch {
	case a.Static && b.Static:
		return
	case b.Static:
		a.Pos = a.Pos.Add(c.Normal.Scale(c.Depth))
	case a.Static:
		b.Pos = b.Pos.Sub(c.Normal.Scale(c.Depth))
	default:
		half := c.Normal.Scale(c.Depth / 2)
		a.Pos = a.Pos.Add(half)
		b.Pos = b.Pos.Sub(half)
	}
}

// Linear advances the position by the velocity.
func Linear(o *Object, _ Context) {
	o.Pos = o.Pos.Add(o.Vel)
}

// Reflect turns the normal component of every mobile participant's velocity
// away from the other body, then separates them. A body already moving away
// keeps its velocity.
func Reflect(a, b *Object, c Contact) {
	if !a.Static && a.Vel.Dot(c.Normal) < 0 {
		a.Vel = a.Vel.Reflect(c.Normal)
	}
	if !b.Static && b.Vel.Dot(c.Normal) > 0 {
		b.Vel = b.Vel.Reflect(c.Normal)
	}
	c.Separate(a, b)
}

// Elastic reflects every mobile participant's velocity about the contact
// normal, v' = v - 2(v·n)n, then separates them. The bodies bounce together
// or not at all: a pair that is already drawing apart is only separated, so
// a contact left over from the previous tick cannot bounce it a second time.
func Elastic(a, b *Object, c Contact) {
	if closing(a, b, c) {
		if !a.Static {
			a.Vel = a.Vel.Reflect(c.Normal)
		}
		if !b.Static {
			b.Vel = b.Vel.Reflect(c.Normal)
		}
	}
	c.Separate(a, b)
}

// closing reports whether a and b approach each other along the normal.
func closing(a, b *Object, c Contact) bool {
	var va, vb core.Vec2
	if !a.Static {
		va = a.Vel
	}
	if !b.Static {
		vb = b.Vel
	}
	return va.Sub(vb).Dot(c.Normal) < 0
}

var translationCatalog = map[string]TranslationRule{
	"linear": Linear,
}

var interactionCatalog = map[string]InteractionRule{
	"reflect": Reflect,
	"elastic": Elastic,
}

// TranslationByName resolves a named translation rule.
func TranslationByName(name string) (TranslationRule, error) {
	r, ok := translationCatalog[name]
	if !ok {
		return nil, configErrorf("unknown translation rule %q", name)
	}
	return r, nil
}

// InteractionByName resolves a named interaction rule.
func InteractionByName(name string) (InteractionRule, error) {
	r, ok := interactionCatalog[name]
	if !ok {
		return nil, configErrorf("unknown interaction rule %q", name)
	}
	return r, nil
}

type pairKey struct {
	a, b ObjectType
}

// RuleTable maps object types to translation rules and ordered type pairs to
// interaction rules. It holds no simulation state.
type RuleTable struct {
	translation map[ObjectType]TranslationRule
	interaction map[pairKey]InteractionRule
}

// NewRuleTable returns an empty table.
func NewRuleTable() *RuleTable {
	return &RuleTable{
		translation: make(map[ObjectType]TranslationRule),
		interaction: make(map[pairKey]InteractionRule),
	}
}

// SetTranslation registers the translation rule for a type.
func (t *RuleTable) SetTranslation(typ ObjectType, rule TranslationRule) {
	t.translation[typ] = rule
}

// SetInteraction registers the interaction rule for a pair of types.
// The entry also serves the reversed pair.
func (t *RuleTable) SetInteraction(a, b ObjectType, rule InteractionRule) {
	t.interaction[pairKey{a, b}] = rule
}

// Translation returns the translation rule for a type.
func (t *RuleTable) Translation(typ ObjectType) (TranslationRule, bool) {
	r, ok := t.translation[typ]
	return r, ok
}

// Interaction returns the rule for (a, b). When only (b, a) is registered,
// swapped is true and the caller must pass the objects reversed together
// with the flipped contact.
func (t *RuleTable) Interaction(a, b ObjectType) (rule InteractionRule, swapped bool, ok bool) {
	if r, found := t.interaction[pairKey{a, b}]; found {
		return r, false, true
	}
	if r, found := t.interaction[pairKey{b, a}]; found {
		return r, true, true
	}
	return nil, false, false
}

// Validate checks that the table is total over the given objects: every
// mobile type has a translation rule and every type pair that can touch with
// at least one mobile participant has an interaction rule.
func (t *RuleTable) Validate(objects []*Object) error {
	mobile, all := typeSets(objects)

	for _, typ := range sortedTypes(mobile) {
		if _, ok := t.translation[typ]; !ok {
			return configErrorf("no translation rule for type %q", typ)
		}
	}

	for _, a := range sortedTypes(mobile) {
		for _, b := range sortedTypes(all) {
			if a == b && !mobileCanMeet(objects, a) {
				continue
			}
			if _, _, ok := t.Interaction(a, b); !ok {
				return configErrorf("no interaction rule for pair (%s, %s)", a, b)
			}
		}
	}
	return nil
}

// DefaultRules builds the table for a set of objects: Linear translation for
// every mobile type, Elastic for pairs that can meet as two mobile bodies and
// Reflect for pairs that only meet a static body.
func DefaultRules(objects []*Object) *RuleTable {
	t := NewRuleTable()
	mobile, all := typeSets(objects)
	for typ := range mobile {
		t.SetTranslation(typ, Linear)
	}

	for a := range mobile {
		for b := range all {
			if _, _, ok := t.Interaction(a, b); ok {
				continue
			}
			if mobile[b] && (a != b || mobileCanMeet(objects, a)) {
				t.SetInteraction(a, b, Elastic)
			} else {
				t.SetInteraction(a, b, Reflect)
			}
		}
	}
	return t
}

// String lists the registered entries, mainly for debugging and logs.
func (t *RuleTable) String() string {
	return fmt.Sprintf("RuleTable{translation: %d, interaction: %d}", len(t.translation), len(t.interaction))
}

// typeSets returns the types that have at least one mobile instance and the
// set of all types present.
func typeSets(objects []*Object) (mobile, all map[ObjectType]bool) {
	mobile = make(map[ObjectType]bool)
	all = make(map[ObjectType]bool)
	for _, o := range objects {
		all[o.Type] = true
		if !o.Static {
			mobile[o.Type] = true
		}
	}
	return mobile, all
}

// mobileCanMeet reports whether a type can touch itself with at least one
// mobile participant: two mobile instances, or a mobile and a static one.
func mobileCanMeet(objects []*Object, typ ObjectType) bool {
	count := 0
	for _, o := range objects {
		if o.Type == typ {
			count++
		}
	}
	return count > 1
}

func sortedTypes(set map[ObjectType]bool) []ObjectType {
	out := make([]ObjectType, 0, len(set))
	for typ := range set {
		out = append(out, typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
