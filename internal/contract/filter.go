package contract

import (
	"encoding/json"
	"fmt"
)

type Operator string

const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpIn       Operator = "in"
	OpNotIn    Operator = "not_in"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
	OpExists   Operator = "exists"
)

var knownOperators = map[Operator]bool{
	OpEq: true, OpNeq: true, OpIn: true, OpNotIn: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpContains: true, OpExists: true,
}

// Valid reports whether op is one of the closed operator set.
func (op Operator) Valid() bool {
	return knownOperators[op]
}

type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

const (
	kindCondition = "condition"
	kindGroup     = "group"
)

// FilterNode is either a *Condition leaf or a *FilterGroup. The set is closed.
type FilterNode interface {
	isFilterNode()
	cloneNode() FilterNode
}

type Condition struct {
	Field  string   `json:"field"`
	Op     Operator `json:"op"`
	Values []string `json:"values,omitempty"`
}

type FilterGroup struct {
	Logic    Logic        `json:"logic"`
	Children []FilterNode `json:"children"`
}

func (*Condition) isFilterNode()   {}
func (*FilterGroup) isFilterNode() {}

func (c *Condition) cloneNode() FilterNode {
	out := *c
	if c.Values != nil {
		out.Values = append([]string(nil), c.Values...)
	}
	return &out
}

func (g *FilterGroup) cloneNode() FilterNode {
	out := g.clone()
	return &out
}

func (g FilterGroup) clone() FilterGroup {
	out := FilterGroup{Logic: g.Logic}
	if g.Children != nil {
		out.Children = make([]FilterNode, 0, len(g.Children))
		for _, child := range g.Children {
			out.Children = append(out.Children, child.cloneNode())
		}
	}
	return out
}

// And builds an AND group.
func And(children ...FilterNode) *FilterGroup {
	return &FilterGroup{Logic: LogicAnd, Children: children}
}

// Or builds an OR group.
func Or(children ...FilterNode) *FilterGroup {
	return &FilterGroup{Logic: LogicOr, Children: children}
}

// Where builds a leaf condition.
func Where(field string, op Operator, values ...string) *Condition {
	return &Condition{Field: field, Op: op, Values: values}
}

func (c *Condition) MarshalJSON() ([]byte, error) {
	type plain Condition
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{Kind: kindCondition, plain: (*plain)(c)})
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	type plain Condition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if !p.Op.Valid() {
		return fmt.Errorf("unknown filter operator %q", p.Op)
	}
	if p.Field == "" {
		return fmt.Errorf("filter condition without field")
	}
	*c = Condition(p)
	return nil
}

func (g *FilterGroup) MarshalJSON() ([]byte, error) {
	children := g.Children
	if children == nil {
		children = []FilterNode{}
	}
	return json.Marshal(struct {
		Kind     string       `json:"kind"`
		Logic    Logic        `json:"logic"`
		Children []FilterNode `json:"children"`
	}{Kind: kindGroup, Logic: g.Logic, Children: children})
}

func (g *FilterGroup) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind     string            `json:"kind"`
		Logic    Logic             `json:"logic"`
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind != "" && raw.Kind != kindGroup {
		return fmt.Errorf("expected filter group, got kind %q", raw.Kind)
	}
	if raw.Logic != LogicAnd && raw.Logic != LogicOr {
		return fmt.Errorf("unknown filter logic %q", raw.Logic)
	}

	out := FilterGroup{Logic: raw.Logic, Children: make([]FilterNode, 0, len(raw.Children))}
	for i, rc := range raw.Children {
		node, err := UnmarshalFilterNode(rc)
		if err != nil {
			return fmt.Errorf("filter child %d: %w", i, err)
		}
		out.Children = append(out.Children, node)
	}
	*g = out
	return nil
}

// UnmarshalFilterNode decodes a single tagged node.
func UnmarshalFilterNode(data []byte) (FilterNode, error) {
	var tag struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}
	switch tag.Kind {
	case kindCondition:
		var c Condition
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case kindGroup:
		var g FilterGroup
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return &g, nil
	default:
		return nil, fmt.Errorf("unknown filter node kind %q", tag.Kind)
	}
}
