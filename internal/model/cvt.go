package model

// CVTField is one predicate of a compound value node with its values in dump order
type CVTField struct {
	Predicate string   // Full predicate URI
	Values    []string // Raw objects in wire encoding
}

// CVTNode is the predicate -> values map of a compound value node.
// Fields keep the order in which their predicate first appeared.
type CVTNode struct {
	fields []CVTField
	index  map[string]int
}

// Add appends a value under a predicate
func (n *CVTNode) Add(predicate, value string) {
	if n.index == nil {
		n.index = make(map[string]int)
	}
	if i, ok := n.index[predicate]; ok {
		n.fields[i].Values = append(n.fields[i].Values, value)
		return
	}
	n.index[predicate] = len(n.fields)
	n.fields = append(n.fields, CVTField{Predicate: predicate, Values: []string{value}})
}

// Fields returns the node fields in first-appearance order
func (n CVTNode) Fields() []CVTField {
	return n.fields
}

// Values returns the values of a predicate, nil if absent
func (n CVTNode) Values(predicate string) []string {
	if i, ok := n.index[predicate]; ok {
		return n.fields[i].Values
	}
	return nil
}

// Has reports whether the node carries the predicate
func (n CVTNode) Has(predicate string) bool {
	_, ok := n.index[predicate]
	return ok
}

// Len is the number of distinct predicates
func (n CVTNode) Len() int {
	return len(n.fields)
}
