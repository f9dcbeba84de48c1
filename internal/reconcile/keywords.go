// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

package reconcile

type keywordRule struct {
	keywords []string
	class    string
}

// keywordMatcher is an Aho-Corasick automaton over every keyword of an
// ordered rule list. One pass over the text yields the lowest rule index
// with a keyword anywhere in it, the same answer as trying each rule's
// keywords in order with strings.Contains.
//
// Matchers are built once at package init and are read-only afterwards.
type keywordMatcher struct {
	root  *acNode
	rules []keywordRule
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	// rule is the lowest rule index ending at this node or anywhere on its
	// failure chain; -1 when none.
	rule int
}

func newKeywordMatcher(rules []keywordRule) *keywordMatcher {
	m := &keywordMatcher{root: newACNode(), rules: rules}
	for i, r := range rules {
		for _, k := range r.keywords {
			m.insert(i, k)
		}
	}
	m.buildFailureLinks()
	return m
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode), rule: -1}
}

func (m *keywordMatcher) insert(rule int, keyword string) {
	if keyword == "" {
		return
	}
	node := m.root
	for _, ch := range keyword {
		next := node.children[ch]
		if next == nil {
			next = newACNode()
			node.children[ch] = next
		}
		node = next
	}
	node.rule = lowerRule(node.rule, rule)
}

// buildFailureLinks walks the trie breadth first, so a node's failure target
// is always complete before the node inherits its rule.
func (m *keywordMatcher) buildFailureLinks() {
	queue := make([]*acNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
			} else {
				child.failure = fail.children[ch]
			}
			child.rule = lowerRule(child.rule, child.failure.rule)
		}
	}
}

// first returns the lowest matching rule index in text, or -1.
func (m *keywordMatcher) first(text string) int {
	best := -1
	node := m.root
	for _, ch := range text {
		for node != m.root && node.children[ch] == nil {
			node = node.failure
		}
		if next := node.children[ch]; next != nil {
			node = next
		}
		best = lowerRule(best, node.rule)
		if best == 0 {
			break
		}
	}
	return best
}

// classify returns the class of the first matching rule, or fallback.
func (m *keywordMatcher) classify(text, fallback string) string {
	if i := m.first(text); i >= 0 {
		return m.rules[i].class
	}
	return fallback
}

// lowerRule picks the higher priority of two rule indexes, ignoring -1.
func lowerRule(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	default:
		return min(a, b)
	}
}
