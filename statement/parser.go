/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package statement

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/suparena/statstore/errors"
	"github.com/suparena/statstore/query"
	"github.com/suparena/statstore/storagemodels"
)

const (
	keywordSet   = "SET"
	keywordWhere = "WHERE"
	keywordSort  = "SORT"
	keywordLimit = "LIMIT"
	keywordAsc   = "ASC"
	keywordDsc   = "DSC"
	keywordAnd   = "AND"
	keywordOr    = "OR"
	keywordNot   = "NOT"
)

var aggregatePattern = regexp.MustCompile(`^QUERY-(COUNT|DISTINCT)(?:\(([a-zA-Z_]+)\))?$`)

var comparisonOperators = map[string]query.ComparisonOperator{
	"=":  query.Equals,
	"!=": query.NotEqualTo,
	"<":  query.LessThan,
	"<=": query.LessThanOrEqualTo,
	">":  query.GreaterThan,
	">=": query.GreaterThanOrEqualTo,
}

// term is a literal or a reference to a free parameter.
type term struct {
	literal any
	param   int
}

func (t term) isParam() bool {
	return t.param >= 0
}

type setPair struct {
	key   term
	value term
}

type sortMember struct {
	key       term
	direction storagemodels.SortDirection
}

// whereNode is a WHERE clause tree whose leaves may reference parameters.
type whereNode interface {
	build(b *binding) (query.Expression, error)
}

type comparisonNode struct {
	key      term
	operator query.ComparisonOperator
	value    term
}

type logicalNode struct {
	left, right whereNode
	operator    query.LogicalOperator
}

type notNode struct {
	operand whereNode
}

// Parsed is a validated descriptor. It is immutable and shared by every
// prepared statement created from the same descriptor.
type Parsed[T any] struct {
	desc         Descriptor[T]
	kind         Kind
	aggregateKey string
	params       []ParamType
	set          []setPair
	where        whereNode
	sort         []sortMember
	limit        *term
}

// Descriptor returns the source descriptor.
func (p *Parsed[T]) Descriptor() Descriptor[T] { return p.desc }

// Kind returns the statement type.
func (p *Parsed[T]) Kind() Kind { return p.kind }

// AggregateKey returns the key named in QUERY-COUNT(key) or
// QUERY-DISTINCT(key), or "".
func (p *Parsed[T]) AggregateKey() string { return p.aggregateKey }

// NumParams returns the number of free parameters.
func (p *Parsed[T]) NumParams() int { return len(p.params) }

// Params returns the declared parameter types in order.
func (p *Parsed[T]) Params() []ParamType {
	return append([]ParamType(nil), p.params...)
}

// Parse validates a descriptor against its category.
func Parse[T any](desc Descriptor[T]) (*Parsed[T], error) {
	if desc.Category == nil {
		return nil, errors.NewDescriptorParsingError(desc.Text, "descriptor has no category")
	}
	tokens, err := tokenize(desc.Text)
	if err != nil {
		return nil, err
	}
	p := &parser[T]{desc: desc, tokens: tokens, out: &Parsed[T]{desc: desc}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	if err := p.analyze(); err != nil {
		return nil, err
	}
	return p.out, nil
}

type parser[T any] struct {
	desc   Descriptor[T]
	tokens []token
	pos    int
	out    *Parsed[T]
}

func (p *parser[T]) fail(format string, args ...any) error {
	return errors.NewDescriptorParsingError(p.desc.Text, format, args...)
}

func (p *parser[T]) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser[T]) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos].text
}

func (p *parser[T]) accept(keyword string) bool {
	if p.peek() == keyword && !p.done() {
		p.pos++
		return true
	}
	return false
}

func (p *parser[T]) next(context string) (string, error) {
	if p.done() {
		return "", p.fail("%s: term expected but descriptor ended", context)
	}
	tok := p.tokens[p.pos].text
	p.pos++
	return tok, nil
}

func (p *parser[T]) parse() error {
	if err := p.parseKind(); err != nil {
		return err
	}
	if err := p.parseCategory(); err != nil {
		return err
	}
	if p.accept(keywordSet) {
		if err := p.parseSetList(); err != nil {
			return err
		}
	}
	if err := p.parseSuffix(); err != nil {
		return err
	}
	if !p.done() {
		return p.fail("unexpected token %q at %d", p.peek(), p.tokens[p.pos].pos)
	}
	return nil
}

func (p *parser[T]) parseKind() error {
	tok, err := p.next("statement type")
	if err != nil {
		return err
	}
	switch tok {
	case "QUERY":
		p.out.kind = KindQuery
	case "ADD":
		p.out.kind = KindAdd
	case "REPLACE":
		p.out.kind = KindReplace
	case "UPDATE":
		p.out.kind = KindUpdate
	case "REMOVE":
		p.out.kind = KindRemove
	default:
		m := aggregatePattern.FindStringSubmatch(tok)
		if m == nil {
			return p.fail("unknown statement type %q", tok)
		}
		if m[1] == "COUNT" {
			p.out.kind = KindQueryCount
		} else {
			p.out.kind = KindQueryDistinct
		}
		p.out.aggregateKey = m[2]
	}
	return nil
}

func (p *parser[T]) parseCategory() error {
	if p.done() {
		return p.fail("missing category name")
	}
	tok, _ := p.next("category")
	if tok != p.desc.Category.Name() {
		return p.fail("category mismatch: descriptor names %q, category is %q", tok, p.desc.Category.Name())
	}
	return nil
}

func (p *parser[T]) parseSetList() error {
	for {
		key, err := p.parseTerm("SET", true)
		if err != nil {
			return err
		}
		if !p.accept("=") {
			return p.fail("expected '=' after SET key, got %q", p.peek())
		}
		value, err := p.parseTerm("SET", false)
		if err != nil {
			return err
		}
		p.out.set = append(p.out.set, setPair{key: key, value: value})
		if !p.accept(",") {
			return nil
		}
	}
}

func (p *parser[T]) parseSuffix() error {
	if p.done() {
		return nil
	}
	switch p.peek() {
	case keywordWhere:
		p.pos++
		if p.done() {
			return p.fail("empty WHERE clause")
		}
		where, err := p.parseOr()
		if err != nil {
			return err
		}
		p.out.where = where
		if err := p.parseSort(); err != nil {
			return err
		}
		return p.parseLimit()
	case keywordSort:
		if err := p.parseSort(); err != nil {
			return err
		}
		return p.parseLimit()
	case keywordLimit:
		return p.parseLimit()
	default:
		return p.fail("unexpected token %q, expected one of %s, %s, %s", p.peek(), keywordWhere, keywordSort, keywordLimit)
	}
}

func (p *parser[T]) parseOr() (whereNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(keywordOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicalNode{left: left, operator: query.Or, right: right}
	}
	return left, nil
}

func (p *parser[T]) parseAnd() (whereNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.accept(keywordAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &logicalNode{left: left, operator: query.And, right: right}
	}
	return left, nil
}

func (p *parser[T]) parseNot() (whereNode, error) {
	if p.accept(keywordNot) {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser[T]) parseComparison() (whereNode, error) {
	key, err := p.parseTerm("WHERE", true)
	if err != nil {
		return nil, err
	}
	if !key.isParam() {
		if _, ok := key.literal.(string); !ok {
			return nil, p.fail("left side of a comparison must be a quoted key name")
		}
	} else if t := p.out.params[key.param]; t.Kind != ParamString {
		return nil, p.fail("key parameters only accept strings, got %s", t)
	}

	if p.done() {
		return nil, p.fail("comparison operator expected after %v", key.literal)
	}
	op, ok := comparisonOperators[p.peek()]
	if !ok {
		return nil, p.fail("unknown comparison operator %q", p.peek())
	}
	p.pos++

	value, err := p.parseTerm("WHERE", false)
	if err != nil {
		return nil, err
	}
	return &comparisonNode{key: key, operator: op, value: value}, nil
}

func (p *parser[T]) parseSort() error {
	if !p.accept(keywordSort) {
		return nil
	}
	for {
		tok, err := p.next("SORT")
		if err != nil {
			return err
		}
		var key term
		if strings.HasPrefix(tok, "?") {
			t, err := p.param(tok, "SORT", false)
			if err != nil {
				return err
			}
			if t.Kind != ParamString {
				return p.fail("SORT parameters only accept strings, got %s", tok)
			}
			key = term{param: len(p.out.params) - 1}
		} else {
			name, ok := unquote(tok)
			if !ok {
				return p.fail("SORT key must be a quoted string, got %q", tok)
			}
			key = term{literal: name, param: -1}
		}

		var dir storagemodels.SortDirection
		switch {
		case p.accept(keywordAsc):
			dir = storagemodels.Ascending
		case p.accept(keywordDsc):
			dir = storagemodels.Descending
		default:
			return p.fail("expected %s or %s after SORT key, got %q", keywordAsc, keywordDsc, p.peek())
		}
		p.out.sort = append(p.out.sort, sortMember{key: key, direction: dir})
		if !p.accept(",") {
			return nil
		}
	}
}

func (p *parser[T]) parseLimit() error {
	if !p.accept(keywordLimit) {
		return nil
	}
	tok, err := p.next("LIMIT")
	if err != nil {
		return err
	}
	if strings.HasPrefix(tok, "?") {
		t, err := p.param(tok, "LIMIT", false)
		if err != nil {
			return err
		}
		if t.Kind != ParamInt {
			return p.fail("LIMIT parameters only accept integers, got %s", tok)
		}
		p.out.limit = &term{param: len(p.out.params) - 1}
		return nil
	}
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return p.fail("LIMIT value %q is not an integer", tok)
	}
	p.out.limit = &term{literal: int(n), param: -1}
	return nil
}

// parseTerm reads a literal or a free parameter. Keys are quoted strings.
// List and pojo parameters are only allowed in SET lists.
func (p *parser[T]) parseTerm(context string, isKey bool) (term, error) {
	tok, err := p.next(context)
	if err != nil {
		return term{}, err
	}
	if strings.HasPrefix(tok, "?") {
		if _, err := p.param(tok, context, context == "SET"); err != nil {
			return term{}, err
		}
		return term{param: len(p.out.params) - 1}, nil
	}
	if isKey {
		name, ok := unquote(tok)
		if !ok {
			return term{}, p.fail("expected a quoted key name, got %q", tok)
		}
		return term{literal: name, param: -1}, nil
	}
	v, err := p.literal(tok)
	if err != nil {
		return term{}, err
	}
	return term{literal: v, param: -1}, nil
}

func (p *parser[T]) param(tok, context string, allowComposite bool) (ParamType, error) {
	t, ok := parseParamType(tok)
	if !ok {
		return ParamType{}, p.fail("unknown free parameter type %q", tok)
	}
	if !allowComposite {
		if t.List {
			return ParamType{}, p.fail("list parameter %s not allowed in %s", tok, context)
		}
		if t.Kind == ParamPojo {
			return ParamType{}, p.fail("pojo parameter not allowed in %s", context)
		}
	}
	p.out.params = append(p.out.params, t)
	return t, nil
}

// literal decodes 'string', true, false, 12L (long) and 12 (int).
func (p *parser[T]) literal(tok string) (any, error) {
	if s, ok := unquote(tok); ok {
		return s, nil
	}
	switch tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if last := tok[len(tok)-1]; last == 'L' || last == 'l' {
		if n, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64); err == nil {
			return n, nil
		}
	} else if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return int(n), nil
	}
	return nil, p.fail("illegal literal %q; strings must be quoted, for example 'value'", tok)
}

func unquote(tok string) (string, bool) {
	if len(tok) < 2 || tok[0] != '\'' || tok[len(tok)-1] != '\'' {
		return "", false
	}
	return tok[1 : len(tok)-1], true
}

// analyze applies the per-statement rules that the grammar cannot express.
func (p *parser[T]) analyze() error {
	out := p.out
	cat := p.desc.Category
	hasSort := len(out.sort) > 0 || out.limit != nil

	for _, pair := range out.set {
		if pair.key.isParam() {
			return p.fail("left side of a SET pair must not be a free parameter")
		}
	}

	aggregate := out.kind == KindQueryCount || out.kind == KindQueryDistinct
	if aggregate != cat.IsAggregate() {
		if aggregate {
			return p.fail("%s needs an aggregate view of %q", out.kind, cat.Name())
		}
		return p.fail("%s cannot run on the aggregate view %q", out.kind, cat.Name())
	}

	switch out.kind {
	case KindAdd:
		if out.where != nil {
			return p.fail("WHERE clause not allowed for ADD")
		}
		if err := p.requireAllKeys(); err != nil {
			return err
		}
	case KindReplace:
		if out.where == nil {
			return p.fail("WHERE clause required for REPLACE")
		}
		if err := p.requireAllKeys(); err != nil {
			return err
		}
	case KindUpdate:
		if out.where == nil {
			return p.fail("WHERE clause required for UPDATE")
		}
		if len(out.set) == 0 {
			return p.fail("SET list required for UPDATE")
		}
		var unknown []string
		for _, pair := range out.set {
			if _, ok := cat.Key(pair.key.literal.(string)); !ok {
				unknown = append(unknown, pair.key.literal.(string))
			}
		}
		if len(unknown) > 0 {
			return p.fail("unknown key(s) in SET: %v", unknown)
		}
	case KindRemove:
		if len(out.set) > 0 {
			return p.fail("SET not allowed for REMOVE")
		}
	case KindQuery, KindQueryCount, KindQueryDistinct:
		if len(out.set) > 0 {
			return p.fail("SET not allowed for %s", out.kind)
		}
		if out.kind == KindQueryDistinct && out.aggregateKey == "" {
			return p.fail("aggregate key for DISTINCT must be given")
		}
		if out.aggregateKey != "" {
			if _, ok := cat.Key(out.aggregateKey); !ok {
				return p.fail("unknown aggregate key %q", out.aggregateKey)
			}
		}
	}

	if !out.kind.IsQuery() && hasSort {
		return p.fail("LIMIT/SORT only allowed for queries")
	}
	return nil
}

func (p *parser[T]) requireAllKeys() error {
	cat := p.desc.Category
	seen := make(map[string]bool, len(p.out.set))
	for _, pair := range p.out.set {
		seen[pair.key.literal.(string)] = true
	}
	want := cat.Keys()
	match := len(seen) == len(want)
	for _, k := range want {
		if !seen[k.Name()] {
			match = false
		}
	}
	if !match {
		names := make([]string, len(want))
		for i, k := range want {
			names[i] = k.Name()
		}
		got := make([]string, 0, len(seen))
		for _, pair := range p.out.set {
			got = append(got, pair.key.literal.(string))
		}
		return p.fail("SET keys %v do not match the keys of %q: %v", got, cat.Name(), names)
	}
	return nil
}
