// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/rootscan/lib/source"
	"github.com/bureau-foundation/rootscan/lib/streamer"
)

// ErrBranchNotFound is wrapped by Tree.Branch for unknown names.
var ErrBranchNotFound = errors.New("branch not found")

// Tree is a decoded TTree: a row count and its branches.
type Tree struct {
	Name     string
	Title    string
	Rows     int64
	Branches []*Branch

	byName map[string]*Branch
}

// Branch is one column of a tree.
type Branch struct {
	Name  string
	Title string
	Class string
	Rule  CountRule
	// Rows is the row count of the owning tree.
	Rows    int64
	Baskets []BasketRef

	source source.Source
}

// BasketRef locates one basket of a branch. On-disk baskets have a
// Seek and Bytes; baskets recovered from the tree record have Memory.
type BasketRef struct {
	Seek       int64
	Bytes      int32
	FirstEntry int64
	Memory     *streamer.Basket
}

// InMemory reports whether the basket was recovered from the record.
func (ref BasketRef) InMemory() bool { return ref.Memory != nil }

// CountRule says how many values a branch holds per row.
type CountRule struct {
	fixed   int
	counter *Branch
}

// Fixed is the rule for branches with n values per row.
func Fixed(n int) CountRule { return CountRule{fixed: n} }

// VariableByCounter is the rule for branches whose per-row value count
// is held by counter.
func VariableByCounter(counter *Branch) CountRule { return CountRule{counter: counter} }

// FixedLength returns n for Fixed(n).
func (rule CountRule) FixedLength() (int, bool) { return rule.fixed, rule.counter == nil }

// Counter returns the counter branch for variable rules.
func (rule CountRule) Counter() (*Branch, bool) { return rule.counter, rule.counter != nil }

func (rule CountRule) String() string {
	if rule.counter != nil {
		return "variable(" + rule.counter.Name + ")"
	}
	return fmt.Sprintf("fixed(%d)", rule.fixed)
}

// Branch returns the branch named name.
func (t *Tree) Branch(name string) (*Branch, error) {
	branch, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("tree %s: %w: %q", t.Name, ErrBranchNotFound, name)
	}
	return branch, nil
}

// FromObject builds a tree from a decoded TTree (or subclass). Baskets
// are read from src.
func FromObject(object *streamer.Object, src source.Source) (*Tree, error) {
	if object == nil || !object.InheritsFrom("TTree") {
		return nil, fmt.Errorf("building tree: object is not a TTree")
	}

	t := &Tree{byName: make(map[string]*Branch)}
	var err error
	if t.Name, err = object.String("fName"); err != nil {
		return nil, fmt.Errorf("building tree: %w", err)
	}
	t.Title, _ = object.String("fTitle")
	if t.Rows, err = object.Int64("fEntries"); err != nil {
		return nil, fmt.Errorf("building tree %s: %w", t.Name, err)
	}
	if t.Rows < 0 {
		return nil, fmt.Errorf("building tree %s: negative row count %d", t.Name, t.Rows)
	}

	topLevel, err := object.Objects("fBranches")
	if err != nil {
		return nil, fmt.Errorf("building tree %s: %w", t.Name, err)
	}

	b := &builder{
		tree:        t,
		src:         src,
		byObject:    make(map[*streamer.Object]*Branch),
		leafOwner:   make(map[*streamer.Object]*Branch),
		firstLeaves: make(map[*Branch]*streamer.Object),
	}
	for _, branch := range topLevel {
		if err := b.add(branch); err != nil {
			return nil, fmt.Errorf("building tree %s: %w", t.Name, err)
		}
	}
	if err := b.resolveCounts(); err != nil {
		return nil, fmt.Errorf("building tree %s: %w", t.Name, err)
	}
	return t, nil
}

type builder struct {
	tree        *Tree
	src         source.Source
	objects     []*streamer.Object
	byObject    map[*streamer.Object]*Branch
	leafOwner   map[*streamer.Object]*Branch
	firstLeaves map[*Branch]*streamer.Object
}

// add appends object and, depth first, its sub-branches.
func (b *builder) add(object *streamer.Object) error {
	if _, seen := b.byObject[object]; seen {
		return nil
	}
	branch := &Branch{Class: object.Class, Rows: b.tree.Rows, source: b.src}
	var err error
	if branch.Name, err = object.String("fName"); err != nil {
		return err
	}
	branch.Title, _ = object.String("fTitle")
	if branch.Baskets, err = basketRefs(object); err != nil {
		return fmt.Errorf("branch %s: %w", branch.Name, err)
	}

	leaves, err := object.Objects("fLeaves")
	if err != nil {
		return fmt.Errorf("branch %s: %w", branch.Name, err)
	}
	for _, leaf := range leaves {
		b.leafOwner[leaf] = branch
	}
	if len(leaves) > 0 {
		b.firstLeaves[branch] = leaves[0]
	}

	b.tree.Branches = append(b.tree.Branches, branch)
	if _, exists := b.tree.byName[branch.Name]; !exists {
		b.tree.byName[branch.Name] = branch
	}
	b.byObject[object] = branch
	b.objects = append(b.objects, object)

	children, err := object.Objects("fBranches")
	if err != nil {
		return fmt.Errorf("branch %s: %w", branch.Name, err)
	}
	for _, child := range children {
		if err := b.add(child); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) resolveCounts() error {
	for _, object := range b.objects {
		branch := b.byObject[object]
		rule, err := b.countRule(object, branch)
		if err != nil {
			return fmt.Errorf("branch %s: %w", branch.Name, err)
		}
		branch.Rule = rule
	}
	return nil
}

func (b *builder) countRule(object *streamer.Object, branch *Branch) (CountRule, error) {
	leaf := b.firstLeaves[branch]
	if leaf != nil {
		if counterLeaf, err := leaf.Object("fLeafCount"); err == nil && counterLeaf != nil {
			owner, ok := b.leafOwner[counterLeaf]
			if !ok {
				name, _ := counterLeaf.String("fName")
				return CountRule{}, fmt.Errorf("leaf count %q does not belong to any branch", name)
			}
			return VariableByCounter(owner), nil
		}
	}

	if object.InheritsFrom("TBranchElement") {
		if counterObject, err := object.Object("fBranchCount"); err == nil && counterObject != nil {
			if owner, ok := b.byObject[counterObject]; ok {
				return VariableByCounter(owner), nil
			}
			name, err := counterObject.String("fName")
			if err != nil {
				return CountRule{}, fmt.Errorf("branch count: %w", err)
			}
			owner, ok := b.tree.byName[name]
			if !ok {
				return CountRule{}, fmt.Errorf("branch count %q is not a branch of the tree", name)
			}
			return VariableByCounter(owner), nil
		}
	}

	length := 1
	if leaf != nil {
		if n, err := leaf.Int64("fLen"); err == nil && n > 0 {
			length = int(n)
		}
	}
	return Fixed(length), nil
}

// basketRefs lists the on-disk baskets (the first fWriteBasket slots
// of the basket arrays) followed by baskets embedded in fBaskets.
func basketRefs(object *streamer.Object) ([]BasketRef, error) {
	written, err := object.Int64("fWriteBasket")
	if err != nil {
		return nil, err
	}
	bytes, err := object.Int32s("fBasketBytes")
	if err != nil {
		return nil, err
	}
	entries, err := object.Int64s("fBasketEntry")
	if err != nil {
		return nil, err
	}
	seeks, err := object.Int64s("fBasketSeek")
	if err != nil {
		return nil, err
	}
	if written < 0 || int(written) > len(bytes) || int(written) > len(entries) || int(written) > len(seeks) {
		return nil, fmt.Errorf("%d written baskets but basket arrays hold %d/%d/%d slots",
			written, len(bytes), len(entries), len(seeks))
	}

	refs := make([]BasketRef, 0, written+1)
	for i := 0; i < int(written); i++ {
		refs = append(refs, BasketRef{Seek: seeks[i], Bytes: bytes[i], FirstEntry: entries[i]})
	}

	embedded, err := object.Object("fBaskets")
	if err != nil || embedded == nil {
		return refs, nil
	}
	for i, item := range embedded.Items {
		basket, ok := item.(*streamer.Basket)
		if !ok || i < int(written) || basket.NevBuf <= 0 || basket.Buffer == nil {
			continue
		}
		var first int64
		if i < len(entries) {
			first = entries[i]
		}
		refs = append(refs, BasketRef{FirstEntry: first, Memory: basket})
	}
	return refs, nil
}
