// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "fmt"

// Class versions the tree fixtures are written with.
const (
	treeVersion          = 20
	branchVersion        = 13
	branchElementVersion = 10
	leafVersion          = 2
	leafSubclassVersion  = 1
)

// Tree describes a tree record.
type Tree struct {
	Name     string
	Title    string
	Rows     int64
	Branches []Branch
}

// Branch describes one branch and its sub-branches.
type Branch struct {
	Name string
	// Leaf is the leaf class: TLeafI (the default), TLeafF, TLeafD,
	// TLeafL, TLeafS, TLeafB, TLeafO or TLeafElement.
	Leaf string
	// Len is the leaf's value count per row; zero means 1.
	Len int32
	// Element writes a TBranchElement instead of a TBranch.
	Element bool
	// Counter names the branch holding the per-row value count. For a
	// TBranchElement it becomes fBranchCount, otherwise the leaf's
	// fLeafCount. The counter must be written first (an ancestor or an
	// earlier branch).
	Counter  string
	Baskets  []Basket
	Branches []Branch
}

type placement struct {
	seek  int64
	bytes int32
}

type treeWriter struct {
	file       *FileBuilder
	tree       Tree
	onDisk     map[string][]placement
	branchTags map[string]int
	leafTags   map[string]int
	leafOrder  []int
}

// AddTree writes the on-disk baskets of every branch and then the tree
// record, which is listed in the key index. It returns the record's
// seek position.
func (f *FileBuilder) AddTree(tree Tree) int64 {
	w := &treeWriter{
		file:       f,
		tree:       tree,
		onDisk:     make(map[string][]placement),
		branchTags: make(map[string]int),
		leafTags:   make(map[string]int),
	}
	w.writeBaskets(tree.Branches)
	return f.AddObject("TTree", tree.Name, tree.Title, w.writeTree)
}

func (w *treeWriter) writeBaskets(branches []Branch) {
	for _, branch := range branches {
		inMemory := false
		for _, basket := range branch.Baskets {
			if basket.InMemory {
				inMemory = true
				continue
			}
			if inMemory {
				panic(fmt.Sprintf("testutil: branch %s has an on-disk basket after an in-memory one", branch.Name))
			}
			seek, bytes := w.file.AddBasket(w.tree.Name, branch.Name, basket)
			w.onDisk[branch.Name] = append(w.onDisk[branch.Name], placement{seek, bytes})
		}
		w.writeBaskets(branch.Branches)
	}
}

func (w *treeWriter) writeTree(b *Buffer) {
	b.Framed(treeVersion, func(b *Buffer) {
		b.TNamed(w.tree.Name, w.tree.Title)
		b.I64(w.tree.Rows)
		b.I64(0)
		b.I64(0)
		b.ObjArray("", len(w.tree.Branches), func(b *Buffer, i int) {
			w.writeBranch(b, w.tree.Branches[i])
		})
		b.ObjArray("", len(w.leafOrder), func(b *Buffer, i int) {
			b.Ref(w.leafOrder[i])
		})
	})
}

func (w *treeWriter) writeBranch(b *Buffer, branch Branch) {
	w.branchTags[branch.Name] = b.NextTag()
	if !branch.Element {
		b.Object("TBranch", func(b *Buffer) { w.writeBranchBody(b, branch) })
		return
	}
	b.Object("TBranchElement", func(b *Buffer) {
		b.Framed(branchElementVersion, func(b *Buffer) {
			w.writeBranchBody(b, branch)
			b.TString("")
			b.I32(0)
			b.I32(0)
			if branch.Counter == "" {
				b.Null()
				return
			}
			tag, ok := w.branchTags[branch.Counter]
			if !ok {
				panic(fmt.Sprintf("testutil: counter branch %s of %s is not written yet", branch.Counter, branch.Name))
			}
			b.Ref(tag)
		})
	})
}

func (w *treeWriter) writeBranchBody(b *Buffer, branch Branch) {
	disk := w.onDisk[branch.Name]
	var memory []Basket
	for _, basket := range branch.Baskets {
		if basket.InMemory {
			memory = append(memory, basket)
		}
	}
	slots := len(disk) + len(memory) + 1

	entries := make([]int64, slots)
	var first int64
	for i, basket := range branch.Baskets {
		entries[i] = first
		first += int64(basket.Entries)
	}
	entries[len(branch.Baskets)] = first

	b.Framed(branchVersion, func(b *Buffer) {
		b.TNamed(branch.Name, branch.Name)
		b.I32(101)
		b.I32(32000)
		b.I32(int32(len(disk)))
		b.I32(int32(slots))
		b.I64(w.tree.Rows)

		b.ObjArray("", len(branch.Branches), func(b *Buffer, i int) {
			w.writeBranch(b, branch.Branches[i])
		})
		b.ObjArray("", 1, func(b *Buffer, _ int) { w.writeLeaf(b, branch) })
		b.ObjArray("", len(disk)+len(memory), func(b *Buffer, i int) {
			if i < len(disk) {
				b.Null()
				return
			}
			w.writeMemoryBasket(b, branch.Name, memory[i-len(disk)])
		})

		b.U8(1)
		for i := 0; i < slots; i++ {
			if i < len(disk) {
				b.I32(disk[i].bytes)
			} else {
				b.I32(0)
			}
		}
		b.U8(1)
		for _, entry := range entries {
			b.I64(entry)
		}
		b.U8(1)
		for i := 0; i < slots; i++ {
			if i < len(disk) {
				b.I64(disk[i].seek)
			} else {
				b.I64(0)
			}
		}
	})
}

func (w *treeWriter) writeLeaf(b *Buffer, branch Branch) {
	class := branch.Leaf
	if class == "" {
		class = "TLeafI"
	}
	length := branch.Len
	if length == 0 {
		length = 1
	}
	tag := b.NextTag()
	w.leafTags[branch.Name] = tag
	w.leafOrder = append(w.leafOrder, tag)

	b.Object(class, func(b *Buffer) {
		b.Framed(leafSubclassVersion, func(b *Buffer) {
			b.Framed(leafVersion, func(b *Buffer) {
				b.TNamed(branch.Name, branch.Name)
				b.I32(length)
				b.I32(leafTypeSize(class))
				b.I32(0)
				b.Bool(false)
				b.Bool(false)
				switch {
				case branch.Counter == "" || branch.Element:
					b.Null()
				default:
					counter, ok := w.leafTags[branch.Counter]
					if !ok {
						panic(fmt.Sprintf("testutil: counter leaf %s of %s is not written yet", branch.Counter, branch.Name))
					}
					b.Ref(counter)
				}
			})
			writeLeafRange(b, class)
		})
	})
}

func leafTypeSize(class string) int32 {
	switch class {
	case "TLeafB", "TLeafO":
		return 1
	case "TLeafS":
		return 2
	case "TLeafD", "TLeafL":
		return 8
	default:
		return 4
	}
}

func writeLeafRange(b *Buffer, class string) {
	switch class {
	case "TLeafB":
		b.I8(0)
		b.I8(0)
	case "TLeafO":
		b.Bool(false)
		b.Bool(false)
	case "TLeafS":
		b.I16(0)
		b.I16(0)
	case "TLeafF":
		b.F32(0)
		b.F32(0)
	case "TLeafD":
		b.F64(0)
		b.F64(0)
	case "TLeafL":
		b.I64(0)
		b.I64(0)
	default:
		// TLeafI minimum and maximum, TLeafElement ID and type.
		b.I32(0)
		b.I32(0)
	}
}

func (w *treeWriter) writeMemoryBasket(b *Buffer, branch string, basket Basket) {
	keyLen := 4 + 2 + 4 + 4 + 2 + 2 + 8 + len("TBasket") + 1 + len(branch) + 1 + len(w.tree.Name) + 1 + basketFieldsSize
	b.Object("TBasket", func(b *Buffer) {
		b.I16(4)
		b.I32(int32(keyLen + len(basket.Data)))
		b.I32(int32(len(basket.Data)))
		b.U32(datime)
		b.I16(int16(keyLen))
		b.I16(1)
		b.I32(0)
		b.I32(0)
		b.TString("TBasket")
		b.TString(branch)
		b.TString(w.tree.Name)

		b.I16(3)
		b.I32(32000)
		b.I32(entrySize(basket))
		b.I32(int32(basket.Entries))
		b.I32(int32(keyLen + len(basket.Data)))
		b.I8(basket.flag())
		if basket.Offsets != nil && basket.Entries > 0 {
			b.I32(int32(len(basket.Offsets)))
			for _, offset := range basket.Offsets {
				b.I32(offset)
			}
		}
		b.Raw(make([]byte, keyLen))
		b.Raw(basket.Data)
	})
}

// TreeStreamers describes the classes tree records are written with.
func TreeStreamers() []StreamerInfo {
	infos := []StreamerInfo{
		{
			Class: "TTree", Version: treeVersion, Checksum: 0x7264e07f,
			Elements: []Element{
				BaseElement("TNamed", 1),
				BasicElement("fEntries", "Long64_t", TypeLong64),
				BasicElement("fTotBytes", "Long64_t", TypeLong64),
				BasicElement("fZipBytes", "Long64_t", TypeLong64),
				ObjectElement("fBranches", "TObjArray"),
				ObjectElement("fLeaves", "TObjArray"),
			},
		},
		{
			Class: "TBranch", Version: branchVersion, Checksum: 0x1e6f2f6b,
			Elements: []Element{
				BaseElement("TNamed", 1),
				BasicElement("fCompress", "Int_t", TypeInt),
				BasicElement("fBasketSize", "Int_t", TypeInt),
				BasicElement("fWriteBasket", "Int_t", TypeInt),
				BasicElement("fMaxBaskets", "Int_t", TypeCounter),
				BasicElement("fEntries", "Long64_t", TypeLong64),
				ObjectElement("fBranches", "TObjArray"),
				ObjectElement("fLeaves", "TObjArray"),
				ObjectElement("fBaskets", "TObjArray"),
				CountedElement("fBasketBytes", "Int_t", TypeInt, "fMaxBaskets", "TBranch"),
				CountedElement("fBasketEntry", "Long64_t", TypeLong64, "fMaxBaskets", "TBranch"),
				CountedElement("fBasketSeek", "Long64_t", TypeLong64, "fMaxBaskets", "TBranch"),
			},
		},
		{
			Class: "TBranchElement", Version: branchElementVersion, Checksum: 0x5f1e3c9a,
			Elements: []Element{
				BaseElement("TBranch", branchVersion),
				StringElement("fClassName"),
				BasicElement("fID", "Int_t", TypeInt),
				BasicElement("fType", "Int_t", TypeInt),
				PointerElement("fBranchCount", "TBranchElement"),
			},
		},
		{
			Class: "TLeaf", Version: leafVersion, Checksum: 0x2a4b6d1c,
			Elements: []Element{
				BaseElement("TNamed", 1),
				BasicElement("fLen", "Int_t", TypeInt),
				BasicElement("fLenType", "Int_t", TypeInt),
				BasicElement("fOffset", "Int_t", TypeInt),
				BasicElement("fIsRange", "Bool_t", TypeBool),
				BasicElement("fIsUnsigned", "Bool_t", TypeBool),
				PointerElement("fLeafCount", "TLeaf"),
			},
		},
		{
			Class: "TLeafElement", Version: leafSubclassVersion, Checksum: 0x4c1a2b3d,
			Elements: []Element{
				BaseElement("TLeaf", leafVersion),
				BasicElement("fID", "Int_t", TypeInt),
				BasicElement("fType", "Int_t", TypeInt),
			},
		},
	}
	ranges := []struct {
		class    string
		typeName string
		tag      int32
	}{
		{"TLeafI", "Int_t", TypeInt},
		{"TLeafF", "Float_t", TypeFloat},
		{"TLeafD", "Double_t", TypeDouble},
		{"TLeafL", "Long64_t", TypeLong64},
		{"TLeafS", "Short_t", TypeShort},
		{"TLeafB", "Char_t", TypeChar},
		{"TLeafO", "Bool_t", TypeBool},
	}
	for i, leaf := range ranges {
		infos = append(infos, StreamerInfo{
			Class: leaf.class, Version: leafSubclassVersion, Checksum: 0x60000000 + uint32(i),
			Elements: []Element{
				BaseElement("TLeaf", leafVersion),
				BasicElement("fMinimum", leaf.typeName, leaf.tag),
				BasicElement("fMaximum", leaf.typeName, leaf.tag),
			},
		})
	}
	return infos
}

// Encode returns the bytes write produces, for branch entry data.
func Encode(write func(b *Buffer)) []byte {
	b := NewBuffer(0)
	write(b)
	return b.Bytes()
}
