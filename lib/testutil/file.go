// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/binary"

	"github.com/bureau-foundation/rootscan/lib/rootzip"
)

const (
	// fileBegin is where the first record starts.
	fileBegin = 100
	// directorySize is the space reserved for the top directory.
	directorySize = 80

	smallFileVersion = 62206
	largeFileVersion = 1062206

	// datime is 2026-01-01 12:00:00 in the packed key date format.
	datime = uint32(2026-1995)<<26 | 1<<22 | 1<<17 | 12<<12
)

// FileOptions configures a FileBuilder.
type FileOptions struct {
	// Name is the file name stored in the name record.
	Name string
	// Large selects 64-bit seek pointers throughout.
	Large bool
	// Compression is applied to every payload that it shrinks. Zero
	// stores payloads uncompressed.
	Compression rootzip.Algorithm
	// BlockSize splits compressed payloads into blocks of at most this
	// many uncompressed bytes.
	BlockSize int
}

// FileBuilder assembles a container file in memory.
type FileBuilder struct {
	options     FileOptions
	data        []byte
	index       [][]byte
	infos       []StreamerInfo
	cycles      map[string]int16
	nbytesName  int32
	directoryAt int
	result      []byte
}

// key is an on-disk key header before encoding.
type key struct {
	totalSize int32
	uncompLen int32
	keyLen    int16
	cycle     int16
	seek      int64
	pdir      int64
	class     string
	name      string
	title     string
}

// NewFile starts a file: reserved header, name record and directory.
func NewFile(options FileOptions) *FileBuilder {
	if options.Name == "" {
		options.Name = "test.root"
	}
	f := &FileBuilder{
		options: options,
		data:    make([]byte, fileBegin),
		cycles:  make(map[string]int16),
	}

	keyLen := f.keyLength("TFile", options.Name, "")
	name := NewBuffer(keyLen)
	name.TString(options.Name)
	name.TString("")
	f.nbytesName = int32(keyLen + name.Len())
	f.data = append(f.data, f.encodeKey(key{
		totalSize: f.nbytesName + directorySize,
		uncompLen: f.nbytesName + directorySize,
		keyLen:    int16(keyLen),
		cycle:     1,
		seek:      fileBegin,
		class:     "TFile",
		name:      options.Name,
	})...)
	f.data = append(f.data, name.Bytes()...)
	f.directoryAt = len(f.data)
	f.data = append(f.data, make([]byte, directorySize)...)
	return f
}

// Streamers adds infos to the streamer catalogue.
func (f *FileBuilder) Streamers(infos ...StreamerInfo) {
	f.infos = append(f.infos, infos...)
}

func (f *FileBuilder) keyVersion() int16 {
	if f.options.Large {
		return 1004
	}
	return 4
}

func (f *FileBuilder) keyLength(class, name, title string) int {
	length := 4 + 2 + 4 + 4 + 2 + 2
	if f.options.Large {
		length += 16
	} else {
		length += 8
	}
	for _, s := range []string{class, name, title} {
		length += len(s) + 1
		if len(s) >= 255 {
			length += 4
		}
	}
	return length
}

func (f *FileBuilder) encodeKey(k key) []byte {
	b := NewBuffer(0)
	b.I32(k.totalSize)
	b.I16(f.keyVersion())
	b.I32(k.uncompLen)
	b.U32(datime)
	b.I16(k.keyLen)
	b.I16(k.cycle)
	if f.options.Large {
		b.I64(k.seek)
		b.I64(k.pdir)
	} else {
		b.I32(int32(k.seek))
		b.I32(int32(k.pdir))
	}
	b.TString(k.class)
	b.TString(k.name)
	b.TString(k.title)
	return b.Bytes()
}

func (f *FileBuilder) store(payload []byte) []byte {
	if f.options.Compression == 0 || len(payload) == 0 {
		return payload
	}
	compressed, err := Compress(f.options.Compression, payload, f.options.BlockSize)
	if err != nil || len(compressed) >= len(payload) {
		return payload
	}
	return compressed
}

func (f *FileBuilder) nextCycle(name string) int16 {
	f.cycles[name]++
	return f.cycles[name]
}

// AddRecord appends a record holding payload and lists it in the key
// index. It returns the record's seek position.
func (f *FileBuilder) AddRecord(class, name, title string, payload []byte) int64 {
	seek, header := f.appendRecord(class, name, title, payload)
	f.index = append(f.index, header)
	return seek
}

// AddObject is AddRecord with a payload produced by write.
func (f *FileBuilder) AddObject(class, name, title string, write func(b *Buffer)) int64 {
	b := NewBuffer(f.keyLength(class, name, title))
	write(b)
	return f.AddRecord(class, name, title, b.Bytes())
}

func (f *FileBuilder) appendRecord(class, name, title string, payload []byte) (int64, []byte) {
	keyLen := f.keyLength(class, name, title)
	stored := f.store(payload)
	seek := int64(len(f.data))
	header := f.encodeKey(key{
		totalSize: int32(keyLen + len(stored)),
		uncompLen: int32(len(payload)),
		keyLen:    int16(keyLen),
		cycle:     f.nextCycle(name),
		seek:      seek,
		pdir:      fileBegin,
		class:     class,
		name:      name,
		title:     title,
	})
	f.data = append(f.data, header...)
	f.data = append(f.data, stored...)
	return seek, header
}

// basketFieldsSize is the basket header that follows the key header of
// an on-disk basket: version, buffer size, entry size, entry count,
// last and flag.
const basketFieldsSize = 2 + 4 + 4 + 4 + 4 + 1

// Basket is the content of one basket.
type Basket struct {
	// Entries is the number of rows the basket holds.
	Entries int
	// Data is the entry bytes.
	Data []byte
	// Offsets, when set, is written after the entry data as the entry
	// offset table.
	Offsets []int32
	// InMemory embeds the basket in the tree record instead of writing
	// it as a record of its own.
	InMemory bool
}

func (basket Basket) flag() int8 {
	if basket.Offsets != nil {
		return 11
	}
	return 12
}

// AddBasket writes an on-disk basket for branch and returns its seek
// position and on-disk size.
func (f *FileBuilder) AddBasket(tree, branch string, basket Basket) (int64, int32) {
	keyLen := f.keyLength("TBasket", branch, tree) + basketFieldsSize
	payload := append([]byte(nil), basket.Data...)
	if basket.Offsets != nil {
		trailer := NewBuffer(0)
		trailer.I32(int32(len(basket.Offsets)))
		for _, offset := range basket.Offsets {
			trailer.I32(offset)
		}
		payload = append(payload, trailer.Bytes()...)
	}
	stored := f.store(payload)
	seek := int64(len(f.data))
	total := int32(keyLen + len(stored))

	f.data = append(f.data, f.encodeKey(key{
		totalSize: total,
		uncompLen: int32(len(payload)),
		keyLen:    int16(keyLen),
		cycle:     1,
		seek:      seek,
		pdir:      fileBegin,
		class:     "TBasket",
		name:      branch,
		title:     tree,
	})...)
	fields := NewBuffer(0)
	fields.I16(3)
	fields.I32(32000)
	fields.I32(entrySize(basket))
	fields.I32(int32(basket.Entries))
	fields.I32(int32(keyLen + len(basket.Data)))
	fields.I8(1)
	f.data = append(f.data, fields.Bytes()...)
	f.data = append(f.data, stored...)
	return seek, total
}

// BasketBuffer returns a buffer whose object tags match the entry data
// of an on-disk basket of branch, for entries that hold objects.
func (f *FileBuilder) BasketBuffer(tree, branch string) *Buffer {
	return NewBuffer(f.keyLength("TBasket", branch, tree) + basketFieldsSize)
}

func entrySize(basket Basket) int32 {
	if basket.Entries == 0 {
		return 0
	}
	return int32(len(basket.Data) / basket.Entries)
}

// Bytes finishes the file: it writes the streamer catalogue, the free
// segment list and the key index, then fills in the header and the
// directory. Later calls return the same bytes.
func (f *FileBuilder) Bytes() []byte {
	if f.result != nil {
		return f.result
	}

	catalogue := NewBuffer(f.keyLength("TList", "StreamerInfo", "Doubly linked list"))
	WriteCatalogue(catalogue, f.infos)
	seekInfo, _ := f.appendRecord("TList", "StreamerInfo", "Doubly linked list", catalogue.Bytes())
	nbytesInfo := int32(int64(len(f.data)) - seekInfo)

	indexKeyLen := f.keyLength("TFile", f.options.Name, "")
	index := NewBuffer(indexKeyLen)
	index.I32(int32(len(f.index)))
	for _, header := range f.index {
		index.Raw(header)
	}
	seekKeys := int64(len(f.data))
	nbytesKeys := int32(indexKeyLen + index.Len())
	f.data = append(f.data, f.encodeKey(key{
		totalSize: nbytesKeys,
		uncompLen: int32(index.Len()),
		keyLen:    int16(indexKeyLen),
		cycle:     1,
		seek:      seekKeys,
		pdir:      fileBegin,
		class:     "TFile",
		name:      f.options.Name,
	})...)
	f.data = append(f.data, index.Bytes()...)

	seekFree := int64(len(f.data))
	freeKeyLen := f.keyLength("TFile", f.options.Name, "")
	free := NewBuffer(freeKeyLen)
	if f.options.Large {
		free.I16(1001)
		free.I64(seekFree)
		free.I64(2000000000)
	} else {
		free.I16(1)
		free.I32(int32(seekFree))
		free.I32(2000000000)
	}
	nbytesFree := int32(freeKeyLen + free.Len())
	f.data = append(f.data, f.encodeKey(key{
		totalSize: nbytesFree,
		uncompLen: int32(free.Len()),
		keyLen:    int16(freeKeyLen),
		cycle:     1,
		seek:      seekFree,
		pdir:      fileBegin,
		class:     "TFile",
		name:      f.options.Name,
	})...)
	f.data = append(f.data, free.Bytes()...)
	end := int64(len(f.data))

	header := NewBuffer(0)
	header.Raw([]byte("root"))
	seek := header.Seek32
	if f.options.Large {
		header.I32(largeFileVersion)
		seek = header.I64
	} else {
		header.I32(smallFileVersion)
	}
	header.I32(fileBegin)
	seek(end)
	seek(seekFree)
	header.I32(nbytesFree)
	header.I32(1)
	header.I32(f.nbytesName)
	if f.options.Large {
		header.U8(8)
	} else {
		header.U8(4)
	}
	header.I32(compressSetting(f.options.Compression))
	seek(seekInfo)
	header.I32(nbytesInfo)
	header.I16(4)
	header.Raw(make([]byte, 16))
	copy(f.data[:fileBegin], header.Bytes())

	directory := NewBuffer(0)
	seek = directory.Seek32
	if f.options.Large {
		directory.I16(1005)
		seek = directory.I64
	} else {
		directory.I16(5)
	}
	directory.U32(datime)
	directory.U32(datime)
	directory.I32(nbytesKeys)
	directory.I32(f.nbytesName)
	seek(fileBegin)
	seek(0)
	seek(seekKeys)
	directory.I16(4)
	directory.Raw(make([]byte, 16))
	copy(f.data[f.directoryAt:f.directoryAt+directorySize], directory.Bytes())

	f.result = f.data
	return f.result
}

func compressSetting(algorithm rootzip.Algorithm) int32 {
	switch algorithm {
	case rootzip.AlgorithmZlib:
		return 101
	case rootzip.AlgorithmXZ:
		return 207
	case rootzip.AlgorithmLZ4:
		return 404
	case rootzip.AlgorithmZstd:
		return 505
	default:
		return 0
	}
}

// PutI32 overwrites the big-endian int32 at offset in data.
func PutI32(data []byte, offset int, v int32) {
	binary.BigEndian.PutUint32(data[offset:], uint32(v))
}
