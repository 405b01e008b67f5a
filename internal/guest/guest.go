// Package guest assembles a small core WebAssembly module that follows the
// managed runtime's object conventions. It stands in for a compiled guest in
// tests and examples.
//
// Exports:
//
//	memory                          1 page
//	__new(size, id i32) i32         bump allocator writing rtId/rtSize headers
//	__pin(ptr i32) i32              increments pinCount, returns ptr
//	__unpin(ptr i32)                decrements pinCount
//	__collect()                     no-op
//	pinCount() i32                  live pins
//	echo(ptr i32) i32               returns ptr
//	byteLength(ptr i32) i32         rtSize of the object at ptr
//	firstUnit(ptr i32) i32          first u16 of the payload
//	hello() i32                     static String "hello"
//	explode(msg, file i32)          calls env.abort(msg, file, 7, 3)
//
// Imports env.abort.
package guest

// HeapStart is where __new begins allocating.
const HeapStart = 1024

// HelloPtr is the pointer returned by hello().
const HelloPtr = 0x108

const (
	i32 = 0x7f

	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
	secData     = 11

	kindFunc   = 0x00
	kindMemory = 0x02
	kindGlobal = 0x03
)

type options struct {
	runtime bool
	pages   uint32
}

// Option tweaks the assembled module.
type Option func(*options)

// WithoutRuntime omits the __new, __pin, __unpin and __collect exports.
func WithoutRuntime() Option {
	return func(o *options) { o.runtime = false }
}

// WithPages sets the initial memory size in 64KiB pages.
func WithPages(n uint32) Option {
	return func(o *options) { o.pages = n }
}

type funcDef struct {
	name    string
	typeIdx uint32
	body    []byte
	runtime bool
}

// function bodies; index 0 is the env.abort import.
var funcs = []funcDef{
	{name: "__new", typeIdx: 0, runtime: true, body: []byte{
		// local ptr i32
		0x01, 0x01, i32,
		// [top] = id; [top+4] = size
		0x23, 0x00, 0x20, 0x01, 0x36, 0x02, 0x00,
		0x23, 0x00, 0x20, 0x00, 0x36, 0x02, 0x04,
		// ptr = top + 8
		0x23, 0x00, 0x41, 0x08, 0x6a, 0x21, 0x02,
		// top = (ptr + size + 7) & -8
		0x20, 0x02, 0x20, 0x00, 0x6a, 0x41, 0x07, 0x6a, 0x41, 0x78, 0x71, 0x24, 0x00,
		0x20, 0x02,
		0x0b,
	}},
	{name: "__pin", typeIdx: 1, runtime: true, body: []byte{
		0x00,
		0x23, 0x01, 0x41, 0x01, 0x6a, 0x24, 0x01,
		0x20, 0x00,
		0x0b,
	}},
	{name: "__unpin", typeIdx: 2, runtime: true, body: []byte{
		0x00,
		0x23, 0x01, 0x41, 0x01, 0x6b, 0x24, 0x01,
		0x0b,
	}},
	{name: "__collect", typeIdx: 3, runtime: true, body: []byte{
		0x00,
		0x0b,
	}},
	{name: "pinCount", typeIdx: 6, body: []byte{
		0x00,
		0x23, 0x01,
		0x0b,
	}},
	{name: "echo", typeIdx: 1, body: []byte{
		0x00,
		0x20, 0x00,
		0x0b,
	}},
	{name: "byteLength", typeIdx: 1, body: []byte{
		0x00,
		// i32.load [ptr-4]
		0x20, 0x00, 0x41, 0x04, 0x6b, 0x28, 0x02, 0x00,
		0x0b,
	}},
	{name: "firstUnit", typeIdx: 1, body: []byte{
		0x00,
		// i32.load16_u [ptr]
		0x20, 0x00, 0x2f, 0x01, 0x00,
		0x0b,
	}},
	{name: "hello", typeIdx: 6, body: []byte{
		0x00,
		// i32.const 0x108
		0x41, 0x88, 0x02,
		0x0b,
	}},
	{name: "explode", typeIdx: 5, body: []byte{
		0x00,
		// env.abort(msg, file, 7, 3)
		0x20, 0x00, 0x20, 0x01, 0x41, 0x07, 0x41, 0x03,
		0x10, 0x00,
		0x0b,
	}},
}

var types = [][2][]byte{
	{{i32, i32}, {i32}},        // 0 __new
	{{i32}, {i32}},             // 1 __pin, echo, byteLength, firstUnit
	{{i32}, {}},                // 2 __unpin
	{{}, {}},                   // 3 __collect
	{{i32, i32, i32, i32}, {}}, // 4 env.abort
	{{i32, i32}, {}},           // 5 explode
	{{}, {i32}},                // 6 pinCount, hello
}

// Build assembles the guest module binary.
func Build(opts ...Option) []byte {
	o := options{runtime: true, pages: 1}
	for _, opt := range opts {
		opt(&o)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var typeSec [][]byte
	for _, t := range types {
		entry := []byte{0x60}
		entry = append(entry, vec(byteItems(t[0])...)...)
		entry = append(entry, vec(byteItems(t[1])...)...)
		typeSec = append(typeSec, entry)
	}
	out = append(out, section(secType, vec(typeSec...))...)

	abort := append(name("env"), name("abort")...)
	abort = append(abort, kindFunc, 0x04)
	out = append(out, section(secImport, vec(abort))...)

	var funcSec, codeSec [][]byte
	for _, f := range funcs {
		funcSec = append(funcSec, uleb(f.typeIdx))
		codeSec = append(codeSec, append(uleb(uint32(len(f.body))), f.body...))
	}
	out = append(out, section(secFunction, vec(funcSec...))...)

	out = append(out, section(secMemory, vec(append([]byte{0x00}, uleb(o.pages)...)))...)

	// mut i32 heap top = HeapStart, mut i32 pin count = 0
	heapTop := []byte{i32, 0x01, 0x41, 0x80, 0x08, 0x0b}
	pins := []byte{i32, 0x01, 0x41, 0x00, 0x0b}
	out = append(out, section(secGlobal, vec(heapTop, pins))...)

	exports := [][]byte{export("memory", kindMemory, 0)}
	for i, f := range funcs {
		if f.runtime && !o.runtime {
			continue
		}
		exports = append(exports, export(f.name, kindFunc, uint32(i+1)))
	}
	out = append(out, section(secExport, vec(exports...))...)

	out = append(out, section(secCode, vec(codeSec...))...)

	// static String "hello": header at 0x100, payload at HelloPtr
	hello := []byte{
		0x01, 0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x00,
		'h', 0x00, 'e', 0x00, 'l', 0x00, 'l', 0x00, 'o', 0x00,
	}
	segment := []byte{0x00, 0x41, 0x80, 0x02, 0x0b} // memory 0, offset i32.const 0x100
	segment = append(segment, uleb(uint32(len(hello)))...)
	segment = append(segment, hello...)
	out = append(out, section(secData, vec(segment))...)

	return out
}

func export(n string, kind byte, idx uint32) []byte {
	b := name(n)
	b = append(b, kind)
	return append(b, uleb(idx)...)
}

func section(id byte, content []byte) []byte {
	b := []byte{id}
	b = append(b, uleb(uint32(len(content)))...)
	return append(b, content...)
}

func vec(items ...[]byte) []byte {
	b := uleb(uint32(len(items)))
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}

func byteItems(bs []byte) [][]byte {
	items := make([][]byte, len(bs))
	for i := range bs {
		items[i] = bs[i : i+1]
	}
	return items
}

func name(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
