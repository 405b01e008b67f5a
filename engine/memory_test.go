package engine

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
)

func TestWazeroMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	// (module (memory (export "memory") 1))
	bin := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	mod, err := rt.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	mem := NewWazeroMemory(exportedMemory(mod))

	if got := mem.Size(); got != 65536 {
		t.Errorf("Size() = %d, want 65536", got)
	}
	if err := mem.Write(100, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := mem.Read(100, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "\x01\x02\x03" {
		t.Errorf("Read = %x", data)
	}

	if _, err := mem.Read(65535, 2); err == nil {
		t.Error("expected out of bounds read")
	}
	if err := mem.Write(65535, []byte{1, 2}); err == nil {
		t.Error("expected out of bounds write")
	}
	if _, err := mem.Read(1<<32, 1); err == nil {
		t.Error("expected error for address beyond 32 bits")
	}
	if (&WazeroMemory{}).Size() != 0 {
		t.Error("nil memory size should be 0")
	}
}

func TestExportedMemory_None(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if mem := exportedMemory(mod); mem != nil {
		t.Fatalf("exportedMemory() = %v, want nil", mem)
	}

	empty := NewWazeroMemory(nil)
	if _, err := empty.Read(0, 1); err == nil {
		t.Error("expected read error without memory")
	}
	if err := empty.Write(0, []byte{1}); err == nil {
		t.Error("expected write error without memory")
	}
}
