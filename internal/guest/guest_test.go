package guest

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
)

func TestBuild_Compiles(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	for name, bin := range map[string][]byte{
		"runtime":    Build(),
		"no runtime": Build(WithoutRuntime()),
		"two pages":  Build(WithPages(2)),
	} {
		t.Run(name, func(t *testing.T) {
			compiled, err := rt.CompileModule(ctx, bin)
			if err != nil {
				t.Fatalf("CompileModule: %v", err)
			}
			exports := compiled.ExportedFunctions()
			_, hasNew := exports["__new"]
			if want := name != "no runtime"; hasNew != want {
				t.Errorf("__new exported = %v, want %v", hasNew, want)
			}
			if _, ok := exports["hello"]; !ok {
				t.Error("hello not exported")
			}
			if _, ok := compiled.ExportedMemories()["memory"]; !ok {
				t.Error("memory not exported")
			}
		})
	}
}

func TestULEB(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
	}
	for _, tt := range tests {
		got := uleb(tt.in)
		if string(got) != string(tt.want) {
			t.Errorf("uleb(%d) = %x, want %x", tt.in, got, tt.want)
		}
	}
}
