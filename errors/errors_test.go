package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindGuestCall,
				Export: "__new",
				Detail: "allocator trapped",
			},
			contains: []string{"[alloc]", "guest_call", "export __new", "allocator trapped"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[read]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRuntime,
				Kind:   KindGuestCall,
				Detail: "call failed",
				Cause:  errors.New("unreachable"),
			},
			contains: []string{"[runtime]", "guest_call", "call failed", "caused by", "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseAlloc,
		Kind:  KindOutOfBounds,
		Cause: cause,
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should follow the cause chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Phase: PhasePin, Kind: KindPinState}

	if !err.Is(&Error{Phase: PhasePin, Kind: KindPinState}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseAlloc, Kind: KindPinState}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhasePin, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrPinState) {
		t.Error("sentinel without phase should match on kind")
	}
	if errors.Is(err, ErrMissingExport) {
		t.Error("sentinel of another kind should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAlloc, KindGuestCall).
		Export("__new").
		Value(42).
		Cause(cause).
		Detail("size %d tag %d", 42, 1).
		Build()

	if err.Phase != PhaseAlloc {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseAlloc)
	}
	if err.Kind != KindGuestCall {
		t.Errorf("Kind = %v, want %v", err.Kind, KindGuestCall)
	}
	if err.Export != "__new" {
		t.Errorf("Export = %q, want __new", err.Export)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "size 42 tag 1" {
		t.Errorf("Detail = %q, want 'size 42 tag 1'", err.Detail)
	}
}

func TestHeaderMismatch(t *testing.T) {
	err := HeaderMismatch(0x64, 0, 1)

	msg := err.Error()
	for _, s := range []string{"header_mismatch", "0x64", "rtId 0", "expected 1"} {
		if !strings.Contains(msg, s) {
			t.Errorf("error message %q does not contain %q", msg, s)
		}
	}
	if !errors.Is(err, ErrHeaderMismatch) {
		t.Error("errors.Is should match ErrHeaderMismatch")
	}
	if !errors.Is(err, &HeaderMismatchError{}) {
		t.Error("errors.Is should match HeaderMismatchError")
	}
	if errors.Is(err, ErrDecodeFailure) {
		t.Error("header mismatch is not a decode failure")
	}

	var hm *HeaderMismatchError
	if !errors.As(err, &hm) || hm.Got != 0 || hm.Want != 1 || hm.Addr != 0x64 {
		t.Errorf("errors.As = %+v", hm)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("DecodeFailure", func(t *testing.T) {
		data := make([]byte, 40)
		err := DecodeFailure(PhaseRead, "odd length", data)
		if err.Kind != KindDecodeFailure {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDecodeFailure)
		}
		if strings.Count(err.Detail, "00") != 32 {
			t.Errorf("Detail should preview 32 bytes, got %q", err.Detail)
		}
	})

	t.Run("MissingExport", func(t *testing.T) {
		err := MissingExport(PhaseCollect, "__collect")
		if err.Kind != KindMissingExport || err.Export != "__collect" {
			t.Errorf("got %+v", err)
		}
		if !errors.Is(err, ErrMissingExport) {
			t.Error("should match ErrMissingExport")
		}
	})

	t.Run("PinState", func(t *testing.T) {
		if msg := PinState(16, true).Error(); !strings.Contains(msg, "already pinned") {
			t.Errorf("message = %q", msg)
		}
		if msg := PinState(16, false).Error(); !strings.Contains(msg, "not pinned") {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseRead, 0x10000, 4, nil)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != uint64(0x10000) {
			t.Errorf("Value = %v, want 0x10000", err.Value)
		}
	})

	t.Run("GuestAbort", func(t *testing.T) {
		err := GuestAbort("boom", "index.ts", 3, 7)
		if !strings.Contains(err.Error(), "boom at index.ts:3:7") {
			t.Errorf("message = %q", err.Error())
		}
		if !errors.Is(err, ErrGuestAbort) {
			t.Error("should match ErrGuestAbort")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRuntime, "export", "greet")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"greet"`) {
			t.Errorf("got %+v", err)
		}
	})
}
