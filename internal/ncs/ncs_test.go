package ncs

import "testing"

func TestWriteThenParseRoundTrips(t *testing.T) {
	code := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x07}
	file := Write(code)

	got, err := Parse(file)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(got) != string(code) {
		t.Fatalf("got code %v, want %v", got, code)
	}
}

// S6: the first instruction byte sits at offset 0x0D.
func TestFirstInstructionOffset(t *testing.T) {
	file := Write([]byte{0x01})
	if HeaderLen != 0x0D {
		t.Fatalf("HeaderLen = 0x%02x, want 0x0D", HeaderLen)
	}
	if file[HeaderLen] != 0x01 {
		t.Fatalf("byte at HeaderLen = 0x%02x, want 0x01", file[HeaderLen])
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	file := Write([]byte{0x01})
	file[0] = 'X'
	if _, err := Parse(file); err == nil {
		t.Fatalf("expected an error for corrupted magic")
	}
}

func TestParseRejectsTruncatedFile(t *testing.T) {
	if _, err := Parse([]byte{0x4E, 0x43, 0x53, 0x20}); err == nil {
		t.Fatalf("expected an error for a too-short file")
	}
}

func TestParseRejectsSizeMismatch(t *testing.T) {
	file := Write([]byte{0x01, 0x02})
	file = append(file, 0xFF) // trailing garbage the size record doesn't account for
	if _, err := Parse(file); err == nil {
		t.Fatalf("expected a size-mismatch error")
	}
}
