package capture

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrCategoryUnknown},
		{"refused", fmt.Errorf("%w: connection refused", ErrConnect), ErrCategoryNetwork},
		{"timeout", errors.New("read timeout on socket"), ErrCategoryNetwork},
		{"dns", errors.New("could not resolve host"), ErrCategoryNetwork},
		{"decode", fmt.Errorf("%w: no frame decoded", ErrRead), ErrCategoryCodec},
		{"format", errors.New("unsupported format"), ErrCategoryCodec},
		{"other", errors.New("something else entirely"), ErrCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{ErrCategoryNetwork, "network"},
		{ErrCategoryCodec, "codec"},
		{ErrCategoryUnknown, "unknown"},
		{ErrorCategory(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		in   string
		want Transport
	}{
		{"tcp", TransportTCP},
		{"udp", TransportUDP},
		{"", TransportTCP},
		{"anything", TransportTCP},
	}

	for _, tt := range tests {
		if got := ParseTransport(tt.in); got != tt.want {
			t.Errorf("ParseTransport(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFrame_CloseNilSafe(t *testing.T) {
	var f *Frame
	f.Close() // must not panic

	f = &Frame{Seq: 1}
	f.Close() // no image buffer, must not panic
	f.Close() // idempotent
}
