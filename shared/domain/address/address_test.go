package address

import "testing"

func TestNewValidatesPostalCode(t *testing.T) {
	if _, err := New("Main St 1", "Aarhus", "123", "", ""); err != ErrInvalidPostalCode {
		t.Fatalf("3-digit postal code = %v, want ErrInvalidPostalCode", err)
	}
	if _, err := New("Main St 1", "Aarhus", "12a4", "", ""); err != ErrInvalidPostalCode {
		t.Fatalf("non-digit postal code = %v, want ErrInvalidPostalCode", err)
	}
	a, err := New("Main St 1", "Aarhus", "8000", "", "")
	if err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	if a.Country() != "Denmark" {
		t.Fatalf("default country = %q, want Denmark", a.Country())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a, err := New("Main St 1", "Aarhus", "8000", "Midtjylland", "Denmark")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out Address
	if err := out.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !out.Equal(a) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, a)
	}
}
