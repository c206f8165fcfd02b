package harness

import "testing"

func TestStaticJobSourceProducesDistinctHeaders(t *testing.T) {
	s := NewStaticJobSource([]byte("prefix"))
	first, err := s.NextJob()
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.NextJob()
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Header) == string(second.Header) {
		t.Fatal("successive StaticJobSource headers must differ")
	}
	if len(first.Header) != len("prefix")+8 {
		t.Fatalf("header length = %d, want %d", len(first.Header), len("prefix")+8)
	}
}
