package imagemeta

import "testing"

func TestHashContentDeterministic(t *testing.T) {
	a := HashContent([]byte("camera trap frame"))
	b := HashContent([]byte("camera trap frame"))
	if a != b {
		t.Fatalf("hash should be deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestHashContentKnownVector(t *testing.T) {
	// sha256("") is a fixed vector
	got := HashContent(nil)
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Fatalf("unexpected digest %s", got)
	}
}

func TestHashContentDiffers(t *testing.T) {
	if HashContent([]byte("a")) == HashContent([]byte("b")) {
		t.Fatal("different content should hash differently")
	}
}
