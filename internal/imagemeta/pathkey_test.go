package imagemeta

import "testing"

func TestParsePathKeyFullConvention(t *testing.T) {
	meta := ParsePathKey("proj/Brazil/acme/cam07/2024-01-01/IMG_0001.JPG")

	assertStr(t, "project", meta.Project, "proj")
	assertStr(t, "country", meta.Country, "Brazil")
	assertStr(t, "client", meta.Client, "acme")
	assertStr(t, "camera", meta.CameraID, "cam07")
	assertStr(t, "date", meta.Date, "2024-01-01")
	assertStr(t, "filename", meta.FileName, "IMG_0001.JPG")
}

func TestParsePathKeyNestedDirectories(t *testing.T) {
	meta := ParsePathKey("proj/Brazil/acme/cam07/2024-01-01/burst/IMG_0002.JPG")
	assertStr(t, "filename", meta.FileName, "IMG_0002.JPG")
	assertStr(t, "date", meta.Date, "2024-01-01")
}

func TestParsePathKeyShortKey(t *testing.T) {
	meta := ParsePathKey("onlyfile.jpg")

	assertStr(t, "project", meta.Project, "onlyfile.jpg")
	assertStr(t, "filename", meta.FileName, "onlyfile.jpg")
	for name, field := range map[string]*string{
		"country": meta.Country,
		"client":  meta.Client,
		"camera":  meta.CameraID,
		"date":    meta.Date,
	} {
		if field != nil {
			t.Fatalf("expected %s to be absent, got %q", name, *field)
		}
	}
}

func TestParsePathKeyEmpty(t *testing.T) {
	meta := ParsePathKey("")
	if meta.Project != nil || meta.FileName != nil {
		t.Fatalf("empty key should yield all-absent metadata: %+v", meta)
	}
}

func assertStr(t *testing.T, name string, got *string, want string) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected %s %q, got absent", name, want)
	}
	if *got != want {
		t.Fatalf("expected %s %q, got %q", name, want, *got)
	}
}
