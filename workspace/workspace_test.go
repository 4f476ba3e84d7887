package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhamidi/crabrl/validator"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const validFiling = `<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:iso4217="http://www.xbrl.org/2003/iso4217" xmlns:us-gaap="http://fasb.org/us-gaap/2023">
<xbrli:context id="c1"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">0000000001</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2023-12-31</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:unit id="USD"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
<us-gaap:Assets contextRef="c1" unitRef="USD" decimals="0">100</us-gaap:Assets>
</xbrli:xbrl>`

const brokenRefFiling = `<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2023">
<us-gaap:Assets contextRef="nowhere">100</us-gaap:Assets>
</xbrli:xbrl>`

const malformedFiling = "<xbrli:xbrl>\n  <us-gaap:Assets contextRef=c1>1</us-gaap:Assets>\n</xbrli:xbrl>"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsInstancePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"filing.xml", true},
		{"dir/filing.XBRL", true},
		{"ex-20231231_cal.xml", false},
		{"ex-20231231_lab.xml", false},
		{"ex-20231231.xsd", false},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		if got := IsInstancePath(tt.path); got != tt.want {
			t.Errorf("IsInstancePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.xml"), validFiling)
	writeFile(t, filepath.Join(root, "sub", "b.xbrl"), brokenRefFiling)
	writeFile(t, filepath.Join(root, "a_pre.xml"), "<link:linkbase/>")
	writeFile(t, filepath.Join(root, ".git", "c.xml"), validFiling)

	w := New(root)
	if err := w.ScanAll(); err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	paths := w.Paths()
	want := []string{filepath.Join(root, "a.xml"), filepath.Join(root, "sub", "b.xbrl")}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("Paths = %q, want %q", paths, want)
	}

	a := w.GetFile(want[0])
	if a.Doc == nil || a.Doc.Facts.Len() != 1 || !a.Result.Valid {
		t.Errorf("a.xml = %+v", a)
	}
	if diags := w.Diagnostics(want[0]); len(diags) != 0 {
		t.Errorf("a.xml diagnostics = %+v", diags)
	}
}

func TestUpdateFileUsesCache(t *testing.T) {
	w := New(t.TempDir(), WithCacheSize(2))
	first := w.UpdateFile("x.xml", []byte(validFiling))
	second := w.UpdateFile("y.xml", []byte(validFiling))
	if first.Doc != second.Doc {
		t.Error("identical content parsed twice")
	}
	w.UpdateFile("z.xml", []byte(brokenRefFiling))
	w.UpdateFile("z.xml", []byte(malformedFiling))
	stats := w.CacheStats()
	if stats.Entries != 2 || stats.Hits != 1 || stats.Misses != 3 {
		t.Errorf("CacheStats = %+v", stats)
	}
	if w.Len() != 3 {
		t.Errorf("Len = %d, want 3", w.Len())
	}
	w.RemoveFile("x.xml")
	if w.GetFile("x.xml") != nil || w.Len() != 2 {
		t.Error("RemoveFile kept the filing")
	}
}

func TestDiagnosticsForParseError(t *testing.T) {
	w := New(t.TempDir())
	f := w.UpdateFile("bad.xml", []byte(malformedFiling))
	if f.ParseErr == nil || f.Doc != nil {
		t.Fatalf("filing = %+v, want parse error", f)
	}
	diags := f.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v", diags)
	}
	d := diags[0]
	if d.Code != "ParseError" || d.Severity != validator.SeverityError || d.Start.Line != 1 {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestDiagnosticsLocateReferences(t *testing.T) {
	w := New(t.TempDir())
	diags := w.UpdateFile("refs.xml", []byte(brokenRefFiling)).Diagnostics()
	if len(diags) == 0 {
		t.Fatal("no diagnostics")
	}
	d := diags[0]
	if d.Code != string(validator.InvalidContextRef) {
		t.Errorf("Code = %q, want %q", d.Code, validator.InvalidContextRef)
	}
	want := Position{Line: 1, Column: len(`<us-gaap:Assets contextRef="`)}
	if d.Start != want || d.End.Column != want.Column+len("nowhere") {
		t.Errorf("range = %+v..%+v, want start %+v", d.Start, d.End, want)
	}
}

func TestLocate(t *testing.T) {
	content := []byte(`<a id="f1"/><us-gaap:Assets contextRef="c1"/><us-gaap:AssetsNet/>`)
	tests := []struct {
		ref        string
		start, end int
	}{
		{"f1", 7, 9},
		{"c1", 40, 42},
		{"us-gaap:Assets", 13, 27},
		{"us-gaap:AssetsNet", 46, 63},
		{"absent", 0, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		start, end := locate(content, tt.ref)
		if start != tt.start || end != tt.end {
			t.Errorf("locate(%q) = %d, %d, want %d, %d", tt.ref, start, end, tt.start, tt.end)
		}
	}
}

func TestOffsetPosition(t *testing.T) {
	content := []byte("ab\ncé𝄞x\n")
	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{2, Position{0, 2}},
		{3, Position{1, 0}},
		{4, Position{1, 1}},
		{6, Position{1, 2}},
		{10, Position{1, 4}},
		{100, Position{2, 0}},
		{-5, Position{0, 0}},
	}
	for _, tt := range tests {
		if got := OffsetPosition(content, tt.offset); got != tt.want {
			t.Errorf("OffsetPosition(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestFileWatcherPoll(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.xml")
	writeFile(t, path, validFiling)

	w := New(root)
	var changed []string
	fw := NewFileWatcher(w).OnChange(func(p string, removed bool) {
		if removed {
			p = "-" + p
		}
		changed = append(changed, p)
	})

	fw.Poll()
	if w.GetFile(path) == nil || len(changed) != 1 {
		t.Fatalf("first poll: changed = %q", changed)
	}

	fw.Poll()
	if len(changed) != 1 {
		t.Errorf("unchanged file reported: %q", changed)
	}

	writeFile(t, path, brokenRefFiling)
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	fw.Poll()
	if len(changed) != 2 || w.GetFile(path).Result.Valid {
		t.Errorf("after change: changed = %q", changed)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	fw.Poll()
	if len(changed) != 3 || changed[2] != "-"+path || w.GetFile(path) != nil {
		t.Errorf("after remove: changed = %q", changed)
	}
}

func TestToProtocolDiagnostics(t *testing.T) {
	got := toProtocolDiagnostics([]Diagnostic{
		{Start: Position{1, 2}, End: Position{1, 5}, Severity: validator.SeverityWarning, Code: "DuplicateId", Message: "dup"},
	})
	if len(got) != 1 {
		t.Fatalf("got %d diagnostics", len(got))
	}
	d := got[0]
	if d.Range.Start.Line != 1 || d.Range.Start.Character != 2 || d.Range.End.Character != 5 {
		t.Errorf("Range = %+v", d.Range)
	}
	if *d.Severity != protocol.DiagnosticSeverityWarning || d.Code.Value != "DuplicateId" || *d.Source != "crabrl" {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestURIConversion(t *testing.T) {
	path, err := uriToPath("file:///tmp/a%20b/filing.xml")
	if err != nil || path != "/tmp/a b/filing.xml" {
		t.Errorf("uriToPath = %q, %v", path, err)
	}
	if got := pathToURI("/tmp/a b/filing.xml"); got != "file:///tmp/a%20b/filing.xml" {
		t.Errorf("pathToURI = %q", got)
	}
}
