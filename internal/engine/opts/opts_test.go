package opts

import (
	"math"
	"net/url"
	"reflect"
	"testing"

	"github.com/phyten/commentx/internal/engine"
)

func TestParseBoolVariants(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", "yes", "On"}
	falseVals := []string{"0", "false", "FALSE", "no", "OFF"}

	for _, tc := range trueVals {
		t.Run("true/"+tc, func(t *testing.T) {
			got, err := ParseBool(tc, "flag")
			if err != nil {
				t.Fatalf("ParseBool(%q) error: %v", tc, err)
			}
			if !got {
				t.Fatalf("ParseBool(%q) = false, want true", tc)
			}
		})
	}

	for _, tc := range falseVals {
		t.Run("false/"+tc, func(t *testing.T) {
			got, err := ParseBool(tc, "flag")
			if err != nil {
				t.Fatalf("ParseBool(%q) error: %v", tc, err)
			}
			if got {
				t.Fatalf("ParseBool(%q) = true, want false", tc)
			}
		})
	}

	if _, err := ParseBool("maybe", "flag"); err == nil {
		t.Fatal("ParseBool should reject unknown values")
	}
}

func TestParseIntInRange(t *testing.T) {
	got, err := ParseIntInRange("42", "jobs", 1, 64)
	if err != nil {
		t.Fatalf("ParseIntInRange error: %v", err)
	}
	if got != 42 {
		t.Fatalf("ParseIntInRange = %d, want 42", got)
	}

	if _, err := ParseIntInRange("-1", "max_file_bytes", 0, math.MaxInt); err == nil {
		t.Fatal("ParseIntInRange should reject negative values when min=0")
	}

	if _, err := ParseIntInRange("65", "jobs", 1, 64); err == nil {
		t.Fatal("ParseIntInRange should reject values above max")
	}
}

func TestDefaults(t *testing.T) {
	def := Defaults()
	if !reflect.DeepEqual(def.Targets, []string{"."}) {
		t.Fatalf("default target should be '.': %v", def.Targets)
	}
	if def.Charset != "UTF-8" {
		t.Fatalf("default charset should be UTF-8: %q", def.Charset)
	}
	if def.Jobs < 1 || def.Jobs > 64 {
		t.Fatalf("default jobs out of range: %d", def.Jobs)
	}
	if got := Defaults("a", "b").Targets; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("targets should be kept: %v", got)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	o := engine.Options{Targets: []string{" src ", ""}, Charset: " ", Lang: "Python", Jobs: 8, Includes: []string{" **/*.go "}}
	if err := NormalizeAndValidate(&o); err != nil {
		t.Fatalf("NormalizeAndValidate error: %v", err)
	}
	if !reflect.DeepEqual(o.Targets, []string{"src"}) {
		t.Fatalf("Targets normalized incorrectly: %v", o.Targets)
	}
	if o.Charset != "UTF-8" {
		t.Fatalf("Charset normalized incorrectly: %q", o.Charset)
	}
	if o.Lang != "PY" {
		t.Fatalf("Lang normalized incorrectly: %q", o.Lang)
	}
	if !reflect.DeepEqual(o.Includes, []string{"**/*.go"}) {
		t.Fatalf("Includes normalized incorrectly: %v", o.Includes)
	}

	cases := map[string]engine.Options{
		"lang":    {Lang: "cobol", Jobs: 1},
		"charset": {Charset: "klingon-8", Jobs: 1},
		"jobs":    {Jobs: 1024},
		"size":    {Jobs: 1, MaxFileBytes: -1},
		"glob":    {Jobs: 1, Excludes: []string{"src/[a"}},
	}
	for name, bad := range cases {
		if err := NormalizeAndValidate(&bad); err == nil {
			t.Fatalf("NormalizeAndValidate should fail for invalid %s", name)
		}
	}
}

func TestApplyWebQueryToOptions(t *testing.T) {
	def := Defaults("/repo")
	q := url.Values{}
	q.Set("lang", "go")
	q.Set("charset", "Shift_JIS")
	q.Set("skip_empty", "yes")
	q.Set("git", "on")
	q.Set("jobs", "4")
	q.Set("max_file_bytes", "1024")
	q.Add("include", "src/**,cmd/**")
	q.Add("include", "internal/**")

	got, err := ApplyWebQueryToOptions(def, q)
	if err != nil {
		t.Fatalf("ApplyWebQueryToOptions error: %v", err)
	}
	if got.Lang != "go" || got.Charset != "Shift_JIS" {
		t.Fatalf("lang/charset mismatch: %q %q", got.Lang, got.Charset)
	}
	if !got.SkipEmpty || !got.UseGit {
		t.Fatal("boolean flags should be applied")
	}
	if got.Jobs != 4 || got.MaxFileBytes != 1024 {
		t.Fatalf("numeric mismatch: jobs=%d max=%d", got.Jobs, got.MaxFileBytes)
	}
	if !reflect.DeepEqual(got.Includes, []string{"src/**", "cmd/**", "internal/**"}) {
		t.Fatalf("includes mismatch: %v", got.Includes)
	}
	if !reflect.DeepEqual(got.Targets, []string{"/repo"}) {
		t.Fatalf("targets should default: %v", got.Targets)
	}

	if _, err := ApplyWebQueryToOptions(def, url.Values{"jobs": {"0"}}); err == nil {
		t.Fatal("jobs=0 should be rejected")
	}
	if _, err := ApplyWebQueryToOptions(def, url.Values{"git": {"maybe"}}); err == nil {
		t.Fatal("invalid bool should be rejected")
	}
}

func TestNormalizeOutput(t *testing.T) {
	for in, want := range map[string]string{"TABLE": "table", " md ": "markdown", "jsonl": "ndjson", "sqlite": "sqlite", "csv": "csv"} {
		got, err := NormalizeOutput(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeOutput(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := NormalizeOutput("xml"); err == nil {
		t.Fatal("NormalizeOutput should reject unknown formats")
	}
}

func TestSplitMulti(t *testing.T) {
	vals := []string{"a,b", " c ", "", ",d"}
	got := SplitMulti(vals)
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("SplitMulti length mismatch: got=%d want=%d", len(got), len(want))
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("SplitMulti mismatch at %d: got=%q want=%q", i, got[i], v)
		}
	}
}
