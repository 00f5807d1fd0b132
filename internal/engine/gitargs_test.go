package engine

import (
	"reflect"
	"testing"
)

func TestBuildLsFilesPathspecs_DefaultsToDot(t *testing.T) {
	t.Parallel()

	got := buildLsFilesPathspecs(nil, nil, false)
	if !reflect.DeepEqual(got, []string{"."}) {
		t.Fatalf("既定の pathspec は . のみであるべきです: %#v", got)
	}
}

func TestBuildLsFilesPathspecsIncludesAndExcludes(t *testing.T) {
	t.Parallel()

	includes := []string{"src/**", " pkg/*.go ", ":(glob)cmd/**", "  "}
	excludes := []string{"vendor/**", ":(exclude)third_party/**", ":!build/**"}

	got := buildLsFilesPathspecs(includes, excludes, true)

	want := []string{":(glob)src/**", ":(glob)pkg/*.go", ":(glob)cmd/**"}
	for _, g := range typicalExcludeGlobs {
		want = append(want, ":(glob,exclude)"+g)
	}
	want = append(want, ":(glob,exclude)vendor/**", ":(exclude)third_party/**", ":!build/**")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pathspec が想定外です:\n got=%v\nwant=%v", got, want)
	}
}

func TestBuildLsFilesArgs(t *testing.T) {
	t.Parallel()

	got := buildLsFilesArgs(nil, nil, false)
	want := []string{"-c", "core.quotePath=false", "ls-files", "-z", "--cached", "--others", "--exclude-standard", "--", "."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("git 引数が想定外です: got=%v want=%v", got, want)
	}
}

func TestPathFilter(t *testing.T) {
	t.Parallel()

	f, err := newPathFilter([]string{"src/**", "*.md"}, []string{":!src/gen/**", "*_test.go"}, true)
	if err != nil {
		t.Fatalf("フィルタの作成に失敗しました: %v", err)
	}
	cases := map[string]bool{
		"src/a.go":            true,
		"src/a_test.go":       false,
		"src/gen/x.go":        false,
		"docs/readme.md":      true,
		"cmd/main.go":         false,
		"src/vendor/lib.go":   false,
		"src/app.min.js":      false,
		"node_modules/x/y.md": false,
	}
	for rel, want := range cases {
		if got := f.Allow(rel); got != want {
			t.Fatalf("Allow(%q) が想定外です: got=%t want=%t", rel, got, want)
		}
	}
	if !f.PruneDir("vendor") || !f.PruneDir("a/node_modules") || f.PruneDir("src") {
		t.Fatalf("PruneDir の判定が想定外です")
	}
	var none *pathFilter
	if !none.Allow("anything") || none.PruneDir("x") {
		t.Fatalf("nil のフィルタはすべて許可するべきです")
	}
}
