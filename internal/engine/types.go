package engine

import (
	"github.com/phyten/commentx/internal/execx"
	"github.com/phyten/commentx/internal/model"
	"github.com/phyten/commentx/internal/progress"
)

// Item は 1 件のコメントに表示用のファイルパスを添えたもの
type Item struct {
	model.Comment
	File string `json:"file"`
}

// ItemError は 1 ファイルの処理に失敗した際の情報を表す
type ItemError struct {
	File    string `json:"file"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// エラーが発生したフェーズ
const (
	StageList    = "list"
	StageAcquire = "acquire"
	StageDecode  = "decode"
)

// Options は実行オプション
type Options struct {
	Targets          []string
	Charset          string
	Lang             string
	Includes         []string
	Excludes         []string
	ExcludeTypical   bool
	IncludeHidden    bool
	NoGitignore      bool
	UseGit           bool
	MaxFileBytes     int64
	SkipEmpty        bool
	Jobs             int
	Progress         bool
	ProgressObserver progress.Observer `json:"-"`
	Runner           execx.Runner      `json:"-"`
}

// Result は出力
type Result struct {
	Items      []Item         `json:"items"`
	Files      int            `json:"files"`
	Total      int            `json:"total"`
	ElapsedMS  int64          `json:"elapsed_ms"`
	Errors     []ItemError    `json:"errors,omitempty"`
	ErrorCount int            `json:"error_count"`
	Languages  map[string]int `json:"languages,omitempty"`
}
