package model

// Kind はコメントの種別（行コメント／ブロックコメント）を表します。
type Kind string

const (
	KindLine  Kind = "line"
	KindBlock Kind = "block"
)

// Span は 1 件のコメント範囲を行・桁・バイトオフセットで表します。
// 行と桁は 1 始まりで、桁は文字（rune）単位です。終端は排他的です。
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
	ByteStart int `json:"byte_start"`
	ByteEnd   int `json:"byte_end"`
}

// Comment は抽出された 1 件のコメントを表します。
//
// Offset はデコード済みテキスト中の文字（rune）インデックスで、開始マーカーを含みます。
// Text はマーカーを含むコメントの原文、URI は走査したリソースの位置です。
type Comment struct {
	Offset int    `json:"start_offset"`
	Text   string `json:"comment"`
	URI    string `json:"uri"`
	Lang   string `json:"lang,omitempty"`
	Kind   Kind   `json:"kind"`
	Span   Span   `json:"span"`
}
