package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/phyten/commentx/internal/lang"
)

//go:embed templates/index.html assets
var uiFS embed.FS

var indexTmpl = template.Must(template.ParseFS(uiFS, "templates/index.html"))

// staticAsset は埋め込み済みの静的ファイル 1 つ分
type staticAsset struct {
	file        string
	contentType string
}

var staticAssets = map[string]staticAsset{
	"/assets/styles.css": {file: "assets/styles.css", contentType: "text/css; charset=utf-8"},
	"/assets/ui.js":      {file: "assets/ui.js", contentType: "application/javascript; charset=utf-8"},
}

const contentSecurityPolicy = "default-src 'none'; style-src 'self'; script-src 'self'; img-src 'self'; connect-src 'self'; form-action 'self'; base-uri 'none'"

type indexPage struct {
	StylesPath string
	ScriptPath string
	// Languages は強制指定の選択肢。ETC は自動判定の受け皿なので含めない。
	Languages []string
}

// Register mounts the UI page and its static assets.
func Register(mux *http.ServeMux) {
	mux.HandleFunc("/", serveIndex)
	for path, asset := range staticAssets {
		mux.Handle(path, asset)
	}
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", contentSecurityPolicy)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "no-referrer")
	page := indexPage{StylesPath: "/assets/styles.css", ScriptPath: "/assets/ui.js", Languages: forcedLanguages()}
	if err := indexTmpl.Execute(w, page); err != nil {
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
	}
}

func (a staticAsset) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := uiFS.ReadFile(a.file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(body)
}

func forcedLanguages() []string {
	var out []string
	for _, id := range lang.IDs() {
		if id != lang.ETC {
			out = append(out, id.String())
		}
	}
	return out
}
