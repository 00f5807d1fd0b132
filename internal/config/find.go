package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "commentx"

// 探索する拡張子の優先順
var configExts = []string{".yaml", ".yml", ".toml", ".json"}

// searchDir は設定ファイルを探す 1 か所
type searchDir struct {
	dir   string
	stem  string // "." + appName or "config"
	where string
}

// Find は設定ファイルを探し、パスと見つかった場所（explicit / cwd-up / xdg / home）を返す。
// 明示パスが無ければ startDir から親へ、次に XDG、最後にホームを見る。見つからなければ空文字列。
func Find(startDir, explicitPath, xdgHome, home string) (string, string, error) {
	if explicit := strings.TrimSpace(explicitPath); explicit != "" {
		p, err := filepath.Abs(explicit)
		if err != nil {
			return "", "", err
		}
		info, err := os.Stat(p)
		if err != nil {
			return "", "", err
		}
		if info.IsDir() {
			return "", "", fmt.Errorf("COMMENTX_CONFIG %q points to a directory", p)
		}
		return p, "explicit", nil
	}

	dirs, err := searchDirs(startDir, xdgHome, home)
	if err != nil {
		return "", "", err
	}
	for _, d := range dirs {
		for _, ext := range configExts {
			p := filepath.Join(d.dir, d.stem+ext)
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				return p, d.where, nil
			}
		}
	}
	return "", "", nil
}

func searchDirs(startDir, xdgHome, home string) ([]searchDir, error) {
	start := strings.TrimSpace(startDir)
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	var dirs []searchDir
	for {
		dirs = append(dirs, searchDir{dir: dir, stem: "." + appName, where: "cwd-up"})
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	home = strings.TrimSpace(home)
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	xdg := strings.TrimSpace(xdgHome)
	if xdg == "" && home != "" {
		xdg = filepath.Join(home, ".config")
	}
	if xdg != "" {
		dirs = append(dirs, searchDir{dir: filepath.Join(xdg, appName), stem: "config", where: "xdg"})
	}
	if home != "" {
		dirs = append(dirs, searchDir{dir: home, stem: "." + appName, where: "home"})
	}
	return dirs, nil
}
