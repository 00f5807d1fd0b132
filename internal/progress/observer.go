package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Observer は Estimator のスナップショットを受け取る
type Observer interface {
	Publish(Snapshot)
	Done(Snapshot)
}

type NoopObserver struct{}

func (NoopObserver) Publish(Snapshot) {}
func (NoopObserver) Done(Snapshot)    {}

// ObserverFunc adapts a function; Done is delivered as a final Publish.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) Publish(s Snapshot) { f(s) }
func (f ObserverFunc) Done(s Snapshot)    { f(s) }

type multiObserver []Observer

// NewMultiObserver fans snapshots out to every non-nil observer.
func NewMultiObserver(obs ...Observer) Observer {
	var out multiObserver
	for _, ob := range obs {
		if ob != nil {
			out = append(out, ob)
		}
	}
	switch len(out) {
	case 0:
		return NoopObserver{}
	case 1:
		return out[0]
	}
	return out
}

func (m multiObserver) Publish(s Snapshot) {
	for _, ob := range m {
		ob.Publish(s)
	}
}

func (m multiObserver) Done(s Snapshot) {
	for _, ob := range m {
		ob.Done(s)
	}
}

// ShouldShowProgress は --progress / --no-progress と端末判定から表示有無を決める。
// 明示指定が無ければ stdout と stderr の両方が端末のときだけ表示する。
func ShouldShowProgress(force, no bool) bool {
	if no {
		return false
	}
	if force {
		return true
	}
	return isTTY(os.Stdout) && isTTY(os.Stderr)
}

// writerObserver は端末なら 1 行を上書きし、それ以外は logfmt 形式で 1 行ずつ追記する。
type writerObserver struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool
}

func NewTTYObserver(w io.Writer) Observer {
	return &writerObserver{w: orStderr(w), tty: true}
}

func NewLineObserver(w io.Writer) Observer {
	return &writerObserver{w: orStderr(w)}
}

// NewAutoObserver picks the TTY form when w is a terminal.
func NewAutoObserver(w io.Writer) Observer {
	w = orStderr(w)
	f, ok := w.(*os.File)
	return &writerObserver{w: w, tty: ok && isTTY(f)}
}

func (o *writerObserver) Publish(s Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tty {
		_, _ = fmt.Fprintf(o.w, "\r\033[K%s", renderTTY(s))
		return
	}
	_, _ = fmt.Fprintln(o.w, renderLine(s))
}

func (o *writerObserver) Done(Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.tty {
		_, _ = fmt.Fprint(o.w, "\r\033[K")
	}
}

func orStderr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

func renderTTY(s Snapshot) string {
	stage := s.Stage
	if stage == "" {
		stage = "progress"
	}
	if s.Total < 0 {
		return fmt.Sprintf("[%s] collecting files...", stage)
	}
	rate, eta, p90 := "--/s", "--:--", ""
	if !s.Warmup {
		if s.Rate > 0 {
			rate = fmt.Sprintf("%.1f/s", s.Rate)
		}
		if s.ETAP50 > 0 {
			eta = formatETA(s.ETAP50)
		}
		if s.ETAP90 > 0 {
			p90 = " (P90 " + formatETA(s.ETAP90) + ")"
		}
	}
	failed := ""
	if s.Failed > 0 {
		failed = fmt.Sprintf(" %d failed", s.Failed)
	}
	return fmt.Sprintf("[%s] %3d%% %d/%d files %d comments%s %s ETA %s%s",
		stage, percent(s.Done, s.Total), s.Done, s.Total, s.Comments, failed, rate, eta, p90)
}

func renderLine(s Snapshot) string {
	return fmt.Sprintf("progress stage=%s done=%d total=%d comments=%d failed=%d rate=%.3f eta_p50=%g eta_p90=%g warmup=%t elapsed=%.3f",
		s.Stage, s.Done, s.Total, s.Comments, s.Failed, s.Rate, secondsOrNegOne(s.ETAP50.Seconds()), secondsOrNegOne(s.ETAP90.Seconds()), s.Warmup, s.Elapsed.Seconds())
}

// formatETA は hh:mm:ss。99 時間で頭打ちにする。
func formatETA(d time.Duration) string {
	total := max(int(math.Round(d.Seconds())), 0)
	h := min(total/3600, 99)
	return fmt.Sprintf("%02d:%02d:%02d", h, (total%3600)/60, total%60)
}

func secondsOrNegOne(sec float64) float64 {
	if sec <= 0 {
		return -1
	}
	return sec
}

func percent(done, total int) int {
	switch {
	case total <= 0 && done > 0:
		return 100
	case total <= 0 || done <= 0:
		return 0
	case done >= total:
		return 100
	}
	return done * 100 / total
}

func isTTY(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
