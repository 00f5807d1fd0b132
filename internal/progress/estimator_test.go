package progress

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time       { return c.t }
func (c *fakeClock) tick(d time.Duration) { c.t = c.t.Add(d) }

func newClockedEstimator(total int, cfg Config) (*Estimator, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	est := NewEstimator(total, cfg)
	est.now = clock.now
	est.start, est.last, est.lastNotify = clock.t, clock.t, clock.t
	return est, clock
}

func TestEstimatorAdvanceIsSequential(t *testing.T) {
	const workers = 128
	est := NewEstimator(workers, Config{NotifyInterval: time.Nanosecond})

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan int, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			snap, _ := est.Advance(Step{Files: 1, Comments: 2})
			results <- snap.Done
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	seen := make(map[int]bool, workers)
	for r := range results {
		if r <= 0 || r > workers || seen[r] {
			t.Fatalf("進捗値が範囲外か重複しています: got=%d", r)
		}
		seen[r] = true
	}
	if len(seen) != workers {
		t.Fatalf("進捗値の数が期待と一致しません: want=%d got=%d", workers, len(seen))
	}
	if got := est.Snapshot().Comments; got != 2*workers {
		t.Fatalf("コメント数が集計されるべきです: got=%d", got)
	}
}

func TestEstimatorStartsInListStage(t *testing.T) {
	est := NewEstimator(-1, Config{})
	snap := est.Snapshot()
	if snap.Stage != StageList || snap.Remaining != -1 {
		t.Fatalf("初期状態は list かつ残り未確定であるべきです: %+v", snap)
	}
	snap, changed := est.Stage(StageExtract)
	if !changed || snap.Stage != StageExtract {
		t.Fatalf("extract へ切り替わるべきです: changed=%t stage=%s", changed, snap.Stage)
	}
	if _, changed := est.Stage(StageExtract); changed {
		t.Fatalf("同じステージへの切り替えは変更なしとして扱うべきです")
	}
}

func TestEstimatorETAUsesRecentRates(t *testing.T) {
	est, clock := newClockedEstimator(10, Config{WarmupFiles: 2, WarmupDuration: time.Second, NotifyInterval: time.Hour})
	for _, gap := range []time.Duration{time.Second, time.Second, time.Second, 2 * time.Second} {
		clock.tick(gap)
		est.Advance(Step{Files: 1})
	}
	snap := est.Snapshot()
	if snap.Warmup {
		t.Fatalf("ウォームアップは終わっているべきです: %+v", snap)
	}
	if snap.ETAP50 != 6*time.Second {
		t.Fatalf("P50 は中央値レートから求めるべきです: got=%s", snap.ETAP50)
	}
	if snap.ETAP90 <= snap.ETAP50 {
		t.Fatalf("P90 は P50 より長いべきです: p50=%s p90=%s", snap.ETAP50, snap.ETAP90)
	}
}

func TestEstimatorNotifiesAtMostOncePerInterval(t *testing.T) {
	est, clock := newClockedEstimator(3, Config{NotifyInterval: time.Second})
	clock.tick(100 * time.Millisecond)
	if _, notify := est.Advance(Step{Files: 1}); notify {
		t.Fatalf("間隔内の通知は抑制されるべきです")
	}
	clock.tick(time.Second)
	if _, notify := est.Advance(Step{Files: 1}); !notify {
		t.Fatalf("間隔経過後は通知されるべきです")
	}
	if _, notify := est.Advance(Step{Files: 1}); !notify {
		t.Fatalf("最後のファイルは必ず通知されるべきです")
	}
	if _, notify := est.Advance(Step{}); notify {
		t.Fatalf("空の Step では通知しないべきです")
	}
}

func TestCompleteFillsRemaining(t *testing.T) {
	est := NewEstimator(10, Config{})
	est.Advance(Step{Files: 3, Comments: 5, Failed: 1})
	snap := est.Complete()
	if snap.Done != 10 || snap.Remaining != 0 || snap.Comments != 5 || snap.Failed != 1 {
		t.Fatalf("Complete 後は done=total で件数は保持されるべきです: %+v", snap)
	}
}

func TestWindowOverwritesOldest(t *testing.T) {
	w := newWindow(3)
	for _, v := range []float64{1, 2, 3, 4, math.NaN(), math.Inf(1)} {
		w.Add(v)
	}
	if w.Len() != 3 {
		t.Fatalf("容量を超えて保持してはいけません: got=%d", w.Len())
	}
	if got := w.Quantile(0); got != 2 {
		t.Fatalf("最古の値は上書きされるべきです: got=%v", got)
	}
	if got := w.Quantile(0.5); got != 3 {
		t.Fatalf("中央値が想定と異なります: got=%v", got)
	}
	if got := newWindow(0).Quantile(0.5); got != 0 {
		t.Fatalf("空のウィンドウは 0 を返すべきです: got=%v", got)
	}
}

func TestRenderTTY(t *testing.T) {
	cases := []struct {
		name string
		snap Snapshot
		want string
	}{
		{"list", Snapshot{Stage: StageList, Total: -1}, "[list] collecting files..."},
		{"warmup", Snapshot{Stage: StageExtract, Total: 4, Done: 2, Comments: 7, Warmup: true}, "[extract]  50% 2/4 files 7 comments --/s ETA --:--"},
		{"eta", Snapshot{Stage: StageExtract, Total: 4, Done: 4, Comments: 9, Failed: 1, Rate: 2.5, ETAP50: 90 * time.Second, ETAP90: 2 * time.Minute},
			"[extract] 100% 4/4 files 9 comments 1 failed 2.5/s ETA 00:01:30 (P90 00:02:00)"},
	}
	for _, tc := range cases {
		if got := renderTTY(tc.snap); got != tc.want {
			t.Fatalf("%s: TTY 表示が想定と異なります\n got=%q\nwant=%q", tc.name, got, tc.want)
		}
	}
}

func TestRenderLine(t *testing.T) {
	line := renderLine(Snapshot{Stage: StageList, Total: 1})
	if !strings.HasPrefix(line, "progress stage=list done=0 total=1 comments=0 failed=0") {
		t.Fatalf("行表示が想定と異なります: %q", line)
	}
	if !strings.Contains(line, "eta_p50=-1") {
		t.Fatalf("ETA 未確定は -1 であるべきです: %q", line)
	}
}

func TestFormatETA(t *testing.T) {
	if got := formatETA(3725 * time.Second); got != "01:02:05" {
		t.Fatalf("出力が想定外です: %q", got)
	}
	if got := formatETA(500 * time.Hour); !strings.HasPrefix(got, "99:") {
		t.Fatalf("99 時間で頭打ちにするべきです: got=%q", got)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct{ done, total, want int }{
		{5, 4, 100}, {1, 4, 25}, {0, 0, 0}, {3, 0, 100}, {0, -1, 0},
	}
	for _, tc := range cases {
		if got := percent(tc.done, tc.total); got != tc.want {
			t.Fatalf("percent(%d, %d) が想定外です: got=%d want=%d", tc.done, tc.total, got, tc.want)
		}
	}
}

func TestLineObserverWritesOneLinePerSnapshot(t *testing.T) {
	var buf bytes.Buffer
	ob := NewAutoObserver(&buf)
	ob.Publish(Snapshot{Stage: StageExtract, Total: 2, Done: 1})
	ob.Publish(Snapshot{Stage: StageExtract, Total: 2, Done: 2})
	ob.Done(Snapshot{})
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Fatalf("非 TTY では 1 スナップショット 1 行であるべきです: got=%d", got)
	}
}

func TestTTYObserverRedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	ob := NewTTYObserver(&buf)
	ob.Publish(Snapshot{Stage: StageList, Total: -1})
	ob.Done(Snapshot{})
	got := buf.String()
	if strings.Contains(got, "\n") || strings.Count(got, "\r\033[K") != 2 {
		t.Fatalf("TTY では改行せず行を上書きするべきです: %q", got)
	}
}

func TestMultiObserverSkipsNil(t *testing.T) {
	var n int
	ob := NewMultiObserver(nil, ObserverFunc(func(Snapshot) { n++ }), ObserverFunc(func(Snapshot) { n++ }))
	ob.Publish(Snapshot{})
	ob.Done(Snapshot{})
	if n != 4 {
		t.Fatalf("nil を除いた observer に配信されるべきです: got=%d", n)
	}
	if _, ok := NewMultiObserver(nil).(NoopObserver); !ok {
		t.Fatalf("observer が無い場合は NoopObserver を返すべきです")
	}
}
