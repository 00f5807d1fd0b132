// Package progress は抽出バッチの進捗と ETA を推定し、端末や SSE に配信する。
package progress

import (
	"math"
	"sync"
	"time"
)

// Stage はバッチ実行のフェーズを表す
type Stage string

const (
	// StageList は対象ファイルの列挙フェーズ（Total は未確定で負）
	StageList Stage = "list"
	// StageExtract はコメント抽出フェーズ
	StageExtract Stage = "extract"
)

// Snapshot は進捗のある時点の状態
type Snapshot struct {
	Stage     Stage         `json:"stage"`
	Total     int           `json:"total"`
	Done      int           `json:"done"`
	Remaining int           `json:"remaining"`
	Comments  int           `json:"comments"`
	Failed    int           `json:"failed"`
	Rate      float64       `json:"rate_per_sec"`
	ETAP50    time.Duration `json:"eta_p50"`
	ETAP90    time.Duration `json:"eta_p90"`
	Warmup    bool          `json:"warmup"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Step は 1 回の Advance で片付いた仕事
type Step struct {
	Files    int
	Comments int
	Failed   int
}

// Config tunes the estimator. Zero fields take the defaults.
type Config struct {
	// Alpha is the EMA smoothing factor in (0, 1].
	Alpha          float64
	WindowSize     int
	WarmupFiles    int
	WarmupDuration time.Duration
	NotifyInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Alpha <= 0 || c.Alpha > 1 {
		c.Alpha = 0.2
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 64
	}
	if c.WarmupFiles <= 0 {
		c.WarmupFiles = 16
	}
	if c.WarmupDuration <= 0 {
		c.WarmupDuration = 2 * time.Second
	}
	if c.NotifyInterval <= 0 {
		c.NotifyInterval = 200 * time.Millisecond
	}
	return c
}

// slowRateFactor は分位点が得られないときの悲観的レートの係数
const slowRateFactor = 0.6

// Estimator は files/s の EMA と直近レートの分位点から ETA を推定する。
// 複数の goroutine から Advance してよい。ステージが変わるとレートの履歴は捨てる。
type Estimator struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	start      time.Time
	last       time.Time
	lastNotify time.Time

	stage    Stage
	total    int
	done     int
	comments int
	failed   int
	ema      float64
	rates    *window
}

// NewEstimator starts in StageList. A negative total means "not known yet".
func NewEstimator(total int, cfg Config) *Estimator {
	e := &Estimator{cfg: cfg.withDefaults(), now: time.Now, stage: StageList, total: total}
	e.start = e.now()
	e.last, e.lastNotify = e.start, e.start
	e.rates = newWindow(e.cfg.WindowSize)
	return e
}

func (e *Estimator) SetTotal(total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.total = total
}

// Stage switches to stage. The bool is false when stage was already current.
func (e *Estimator) Stage(stage Stage) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	if stage == e.stage {
		return e.snapshotLocked(now), false
	}
	e.stage = stage
	e.ema = 0
	e.rates = newWindow(e.cfg.WindowSize)
	e.last = now
	e.lastNotify = now
	return e.snapshotLocked(now), true
}

// Advance records finished work. The bool reports whether observers should be
// notified: at most once per NotifyInterval, and always for the last file.
func (e *Estimator) Advance(step Step) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	if step.Files <= 0 && step.Comments <= 0 && step.Failed <= 0 {
		return e.snapshotLocked(now), false
	}
	e.comments += step.Comments
	e.failed += step.Failed
	if step.Files > 0 {
		if now.Before(e.last) {
			now = e.last
		}
		dt := max(now.Sub(e.last).Seconds(), 1e-6)
		instant := float64(step.Files) / dt
		if e.ema == 0 {
			e.ema = instant
		} else {
			e.ema = e.cfg.Alpha*instant + (1-e.cfg.Alpha)*e.ema
		}
		e.rates.Add(instant)
		e.done += step.Files
		e.last = now
	}
	snap := e.snapshotLocked(now)
	notify := snap.Remaining == 0 || now.Sub(e.lastNotify) >= e.cfg.NotifyInterval
	if notify {
		e.lastNotify = now
	}
	return snap, notify
}

func (e *Estimator) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.now())
}

// Complete marks every known file as done and returns the final snapshot.
func (e *Estimator) Complete() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.total >= 0 && e.done < e.total {
		e.done = e.total
	}
	now := e.now()
	e.lastNotify = now
	return e.snapshotLocked(now)
}

func (e *Estimator) snapshotLocked(now time.Time) Snapshot {
	remaining := -1
	if e.total >= 0 {
		remaining = max(e.total-e.done, 0)
	}
	elapsed := now.Sub(e.start)
	warm := e.done >= e.cfg.WarmupFiles && elapsed >= e.cfg.WarmupDuration

	snap := Snapshot{
		Stage:     e.stage,
		Total:     e.total,
		Done:      e.done,
		Remaining: remaining,
		Comments:  e.comments,
		Failed:    e.failed,
		Rate:      e.ema,
		Warmup:    !warm,
		StartedAt: e.start,
		UpdatedAt: now,
		Elapsed:   elapsed,
	}
	if warm && remaining > 0 {
		typical := e.rates.Quantile(0.5)
		if typical <= 0 {
			typical = e.ema
		}
		slow := e.rates.Quantile(0.1)
		if slow <= 0 {
			slow = typical * slowRateFactor
		}
		snap.ETAP50 = etaFor(remaining, typical)
		snap.ETAP90 = etaFor(remaining, slow)
	}
	return snap
}

func etaFor(files int, rate float64) time.Duration {
	if rate <= 0 || files <= 0 {
		return 0
	}
	seconds := float64(files) / rate
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	if seconds >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}
