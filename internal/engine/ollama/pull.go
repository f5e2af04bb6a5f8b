package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/nadzzz/polyglot/internal/engine"
)

type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type pullStatus struct {
	Status    string `json:"status"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// puller runs at most one model pull at a time. Handles created while a pull
// is in flight join it instead of starting another.
type puller struct {
	h      *Host
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	job *pullJob
}

func newPuller(h *Host) *puller {
	ctx, cancel := context.WithCancel(context.Background())
	return &puller{h: h, ctx: ctx, cancel: cancel}
}

// start joins the current pull, or starts a new one when there is none or the
// last one failed.
func (p *puller) start(c engine.Capability, m engine.Monitor) *pullJob {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.job != nil && !p.job.failed() {
		p.job.subscribe(c, m)
		return p.job
	}

	job := &pullJob{done: make(chan struct{})}
	job.subscribe(c, m)
	p.job = job
	go p.run(job)
	return job
}

func (p *puller) run(job *pullJob) {
	p.h.logger.Info("pulling model", "model", p.h.model)
	err := p.h.pullModel(p.ctx, job.report)
	if err != nil {
		p.h.logger.Error("model pull failed", "model", p.h.model, "error", err)
	} else {
		p.h.logger.Info("model pull complete", "model", p.h.model)
	}
	job.finish(err)
}

func (p *puller) close() {
	p.cancel()
}

// pullJob is one model download. A nil *pullJob means nothing to wait for.
type pullJob struct {
	done chan struct{}
	err  error

	mu          sync.Mutex
	subscribers []subscriber
}

type subscriber struct {
	capability engine.Capability
	monitor    engine.Monitor
}

func (j *pullJob) subscribe(c engine.Capability, m engine.Monitor) {
	if m == nil {
		return
	}
	j.mu.Lock()
	j.subscribers = append(j.subscribers, subscriber{capability: c, monitor: m})
	j.mu.Unlock()
}

func (j *pullJob) report(p engine.DownloadProgress) {
	j.mu.Lock()
	subs := append([]subscriber(nil), j.subscribers...)
	j.mu.Unlock()

	for _, s := range subs {
		engine.Notify(s.monitor, s.capability, p)
	}
}

func (j *pullJob) finish(err error) {
	j.err = err
	close(j.done)
}

func (j *pullJob) failed() bool {
	select {
	case <-j.done:
		return j.err != nil
	default:
		return false
	}
}

// wait blocks until the pull finishes or ctx is done.
func (j *pullJob) wait(ctx context.Context) error {
	if j == nil {
		return nil
	}
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pullModel downloads the configured model via /api/pull, reporting byte
// progress for each layer as it arrives.
func (h *Host) pullModel(ctx context.Context, report func(engine.DownloadProgress)) error {
	bodyBytes, err := json.Marshal(pullRequest{Model: h.model, Stream: true})
	if err != nil {
		return fmt.Errorf("marshalling pull request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/api/pull", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama pull request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ollama pull failed (status %d): %s", resp.StatusCode, respBody)
	}

	var last string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var st pullStatus
		if err := json.Unmarshal(line, &st); err != nil {
			return fmt.Errorf("decoding pull status: %w", err)
		}
		if st.Error != "" {
			return fmt.Errorf("ollama pull: %s", st.Error)
		}
		if st.Total > 0 {
			report(engine.DownloadProgress{Loaded: st.Completed, Total: st.Total})
		}
		last = st.Status
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading pull stream: %w", err)
	}
	if last != "success" {
		return fmt.Errorf("ollama pull ended with status %q", last)
	}
	return nil
}
