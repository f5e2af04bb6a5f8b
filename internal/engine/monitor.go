package engine

import "log/slog"

// DownloadProgress is one model-download progress event.
type DownloadProgress struct {
	// Loaded is the number of bytes downloaded so far.
	Loaded int64

	// Total is the expected size in bytes, 0 when unknown.
	Total int64
}

// Monitor observes model downloads started while creating a capability handle.
// Implementations must be safe for concurrent use.
type Monitor interface {
	DownloadProgress(c Capability, p DownloadProgress)
}

// MonitorFunc adapts a function to Monitor.
type MonitorFunc func(c Capability, p DownloadProgress)

// DownloadProgress calls f.
func (f MonitorFunc) DownloadProgress(c Capability, p DownloadProgress) { f(c, p) }

// LogMonitor returns a Monitor that only logs progress.
func LogMonitor(logger *slog.Logger) Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return MonitorFunc(func(c Capability, p DownloadProgress) {
		logger.Info("model download progress",
			"capability", c.String(),
			"loaded", p.Loaded,
			"total", p.Total)
	})
}

// Notify reports p to m if m is set.
func Notify(m Monitor, c Capability, p DownloadProgress) {
	if m != nil {
		m.DownloadProgress(c, p)
	}
}
