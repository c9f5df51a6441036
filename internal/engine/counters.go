package engine

import "bannergrab/internal/metrics"

// Counters bundles the atomic Stats with their optional Prometheus
// mirror so a Connection Task updates both with one call per transition,
// rather than threading two separate observers through runConnection.
type Counters struct {
	Stats   *Stats
	Metrics *metrics.EngineMetrics // nil when metrics export is disabled
}

func NewCounters(m *metrics.EngineMetrics) *Counters {
	return &Counters{Stats: &Stats{}, Metrics: m}
}

func (c *Counters) initConnected() {
	c.Stats.InitConnectedHosts.Add(1)
	if c.Metrics != nil {
		c.Metrics.InitConnectedHosts.Inc()
	}
}

func (c *Counters) connected() {
	c.Stats.ConnectedHosts.Add(1)
	if c.Metrics != nil {
		c.Metrics.ConnectedHosts.Inc()
	}
}

func (c *Counters) connTimedOut() {
	c.Stats.ConnTimedOut.Add(1)
	c.Stats.TimedOut.Add(1)
	if c.Metrics != nil {
		c.Metrics.ConnTimedOut.Inc()
		c.Metrics.TimedOut.Inc()
	}
}

func (c *Counters) readTimedOut() {
	c.Stats.ReadTimedOut.Add(1)
	c.Stats.TimedOut.Add(1)
	if c.Metrics != nil {
		c.Metrics.ReadTimedOut.Inc()
		c.Metrics.TimedOut.Inc()
	}
}

func (c *Counters) completed() {
	c.Stats.CompletedHosts.Add(1)
	if c.Metrics != nil {
		c.Metrics.CompletedHosts.Inc()
	}
}

func (c *Counters) found() {
	c.Stats.Found.Add(1)
	if c.Metrics != nil {
		c.Metrics.Found.Inc()
	}
}
