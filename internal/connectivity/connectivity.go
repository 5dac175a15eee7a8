package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	ModeProbe   = "probe"
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Checker reports whether the device currently has connectivity. It does
// not distinguish "no network" from "server unreachable".
type Checker interface {
	IsOnline(ctx context.Context) bool
}

// Static always returns the same answer.
type Static bool

func (s Static) IsOnline(context.Context) bool { return bool(s) }

// Probe decides connectivity by sending a HEAD request to a known URL. Any
// HTTP response counts as online; only transport failures count as
// offline. The last answer is cached and refreshed by Refresh.
type Probe struct {
	client   *resty.Client
	url      string
	logger   *zap.Logger
	online   atomic.Bool
	probedAt atomic.Int64
	maxAge   time.Duration
}

// NewProbe creates a probe against url. Cached answers older than maxAge
// are refreshed inline by IsOnline; maxAge <= 0 probes on every call.
func NewProbe(url string, timeout, maxAge time.Duration, logger *zap.Logger) *Probe {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "weather-history/1.0").
		SetRetryCount(0)

	return &Probe{
		client: client,
		url:    url,
		logger: logger,
		maxAge: maxAge,
	}
}

func (p *Probe) IsOnline(ctx context.Context) bool {
	last := p.probedAt.Load()
	if last == 0 || p.maxAge <= 0 || time.Since(time.Unix(0, last)) > p.maxAge {
		return p.Refresh(ctx)
	}
	return p.online.Load()
}

// Refresh probes now and updates the cached answer.
func (p *Probe) Refresh(ctx context.Context) bool {
	resp, err := p.client.R().
		SetContext(ctx).
		Head(p.url)

	online := err == nil
	previous := p.online.Swap(online)
	p.probedAt.Store(time.Now().UnixNano())

	if err != nil {
		p.logger.Debug("Connectivity probe failed", zap.String("url", p.url), zap.Error(err))
	} else {
		p.logger.Debug("Connectivity probe succeeded",
			zap.String("url", p.url),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()))
	}

	if previous != online {
		p.logger.Info("Connectivity changed", zap.Bool("online", online))
	}

	return online
}
