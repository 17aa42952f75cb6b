package web

import (
	"context"
	"time"
)

// TriggerHTTP marks runs started through POST /api/runs.
const TriggerHTTP = "http"

// runContext detaches a pipeline run from the caller that started it.
// Values such as the request ID and trigger are kept. A shared run must not
// end when one caller goes away, so cancellation comes only from the server's
// run context and the run timeout.
func (s *Server) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)

	var cancel context.CancelFunc
	if s.opts.RunTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	stop := context.AfterFunc(s.runCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// probeTimeout bounds the store ping behind /healthz.
const probeTimeout = 5 * time.Second
