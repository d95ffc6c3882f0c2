package nn

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// gatedInvocations counts successful gated activation calls per kernel path.
	gatedInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fusedact_gated_invocations_total",
		Help: "Successful gated activation calls by kernel path and backend",
	}, []string{"path", "backend"})

	// gatedErrors counts failed gated activation calls by error class.
	gatedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fusedact_gated_errors_total",
		Help: "Failed gated activation calls by reason",
	}, []string{"reason"})
)

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrDtypeMismatch):
		return "dtype_mismatch"
	case errors.Is(err, ErrAliasedBuffers):
		return "aliased_buffers"
	case errors.Is(err, ErrUnsupportedDevice):
		return "unsupported_device"
	default:
		return "other"
	}
}
