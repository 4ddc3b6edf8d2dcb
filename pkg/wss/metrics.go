package wss

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ws_security_authentications_total",
		Help: "UsernameToken authentication attempts, by result",
	},
	[]string{"result"},
)
