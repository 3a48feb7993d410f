package capture

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrDenied means audio capture may not start.
var ErrDenied = errors.New("audio capture permission denied")

// IGate answers whether audio capture may start before a call connects.
// The gateway has no microphone of its own; deployments that front real
// capture hardware put their permission check behind this interface.
type IGate interface {
	Request(ctx context.Context) error
}

type envGate struct {
	log *logrus.Logger
}

// New builds the default gate, driven by the CAPTURE_PERMISSION env var.
// Anything but "denied" grants capture.
func New(log *logrus.Logger) IGate {
	return &envGate{log: log}
}

func (g *envGate) Request(ctx context.Context) error {
	if strings.EqualFold(os.Getenv("CAPTURE_PERMISSION"), "denied") {
		g.log.WithFields(logrus.Fields{
			"permission": "denied",
		}).Warn("[Capture.Request] capture permission denied by configuration")
		return ErrDenied
	}
	return nil
}
