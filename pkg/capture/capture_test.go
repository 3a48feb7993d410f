package capture_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"SalmaVoice/pkg/capture"
)

func newGate() capture.IGate {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return capture.New(l)
}

func TestRequestGrantedByDefault(t *testing.T) {
	t.Setenv("CAPTURE_PERMISSION", "")

	if err := newGate().Request(context.Background()); err != nil {
		t.Fatalf("Request: %v, capture must be granted by default", err)
	}
}

func TestRequestDeniedByEnv(t *testing.T) {
	t.Setenv("CAPTURE_PERMISSION", "denied")

	if err := newGate().Request(context.Background()); err != capture.ErrDenied {
		t.Fatalf("err = %v, want ErrDenied", err)
	}
}

func TestRequestDeniedIsCaseInsensitive(t *testing.T) {
	t.Setenv("CAPTURE_PERMISSION", "DENIED")

	if err := newGate().Request(context.Background()); err != capture.ErrDenied {
		t.Fatalf("err = %v, want ErrDenied", err)
	}
}
