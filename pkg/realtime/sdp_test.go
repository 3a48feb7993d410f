package realtime

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBuildOfferShape(t *testing.T) {
	offer := buildOffer([]candidate{{ip: "192.168.1.10", port: 40000}})

	for _, want := range []string{
		"v=0",
		"m=audio",
		"a=rtpmap:111 opus/48000/2",
		"a=ice-ufrag:",
		"a=ice-pwd:",
		"a=candidate:1 1 udp",
		"192.168.1.10 40000 typ host",
		"a=end-of-candidates",
	} {
		if !strings.Contains(offer, want) {
			t.Fatalf("offer missing %q:\n%s", want, offer)
		}
	}
}

func TestBuildOfferFreshCredentials(t *testing.T) {
	a := buildOffer(nil)
	b := buildOffer(nil)

	ufrag := func(sdp string) string {
		for _, line := range strings.Split(sdp, "\r\n") {
			if strings.HasPrefix(line, "a=ice-ufrag:") {
				return line
			}
		}
		return ""
	}
	if ufrag(a) == "" || ufrag(a) == ufrag(b) {
		t.Fatalf("ice credentials must differ per offer: %q vs %q", ufrag(a), ufrag(b))
	}
}

func TestValidateAnswer(t *testing.T) {
	good := "v=0\r\nm=audio 9 UDP/TLS/RTP/SAVPF 111\r\na=ice-ufrag:abcd\r\na=ice-pwd:efgh\r\n"
	if err := validateAnswer(good); err != nil {
		t.Fatalf("valid answer rejected: %v", err)
	}

	if err := validateAnswer(""); err == nil {
		t.Fatal("empty answer must be rejected")
	}
	if err := validateAnswer("v=0\r\nm=audio 9 RTP/AVP 0\r\n"); err == nil {
		t.Fatal("answer without ice-ufrag must be rejected")
	}
}

func TestGatherCandidatesHonorsDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		gatherCandidates(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("gathering did not stop after context cancellation")
	}
}
