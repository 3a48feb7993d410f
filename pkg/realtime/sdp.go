package realtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"
)

// candidate is one gathered host candidate line.
type candidate struct {
	ip   string
	port int
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(buf)
}

// gatherCandidates binds an ephemeral UDP socket per usable local address.
// Gathering stops as soon as the context expires; whatever was collected by
// then goes into the offer.
func gatherCandidates(ctx context.Context) []candidate {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var out []candidate
	for _, addr := range addrs {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}

		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip})
		if err != nil {
			continue
		}
		port := conn.LocalAddr().(*net.UDPAddr).Port
		conn.Close()

		out = append(out, candidate{ip: ip.String(), port: port})
	}
	return out
}

// buildOffer renders the local SDP offer. One audio media section with
// fresh ICE credentials and the gathered host candidates.
func buildOffer(cands []candidate) string {
	ufrag := randomToken(4)
	pwd := randomToken(12)
	sessionID := time.Now().UnixNano()

	var b strings.Builder
	fmt.Fprintf(&b, "v=0\r\n")
	fmt.Fprintf(&b, "o=- %d 2 IN IP4 127.0.0.1\r\n", sessionID)
	fmt.Fprintf(&b, "s=-\r\n")
	fmt.Fprintf(&b, "t=0 0\r\n")
	fmt.Fprintf(&b, "a=group:BUNDLE 0\r\n")
	fmt.Fprintf(&b, "m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n")
	fmt.Fprintf(&b, "c=IN IP4 0.0.0.0\r\n")
	fmt.Fprintf(&b, "a=mid:0\r\n")
	fmt.Fprintf(&b, "a=sendrecv\r\n")
	fmt.Fprintf(&b, "a=rtpmap:111 opus/48000/2\r\n")
	fmt.Fprintf(&b, "a=ice-ufrag:%s\r\n", ufrag)
	fmt.Fprintf(&b, "a=ice-pwd:%s\r\n", pwd)
	fmt.Fprintf(&b, "a=setup:actpass\r\n")
	for i, c := range cands {
		fmt.Fprintf(&b, "a=candidate:%d 1 udp %d %s %d typ host\r\n",
			i+1, 2130706431-i, c.ip, c.port)
	}
	fmt.Fprintf(&b, "a=end-of-candidates\r\n")
	return b.String()
}

// validateAnswer rejects remote descriptions that carry no ICE credentials.
// An answer without a=ice-ufrag can never complete connectivity checks.
func validateAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("empty sdp answer")
	}
	if !strings.Contains(answer, "a=ice-ufrag") {
		return fmt.Errorf("sdp answer carries no ice-ufrag attribute")
	}
	return nil
}
