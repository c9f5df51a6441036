package engine

import (
	"net"
	"net/netip"
	"runtime"
	"testing"
	"time"

	"bannergrab/internal/types"
)

// fakeSink records every Emit call for assertions.
type fakeSink struct {
	emitted []string
}

func (f *fakeSink) Emit(ip netip.Addr, body []byte) error {
	f.emitted = append(f.emitted, ip.String()+" "+string(body))
	return nil
}

func listenerTarget(t *testing.T, ln net.Listener) types.Target {
	t.Helper()
	addrPort, err := netip.ParseAddrPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("ParseAddrPort(%s): %v", ln.Addr(), err)
	}
	return types.Target{IP: addrPort.Addr()}
}

func baseConfig(port int) *types.Config {
	return &types.Config{
		Port:           uint16(port),
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		MaxReadSize:    4096,
		Format:         types.FormatIPAndBody,
	}
}

func TestRunConnectionMatchFound(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("SSH-2.0-OpenSSH_9.0\r\n"))
	}()

	target := listenerTarget(t, ln)
	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)
	cfg.SearchString = []byte("SSH")

	counters := NewCounters(nil)
	sink := &fakeSink{}
	runConnection(cfg, counters, sink, nil, target, nil)

	snap := counters.Stats.Snapshot()
	if snap.Found != 1 {
		t.Fatalf("Found = %d, want 1", snap.Found)
	}
	if len(sink.emitted) != 1 {
		t.Fatalf("sink got %d emissions, want 1", len(sink.emitted))
	}
}

func TestRunConnectionNoMatch(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("FTP ready\r\n"))
	}()

	target := listenerTarget(t, ln)
	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)
	cfg.SearchString = []byte("SSH")

	counters := NewCounters(nil)
	sink := &fakeSink{}
	runConnection(cfg, counters, sink, nil, target, nil)

	snap := counters.Stats.Snapshot()
	if snap.Found != 0 {
		t.Fatalf("Found = %d, want 0", snap.Found)
	}
	if snap.CompletedHosts != 1 {
		t.Fatalf("CompletedHosts = %d, want 1", snap.CompletedHosts)
	}
	if len(sink.emitted) != 0 {
		t.Fatalf("sink got %d emissions, want 0", len(sink.emitted))
	}
}

func TestRunConnectionNilSearchStringMatchesAnyResponse(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("anything"))
	}()

	target := listenerTarget(t, ln)
	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)

	counters := NewCounters(nil)
	sink := &fakeSink{}
	runConnection(cfg, counters, sink, nil, target, nil)

	if snap := counters.Stats.Snapshot(); snap.Found != 1 {
		t.Fatalf("Found = %d, want 1 (nil search string matches any non-empty response)", snap.Found)
	}
}

func TestRunConnectionConnectTimeout(t *testing.T) {
	// 10.255.255.1 is a non-routable address reserved for this kind of
	// test; dialing it reliably blocks until our deadline fires.
	cfg := baseConfig(1)
	cfg.ConnectTimeout = 50 * time.Millisecond
	target := types.Target{IP: netip.MustParseAddr("10.255.255.1")}

	counters := NewCounters(nil)
	runConnection(cfg, counters, &fakeSink{}, nil, target, nil)

	snap := counters.Stats.Snapshot()
	if snap.ConnTimedOut != 1 {
		t.Fatalf("ConnTimedOut = %d, want 1", snap.ConnTimedOut)
	}
	if snap.TimedOut != 1 {
		t.Fatalf("TimedOut = %d, want 1", snap.TimedOut)
	}
}

func TestRunConnectionReadTimeout(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		close(accepted)
		time.Sleep(200 * time.Millisecond)
	}()

	target := listenerTarget(t, ln)
	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)
	cfg.ReadTimeout = 20 * time.Millisecond

	counters := NewCounters(nil)
	runConnection(cfg, counters, &fakeSink{}, nil, target, nil)
	<-accepted

	snap := counters.Stats.Snapshot()
	if snap.ReadTimedOut != 1 {
		t.Fatalf("ReadTimedOut = %d, want 1", snap.ReadTimedOut)
	}
	if snap.TimedOut != 1 {
		t.Fatalf("TimedOut = %d, want 1", snap.TimedOut)
	}
}

func TestRunConnectionPhaseTransitions(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("banner"))
	}()

	target := listenerTarget(t, ln)
	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)

	var phases []types.Phase
	counters := NewCounters(nil)
	runConnection(cfg, counters, &fakeSink{}, nil, target, func(p types.Phase) {
		phases = append(phases, p)
	})

	want := []types.Phase{types.PhaseConnecting, types.PhaseConnected, types.PhaseReceived}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i, p := range want {
		if phases[i] != p {
			t.Fatalf("phases[%d] = %s, want %s", i, phases[i], p)
		}
	}
}

func TestRunConnectionDoesNotPreallocateMaxReadSize(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("small banner"))
	}()

	target := listenerTarget(t, ln)
	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)
	// A huge cap: if runConnection still allocated a MaxReadSize-sized
	// buffer per task, this alone would be enough to exhaust memory at
	// any meaningful fanout.
	cfg.MaxReadSize = 16 * 1024 * 1024

	counters := NewCounters(nil)
	sink := &fakeSink{}
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	runConnection(cfg, counters, sink, nil, target, nil)
	runtime.ReadMemStats(&after)

	if allocated := after.TotalAlloc - before.TotalAlloc; allocated >= uint64(cfg.MaxReadSize) {
		t.Fatalf("runConnection allocated %d bytes, want fewer than MaxReadSize (%d)", allocated, cfg.MaxReadSize)
	}
	if snap := counters.Stats.Snapshot(); snap.Found != 1 {
		t.Fatalf("Found = %d, want 1", snap.Found)
	}
	if len(sink.emitted) != 1 || sink.emitted[0] == "" {
		t.Fatalf("sink got %v, want one non-empty emission", sink.emitted)
	}
}

func TestRunConnectionConservation(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte("ok"))
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	cfg := baseConfig(port)
	counters := NewCounters(nil)

	connected := types.Target{IP: netip.MustParseAddr("127.0.0.1")}
	runConnection(cfg, counters, &fakeSink{}, nil, connected, nil)

	refused := types.Target{IP: netip.MustParseAddr("127.0.0.1")}
	cfgRefused := baseConfig(1) // nothing listens on port 1
	cfgRefused.ConnectTimeout = 200 * time.Millisecond
	runConnection(cfgRefused, counters, &fakeSink{}, nil, refused, nil)

	snap := counters.Stats.Snapshot()
	if snap.InitConnectedHosts != snap.ConnectedHosts+snap.ConnTimedOut {
		t.Fatalf("conservation violated: init=%d connected=%d conn_timed_out=%d",
			snap.InitConnectedHosts, snap.ConnectedHosts, snap.ConnTimedOut)
	}
}
