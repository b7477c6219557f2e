package netutil

import (
	"net"
	"testing"

	"github.com/localpub/localpub/internal/logger"
)

func testLogger() logger.Logger {
	return logger.New("error", false)
}

func adapter(name string, flags net.Flags, cidrs ...string) Adapter {
	a := Adapter{
		Iface: net.Interface{Name: name, Flags: flags | net.FlagUp},
	}
	for _, c := range cidrs {
		ip, ipnet, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		ipnet.IP = ip
		a.Addrs = append(a.Addrs, ipnet)
	}
	return a
}

func TestSelectAllNonLoopback(t *testing.T) {
	all := []Adapter{
		adapter("lo", net.FlagLoopback, "127.0.0.1/8"),
		adapter("eth0", 0, "192.168.1.10/24"),
		adapter("eth1", 0, "10.0.0.5/8", "fe80::1/64"),
	}

	sel, err := Select(nil, nil, all, testLogger())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	wantIPs := []string{"192.168.1.10", "10.0.0.5"}
	if len(sel.IPs) != len(wantIPs) {
		t.Fatalf("IPs = %v, want %v", sel.IPs, wantIPs)
	}
	for i := range wantIPs {
		if sel.IPs[i] != wantIPs[i] {
			t.Errorf("IPs[%d] = %q, want %q", i, sel.IPs[i], wantIPs[i])
		}
	}
	if len(sel.Interfaces) != 2 {
		t.Errorf("Interfaces = %d, want 2", len(sel.Interfaces))
	}
}

func TestSelectConfiguredAdapters(t *testing.T) {
	all := []Adapter{
		adapter("eth0", 0, "192.168.1.10/24"),
		adapter("eth1", 0, "10.0.0.5/8"),
	}

	sel, err := Select([]string{"eth1"}, nil, all, testLogger())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if len(sel.IPs) != 1 || sel.IPs[0] != "10.0.0.5" {
		t.Errorf("IPs = %v, want [10.0.0.5]", sel.IPs)
	}
}

func TestSelectSkipsMissingAdapter(t *testing.T) {
	all := []Adapter{
		adapter("eth0", 0, "192.168.1.10/24"),
	}

	sel, err := Select([]string{"eth0", "does-not-exist"}, nil, all, testLogger())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(sel.IPs) != 1 || sel.IPs[0] != "192.168.1.10" {
		t.Errorf("IPs = %v, want [192.168.1.10]", sel.IPs)
	}
}

func TestSelectExcludedNets(t *testing.T) {
	all := []Adapter{
		adapter("eth0", 0, "192.168.1.10/24"),
		adapter("docker0", 0, "172.17.0.1/16"),
	}

	sel, err := Select(nil, []string{"172.16.0.0/12"}, all, testLogger())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if len(sel.IPs) != 1 || sel.IPs[0] != "192.168.1.10" {
		t.Errorf("IPs = %v, want [192.168.1.10]", sel.IPs)
	}
	if len(sel.Interfaces) != 1 || sel.Interfaces[0].Name != "eth0" {
		t.Errorf("Interfaces = %v, want [eth0]", sel.Interfaces)
	}
}

func TestSelectInvalidExcludedNet(t *testing.T) {
	all := []Adapter{
		adapter("eth0", 0, "192.168.1.10/24"),
	}

	if _, err := Select(nil, []string{"not-a-cidr"}, all, testLogger()); err == nil {
		t.Error("Select() with invalid CIDR should fail")
	}
}

func TestSelectNoAddresses(t *testing.T) {
	all := []Adapter{
		adapter("lo", net.FlagLoopback, "127.0.0.1/8"),
	}

	if _, err := Select(nil, nil, all, testLogger()); err == nil {
		t.Error("Select() with no publishable addresses should fail")
	}
}
