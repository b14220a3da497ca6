package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FixtureSubnet is the subnet identifier used by the canned fabric.
const FixtureSubnet = "fe80:0000:0000:0000"

// FixtureDiscovery is a two-host, one-switch fabric dump: gpu-0001 and
// gpu-0002 each connect one 4x QDR port to edgesw-01, and the switch
// side of each cable is recorded too.
const FixtureDiscovery = `DR path slid 0; dlid 0; 0,1
CA   1  1  0xaaaa000000000001 4x QDR - SW  10  1  0xcccc000000000001 ( 'gpu-0001 HCA-1' - 'edgesw-01' )
CA   2  1  0xaaaa000000000002 4x QDR - SW  10  2  0xcccc000000000001 ( 'gpu-0002 HCA-1' - 'edgesw-01' )
SW  10  1  0xcccc000000000001 4x QDR - CA   1  1  0xaaaa000000000001 ( 'edgesw-01' - 'gpu-0001 HCA-1' )
SW  10  2  0xcccc000000000001 4x QDR - CA   2  1  0xaaaa000000000002 ( 'edgesw-01' - 'gpu-0002 HCA-1' )
`

// FixtureRoutes is the matching unicast forwarding dump for edgesw-01.
const FixtureRoutes = `Unicast lids [0x0-0x2] of switch DR path slid 0; dlid 0; 0 guid 0xcccc000000000001 (edgesw-01):
0x0001 001 : (Channel Adapter portguid 0xaaaa000000000001: 'gpu-0001 HCA-1')
0x0002 002 : (Channel Adapter portguid 0xaaaa000000000002: 'gpu-0002 HCA-1')
`

// Canonical identifiers of the fixture devices.
const (
	FixtureHost1ID  = "aaaa:0000:0000:0001"
	FixtureHost2ID  = "aaaa:0000:0000:0002"
	FixtureSwitchID = "cccc:0000:0000:0001"
)

// WriteFixtureSubnet lays out the canned fabric in dir the way a real
// input directory looks: the discovery file plus an ibroutes directory
// with one route dump. It returns the discovery file path.
func WriteFixtureSubnet(t *testing.T, dir string) string {
	t.Helper()

	discovery := filepath.Join(dir, "ib-subnet-"+FixtureSubnet+".txt")
	if err := os.WriteFile(discovery, []byte(FixtureDiscovery), 0o644); err != nil {
		t.Fatalf("write discovery fixture: %v", err)
	}

	routeDir := filepath.Join(dir, "ibroutes-"+FixtureSubnet)
	if err := os.Mkdir(routeDir, 0o755); err != nil {
		t.Fatalf("create route fixture dir: %v", err)
	}
	routeFile := filepath.Join(routeDir, "ibroute-"+FixtureSubnet+"-1.txt")
	if err := os.WriteFile(routeFile, []byte(FixtureRoutes), 0o644); err != nil {
		t.Fatalf("write route fixture: %v", err)
	}

	return discovery
}
