// Package brick implements the packet-processing units that make up a graph
// and the Graph container that owns them.
//
// Bricks form a closed set of variants (Nop, Tap, Hub, Switch, Nic,
// Firewall) behind the Brick interface. Every brick has two sides, west and
// east, each with a fixed number of port slots:
//
//   - dipoles (Nop, Firewall) have one slot per side
//   - monopoles (Tap, Nic) have a single slot usable on either side
//   - multipoles (Hub, Switch) have a configured number of slots per side
//
// Link relations live inside the bricks themselves: linking west to east
// records east in one of west's east slots and west in one of east's west
// slots. Link checks both bricks before mutating either, so a failed link
// leaves both bricks unchanged.
//
// The Firewall variant compiles a pcap-style filter language (see Compile)
// and is reached through AsFirewall. Nic bricks acquire a device from a
// DeviceProvider and release it on Close.
package brick
