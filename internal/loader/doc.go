// Package loader reads seed topologies from disk.
//
// A seed path is a file or a directory walked recursively. Files are
// dispatched on extension: .hcl files may declare any number of graph
// blocks, .yaml/.yml files any number of YAML documents, and .json files a
// single topology. Loaded topologies are applied in file order, so a graph
// declared twice fails on its second declaration.
//
// An HCL seed looks like:
//
//	graph "lab" {
//	  brick "t1" { kind = "tap" }
//	  brick "s1" {
//	    kind       = "switch"
//	    west_ports = 2
//	    east_ports = 2
//	    side       = "west"
//	  }
//	  brick "fw" {
//	    kind = "firewall"
//	    rule {
//	      filter = "tcp port 22"
//	      side   = "west"
//	    }
//	  }
//	  brick "uplink" {
//	    kind = "nic"
//	    port = env.RPG_UPLINK_PORT
//	  }
//	  link {
//	    west = "t1"
//	    east = "s1"
//	  }
//	}
//
// Expressions can read the process environment through the env object.
package loader
