// Package factory builds pluggable modules, such as metrics sinks, from a
// type name and a raw settings map:
//
//	sinks:
//	  - type: influx
//	    conf: {url: "http://influx:8086", org: port, bucket: berthplan}
//
// Factories decode the map with Decode and return the implementation.
package factory
