// Package render turns a graph topology into something to look at: DOT
// text, SVG produced by the graphviz dot binary, or the node and edge lists
// consumed by vis-network in a browser.
package render
