// Command jglayout prints the justified layout of a directory of images.
//
// Usage:
//
//	jglayout [flags] <dir>
//
// Flags:
//
//	-width N          container width (default: terminal columns x 8, or 1200)
//	-row-height N     target row height
//	-margins N        spacing between tiles
//	-last-row MODE    justify, nojustify, left, center, right or hide
//	-settings FILE    YAML file with gallery settings
//	-base-url URL     probe images over HTTP below URL instead of on disk
//	-workers N        concurrent probes
//	-timeout D        upper bound for the whole layout (default: 1m)
//
// Flags given on the command line override the settings file. The layout is
// written to stdout as JSON, indented when stdout is a terminal.
package main
