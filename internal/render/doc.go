// Package render draws monitor samples as text.
//
// The layout is a platform-titled header followed by one block of labelled
// lines per polled target:
//
//	Linux System Monitor
//	==================
//
//	CPU Usage: 12.34%
//	Load Averages: 0.52 (1 min), 0.58 (5 min), 0.59 (15 min)
//	Total Memory: 14.90 GB
//	Used Memory: 11.18 GB
//	Free Memory: 3.73 GB
//
// On a terminal the screen is cleared once and every later frame is drawn
// in place below the header. Any other writer receives plain blocks.
package render
