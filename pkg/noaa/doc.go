// Package noaa converts decoded CO-OPS records into the JSON documents served
// by the tide server. Six-minute series are packed into one entry per slot
// from midnight UTC, with null marking slots NOAA did not report. All NOAA
// timestamps are read as UTC wall clock times.
package noaa
