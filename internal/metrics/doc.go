// Package metrics holds the process-wide metrics collector.
//
// The collector is created once at startup and handed to the services that
// record metrics; Flush is called once before the process exits.
package metrics
