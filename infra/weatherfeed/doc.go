// Package weatherfeed fetches yard conditions from an HTTP weather service.
package weatherfeed
