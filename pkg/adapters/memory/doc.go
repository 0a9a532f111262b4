// Package memory provides in-process implementations of the session store and the gateway.
package memory
