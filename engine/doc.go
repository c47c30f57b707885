/*
Package engine talks to Docker engines via their API endpoints (unix domain
sockets): it checks whether an engine is reachable, which process serves the
endpoint, and whether the engine runs rootless.

The installer uses it to refuse installing a rootless engine next to an
accessible system-wide (“rootful”) engine, and to verify that a freshly started
rootless engine answers API calls.
*/
package engine
