/*
Package probe defines the plugin interface between the installer and its host
capability probes, such as checking for the newuidmap helper or the per-user
subordinate ID ranges.

The sub-package “all” pulls in all capability probe plugins supported
out-of-the-box by this module. The individual probes are then implemented in
the other sub-packages.
*/
package probe
