/*
Package supervisor defines the plugin interface between the installer and
per-user service supervisors, such as the systemd user manager.

A supervisor plugin first detects whether its supervisor is available for the
current user. Only then the installer registers the rootless engine as a
service of that supervisor; otherwise, it falls back to telling the user how to
start the engine manually.

The sub-package “all” pulls in all supervisor plugins supported out-of-the-box
by this module.
*/
package supervisor
