package version

// Version is the application version.
const Version = "v0.3.1"
