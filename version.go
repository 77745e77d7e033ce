package tendril

// Version is the current release of the Tendril library.
const Version = "0.1.0"
