package render

import "fmt"

// OSTitle names an operating system (a GOOS value or a remote uname) the
// way the header shows it.
func OSTitle(goos string) string {
	switch goos {
	case "linux", "Linux":
		return "Linux"
	case "darwin", "Darwin":
		return "macOS"
	case "windows", "Windows":
		return "Windows"
	case "":
		return "Unknown"
	default:
		return goos
	}
}

// Header returns the title line for an OS name.
func Header(goos string) string {
	return fmt.Sprintf("%s System Monitor", OSTitle(goos))
}
