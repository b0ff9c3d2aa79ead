// Command sump-emu serves the logic analyzer firmware over a serial device
// with simulated sampling hardware, so SUMP clients can be exercised without
// a board. Point it at one end of a pty pair (socat) and the client at the
// other.
package main

func main() {
	Execute()
}
