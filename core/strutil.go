package core

// Itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	// Count digits
	temp := n
	digits := 0
	for temp > 0 {
		digits++
		temp /= 10
	}

	// Add space for negative sign
	if negative {
		digits++
	}

	// Build string from right to left
	buf := make([]byte, digits)
	pos := digits - 1

	for n > 0 {
		buf[pos] = byte('0' + n%10)
		n /= 10
		pos--
	}

	if negative {
		buf[0] = '-'
	}

	return string(buf)
}

// Utoa converts an unsigned integer to a string
func Utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// Hex formats n as upper-case hex with a 0x prefix, e.g. 0x1F
func Hex(n uint32) string {
	const hexDigits = "0123456789ABCDEF"
	if n == 0 {
		return "0x0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = hexDigits[n&0xf]
		n >>= 4
	}
	pos -= 2
	buf[pos] = '0'
	buf[pos+1] = 'x'

	return string(buf[pos:])
}

// Hex16 formats a sample word as exactly four hex digits, e.g. 0x00A5
func Hex16(n uint16) string {
	const hexDigits = "0123456789ABCDEF"
	buf := [6]byte{'0', 'x'}
	for i := 0; i < 4; i++ {
		buf[5-i] = hexDigits[n&0xf]
		n >>= 4
	}
	return string(buf[:])
}

// Fixed formats a non-negative float with the given number of decimals.
// Values are truncated, not rounded; good enough for divisor diagnostics.
func Fixed(f float32, decimals int) string {
	if f < 0 {
		return "-" + Fixed(-f, decimals)
	}
	whole := uint32(f)
	s := Utoa(whole)
	if decimals <= 0 {
		return s
	}

	frac := f - float32(whole)
	buf := make([]byte, 0, decimals+1)
	buf = append(buf, '.')
	for i := 0; i < decimals; i++ {
		frac *= 10
		d := uint32(frac)
		buf = append(buf, byte('0'+d))
		frac -= float32(d)
	}
	return s + string(buf)
}

// EnabledString returns "enabled" or "disabled"
func EnabledString(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
