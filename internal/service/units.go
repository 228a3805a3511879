package service

// Display temperature units.
const (
	UnitCelsius    = "C"
	UnitFahrenheit = "F"
)

// celsiusToDisplay converts a canonical °C value to the configured display
// unit before it is sent to the thermostat.
func celsiusToDisplay(c float64, unit string) float64 {
	if unit == UnitFahrenheit {
		return c*9/5 + 32
	}
	return c
}

// displayToCelsius converts a thermostat-reported value back to canonical °C
// for storage.
func displayToCelsius(v float64, unit string) float64 {
	if unit == UnitFahrenheit {
		return (v - 32) * 5 / 9
	}
	return v
}
