package booking

import "math"

// Round2 rounds a price to two decimal places.  Applied at every step
// of the pricing computation so stored values never carry float dust.
func Round2(v float64) float64 {
    return math.Round(v*100) / 100
}

// TotalPrice computes the charge for a booking.  A full hour or more is
// billed pro rata on the hourly rate; sub-hour bookings are floored at
// one full hour's price.
func TotalPrice(pricePerHour float64, durationMin int) float64 {
    ratio := float64(durationMin) / 60.0
    raw := Round2(pricePerHour * ratio)
    if ratio >= 1 {
        return raw
    }
    return Round2(math.Max(pricePerHour, raw))
}
