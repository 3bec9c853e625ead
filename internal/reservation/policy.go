package reservation

// Accept reports whether seat satisfies c. Rules apply in order: a specified car
// must match, then the seat number must fall within whichever bounds are set.
// Bounds are strict unless c.Bounds is BoundsInclusive.
func Accept(c Criteria, seat Seat) bool {
	if c.Car != "" && CanonicalCar(c.Car) != CanonicalCar(seat.Car) {
		return false
	}
	n := seat.Number
	if c.SeatLow != nil {
		if c.Bounds == BoundsInclusive && n < *c.SeatLow {
			return false
		}
		if c.Bounds == BoundsExclusive && n <= *c.SeatLow {
			return false
		}
	}
	if c.SeatHigh != nil {
		if c.Bounds == BoundsInclusive && n > *c.SeatHigh {
			return false
		}
		if c.Bounds == BoundsExclusive && n >= *c.SeatHigh {
			return false
		}
	}
	return true
}
