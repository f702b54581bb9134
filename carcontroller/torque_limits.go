package carcontroller

// TorqueLimiter bounds a requested steering torque given the last applied
// torque and the driver's torque on the wheel. Implementations must never
// return a magnitude above their steer max.
type TorqueLimiter interface {
	Limit(desired, last, driverTorque int) int
}

// StdTorqueLimits is the rate and driver-override limit shared by
// torque-controlled EPS platforms.
type StdTorqueLimits struct {
	SteerMax         int
	DeltaUp          int
	DeltaDown        int
	DriverAllowance  int
	DriverMultiplier int
	DriverFactor     int
}

func (l StdTorqueLimits) Limit(desired, last, driverTorque int) int {
	// Driver torque beyond the allowance, against the command, shrinks the
	// window in that direction.
	driverMax := l.SteerMax + (l.DriverAllowance+driverTorque*l.DriverFactor)*l.DriverMultiplier
	driverMin := -l.SteerMax + (-l.DriverAllowance+driverTorque*l.DriverFactor)*l.DriverMultiplier
	maxAllowed := max(min(l.SteerMax, driverMax), 0)
	minAllowed := min(max(-l.SteerMax, driverMin), 0)
	torque := clampInt(desired, minAllowed, maxAllowed)

	// Growing magnitude moves by at most DeltaUp, shrinking by DeltaDown.
	if last > 0 {
		torque = clampInt(torque, max(last-l.DeltaDown, -l.DeltaUp), last+l.DeltaUp)
	} else {
		torque = clampInt(torque, last-l.DeltaUp, min(last+l.DeltaDown, l.DeltaUp))
	}
	return torque
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
