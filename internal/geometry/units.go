package geometry

const (
	AngstromToBohr      = 1.8897261246257702
	BohrToAngstrom      = 1 / AngstromToBohr
	HartreeToWavenumber = 219474.6313632
)
